package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/appshell/internal/ports"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1\n", true},
		{"yes\n", true},
		{"Restart\n", true},
		{"2\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			d := NewDialogs(strings.NewReader(tt.input), &out)
			got, err := d.Confirm(context.Background(), ports.Confirmation{
				Title: "Restart", Message: "Restart now?", Agree: "Restart", Disagree: "Later",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Restart now?")
			assert.Contains(t, out.String(), "2) Later")
		})
	}
}

func TestError_WaitsForEnter(t *testing.T) {
	var out bytes.Buffer
	d := NewDialogs(strings.NewReader("\n"), &out)
	require.NoError(t, d.Error(context.Background(), "App", "boom"))
	assert.Contains(t, out.String(), "boom")
}

func TestError_ContextDone(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	d := NewDialogs(r, &bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Error(ctx, "App", "boom"), context.DeadlineExceeded)
}

func TestInfo(t *testing.T) {
	var out bytes.Buffer
	d := NewDialogs(strings.NewReader(""), &out)
	require.NoError(t, d.Info(context.Background(), "About", "appshell 1.0.0"))
	assert.Equal(t, "[About]\nappshell 1.0.0\n", out.String())
}
