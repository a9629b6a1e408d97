package jsonstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFile(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot())

	_, ok, err := s.Get("app.settings")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSet_CreatesIntermediateNodesAndPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set("app.settings.storeWindowBounds", true))
	require.NoError(t, s.Set("app.general.language", "de_DE"))

	reopened, err := Open(dir)
	require.NoError(t, err)
	want := map[string]any{
		"app": map[string]any{
			"settings": map[string]any{"storeWindowBounds": true},
			"general":  map[string]any{"language": "de_DE"},
		},
	}
	if diff := cmp.Diff(want, reopened.Snapshot()); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	v, ok, err := reopened.Get("app.general")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"language": "de_DE"}, v)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Set("app.a.b", 1.0))

	v, _, err := s.Get("app.a")
	require.NoError(t, err)
	v.(map[string]any)["b"] = 2.0

	again, _, err := s.Get("app.a.b")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again)
}

func TestOpen_ToleratesJSONC(t *testing.T) {
	dir := t.TempDir()
	content := `{
  // edited by hand
  "app": {"general": {"language": "fr_FR",},},
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	s, err := Open(dir)
	require.NoError(t, err)
	v, ok, err := s.Get("app.general.language")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fr_FR", v)
}

func TestOpen_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"app":`), 0o600))

	_, err := Open(dir)
	assert.Error(t, err)
}

func TestSet_InvalidKey(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Set("app..x", 1))
	assert.Error(t, s.Set("", 1))
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("app.x", 1.0))

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"app":{"x":2}}`), 0o600))
	doc, err := s.Reload()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"app": map[string]any{"x": 2.0}}, doc)

	v, _, err := s.Get("app.x")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}
