// Package console implements ports.Dialogs as terminal prompts.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bft-labs/appshell/internal/ports"
)

// Dialogs prints dialogs to out and reads answers from in.
type Dialogs struct {
	mu    sync.Mutex
	out   io.Writer
	lines chan string
}

var _ ports.Dialogs = (*Dialogs)(nil)

// NewDialogs starts reading lines from in. A closed input answers every
// pending and future prompt with the default: acknowledge, or disagree.
func NewDialogs(in io.Reader, out io.Writer) *Dialogs {
	d := &Dialogs{out: out, lines: make(chan string)}
	go func() {
		defer close(d.lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			d.lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return d
}

func (d *Dialogs) readLine(ctx context.Context) (string, error) {
	select {
	case line := <-d.lines:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Info prints the message without waiting.
func (d *Dialogs) Info(_ context.Context, title, message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := fmt.Fprintf(d.out, "[%s]\n%s\n", title, message)
	return err
}

// Error prints the message and waits for Enter.
func (d *Dialogs) Error(ctx context.Context, title, message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := fmt.Fprintf(d.out, "[%s] ERROR\n%s\nPress Enter to continue.\n", title, message); err != nil {
		return err
	}
	_, err := d.readLine(ctx)
	return err
}

// Confirm prints both choices and reads the answer. "1", "y", "yes" or the
// agree label select agree; anything else disagrees.
func (d *Dialogs) Confirm(ctx context.Context, c ports.Confirmation) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := fmt.Fprintf(d.out, "[%s]\n%s\n  1) %s\n  2) %s\n> ", c.Title, c.Message, c.Agree, c.Disagree); err != nil {
		return false, err
	}
	answer, err := d.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "1", "y", "yes", strings.ToLower(c.Agree):
		return answer != "", nil
	default:
		return false, nil
	}
}
