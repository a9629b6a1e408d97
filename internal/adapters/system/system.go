// Package system implements ports.Shell and ports.Launcher with os/exec.
package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/bft-labs/appshell/internal/ports"
)

// Shell opens URLs with the platform's opener command.
type Shell struct{}

var _ ports.Shell = Shell{}

// OpenURL implements ports.Shell.
func (Shell) OpenURL(ctx context.Context, url string) error {
	name, args := openCommand(runtime.GOOS, url)
	if err := exec.CommandContext(ctx, name, args...).Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// Launcher relaunches the running executable.
type Launcher struct {
	// Path overrides the executable. Empty means os.Executable.
	Path string
}

var _ ports.Launcher = Launcher{}

// Relaunch implements ports.Launcher. The child inherits stdio and is
// detached from the caller.
func (l Launcher) Relaunch(args []string) error {
	path := l.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("relaunch: %w", err)
		}
		path = exe
	}
	cmd := exec.Command(path, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("relaunch %s: %w", path, err)
	}
	return cmd.Process.Release()
}
