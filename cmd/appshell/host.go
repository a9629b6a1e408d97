package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/appshell/internal/adapters/console"
	"github.com/bft-labs/appshell/internal/adapters/streamchan"
	"github.com/bft-labs/appshell/internal/adapters/wschan"
	"github.com/bft-labs/appshell/internal/cliconfig"
	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/host"
	"github.com/bft-labs/appshell/pkg/log"
	"github.com/bft-labs/appshell/plugins/settingswatcher"
)

// acceptTimeout bounds the wait for the UI process to connect.
const acceptTimeout = 30 * time.Second

func (c *cli) newHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Run the host process and wait for a UI on the websocket address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Transport != cliconfig.TransportWS {
				return fmt.Errorf("the host command needs --transport %s; use run for stdio", cliconfig.TransportWS)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := wschan.Listen(c.cfg.ListenAddr)
			if err != nil {
				return err
			}
			c.logger.Info("waiting for ui", log.String("addr", ln.Addr()))
			conn, err := ln.Accept(ctx)
			ln.Close()
			if err != nil {
				return fmt.Errorf("accept ui: %w", err)
			}
			return c.serveHost(ctx, conn)
		},
	}
}

func (c *cli) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the host process and start the UI process as its child",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ch, child, err := c.startUI(ctx)
			if err != nil {
				return err
			}
			herr := c.serveHost(ctx, ch)
			ch.Close()
			if werr := child.Wait(); werr != nil {
				c.logger.Debug("ui process ended", log.Err(werr))
			}
			return herr
		},
	}
}

// startUI spawns the UI child and returns the bridge channel to it.
func (c *cli) startUI(ctx context.Context) (bridge.Channel, *exec.Cmd, error) {
	name, base, err := c.uiCommand()
	if err != nil {
		return nil, nil, err
	}
	flags := []string{
		"--transport", c.cfg.Transport,
		"--log-level", c.cfg.LogLevel,
		"--connect-attempts", fmt.Sprint(c.cfg.ConnectAttempts),
	}

	switch c.cfg.Transport {
	case cliconfig.TransportWS:
		ln, err := wschan.Listen(c.cfg.ListenAddr)
		if err != nil {
			return nil, nil, err
		}
		defer ln.Close()

		child := exec.Command(name, append(base, append(flags, "--listen", ln.Addr())...)...)
		child.Stdout, child.Stderr = os.Stderr, os.Stderr
		if err := child.Start(); err != nil {
			return nil, nil, fmt.Errorf("start ui: %w", err)
		}
		actx, cancel := context.WithTimeout(ctx, acceptTimeout)
		defer cancel()
		conn, err := ln.Accept(actx)
		if err != nil {
			_ = child.Process.Kill()
			_ = child.Wait()
			return nil, nil, fmt.Errorf("accept ui: %w", err)
		}
		return conn, child, nil

	default:
		child := exec.Command(name, append(base, flags...)...)
		child.Stderr = os.Stderr
		stdin, err := child.StdinPipe()
		if err != nil {
			return nil, nil, err
		}
		stdout, err := child.StdoutPipe()
		if err != nil {
			return nil, nil, err
		}
		if err := child.Start(); err != nil {
			return nil, nil, fmt.Errorf("start ui: %w", err)
		}
		return streamchan.New(stdout, stdin), child, nil
	}
}

// uiCommand returns the program and leading arguments starting the UI.
func (c *cli) uiCommand() (string, []string, error) {
	if fields := strings.Fields(c.cfg.UICommand); len(fields) > 0 {
		return fields[0], fields[1:], nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", nil, err
	}
	return exe, []string{"ui"}, nil
}

// serveHost runs the host runtime on ch until it decides to exit or ctx is
// done. A non-zero exit decision is returned as an *exitError.
func (c *cli) serveHost(ctx context.Context, ch bridge.Channel) error {
	stores, release, err := openStores(c.cfg)
	if err != nil {
		return err
	}
	defer release()

	opts := []host.Option{
		host.WithLogger(c.logger),
		host.WithDialogs(console.NewDialogs(os.Stdin, os.Stderr)),
		host.WithRequestTimeout(c.cfg.RequestTimeout),
		host.WithEventHandler(stateLogger{c.logger}),
	}
	if c.cfg.WatchSettings {
		opts = append(opts, settingswatcher.WithDefaultSettingsWatcher())
	}

	rt, err := host.New(host.Config{
		AppName:      appName,
		Version:      getVersion(),
		DataDir:      c.cfg.DataDir,
		RestartDelay: c.cfg.RestartDelay,
	}, stores, ch, opts...)
	if err != nil {
		return fmt.Errorf("create host: %w", err)
	}
	if err := rt.Start(ctx); err != nil {
		return fmt.Errorf("start host: %w", err)
	}

	select {
	case <-rt.Done():
	case <-ctx.Done():
		c.logger.Info("received signal, stopping...")
	}
	if err := rt.Stop(); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("host stop", log.Err(err))
	}

	select {
	case <-rt.Done():
		if e := rt.Exit(); e.Code != 0 {
			return &exitError{code: e.Code, reason: e.Reason}
		}
	default:
	}
	return nil
}

// stateLogger logs host lifecycle transitions.
type stateLogger struct {
	logger log.Logger
}

func (s stateLogger) OnStateChange(e host.StateChangeEvent) {
	s.logger.Debug("host state changed",
		log.String("from", e.Previous.String()),
		log.String("to", e.Current.String()),
		log.String("reason", e.Reason))
}
