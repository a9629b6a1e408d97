package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/appshell/internal/adapters/streamchan"
	"github.com/bft-labs/appshell/internal/adapters/wschan"
	"github.com/bft-labs/appshell/internal/cliconfig"
	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/bus"
	"github.com/bft-labs/appshell/pkg/log"
	"github.com/bft-labs/appshell/pkg/ui"
)

func (c *cli) newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:    "ui",
		Short:  "Run the UI process against a host",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ch, err := c.connectHost(ctx)
			if err != nil {
				return err
			}

			rt := ui.New(ch, ui.WithLogger(c.logger))
			rt.Bus().On(bus.CacheReady, func(_ []any, _ string) {
				c.logger.Info("settings ready", log.String("language", rt.Translator().Language()))
			})
			if err := rt.Start(ctx); err != nil {
				_ = rt.Stop()
				return err
			}

			select {
			case <-rt.Done():
			case <-ctx.Done():
				if err := rt.API().Quit(); err != nil {
					c.logger.Debug("quit not delivered", log.Err(err))
				}
			}
			if err := rt.Stop(); err != nil {
				c.logger.Warn("ui stop", log.Err(err))
			}
			return rt.Err()
		},
	}
}

// connectHost opens the bridge channel to the host.
func (c *cli) connectHost(ctx context.Context) (bridge.Channel, error) {
	switch c.cfg.Transport {
	case cliconfig.TransportWS:
		return ui.Connect(ctx, func(ctx context.Context) (bridge.Channel, error) {
			return wschan.Dial(ctx, c.cfg.ListenAddr)
		}, c.cfg.ConnectAttempts, c.logger)
	case cliconfig.TransportStdio:
		return streamchan.New(os.Stdin, os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.cfg.Transport)
	}
}
