// Package appshell runs the host and UI runtimes of an application shell in
// one process, connected by an in-memory bridge. Separate processes use
// pkg/host and pkg/ui directly with a stream or websocket channel.
//
// Example usage:
//
//	stores := store.Targets{General: store.NewMemory(), Process: store.NewMemory()}
//	s, err := appshell.New(host.Config{DataDir: dir}, stores, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	exit := s.Wait()
package appshell

import (
	"context"
	"errors"

	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/host"
	"github.com/bft-labs/appshell/pkg/store"
	"github.com/bft-labs/appshell/pkg/ui"
)

// Shell pairs a host runtime with the UI runtime talking to it.
type Shell struct {
	Host *host.Runtime
	UI   *ui.Runtime
}

// New creates both runtimes. Neither is started.
func New(cfg host.Config, stores store.Targets, hostOpts []host.Option, uiOpts []ui.Option) (*Shell, error) {
	hostCh, uiCh := bridge.Pipe()
	h, err := host.New(cfg, stores, hostCh, hostOpts...)
	if err != nil {
		return nil, err
	}
	return &Shell{Host: h, UI: ui.New(uiCh, uiOpts...)}, nil
}

// Start starts the host, then boots the UI. It returns once the UI's
// settings cache is loaded.
func (s *Shell) Start(ctx context.Context) error {
	if err := s.Host.Start(ctx); err != nil {
		return err
	}
	if err := s.UI.Start(ctx); err != nil {
		_ = s.Host.Stop()
		return err
	}
	return nil
}

// Wait blocks until the host decided how the process ends.
func (s *Shell) Wait() host.Exit {
	return s.Host.Exit()
}

// Stop stops the UI, then the host.
func (s *Shell) Stop() error {
	return errors.Join(ignoreNotRunning(s.UI.Stop()), ignoreNotRunning(s.Host.Stop()))
}

func ignoreNotRunning(err error) error {
	if errors.Is(err, host.ErrNotRunning) {
		return nil
	}
	return err
}
