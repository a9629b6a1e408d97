package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bft-labs/appshell/internal/adapters/boltstore"
	"github.com/bft-labs/appshell/internal/adapters/jsonstore"
	"github.com/bft-labs/appshell/internal/cliconfig"
	"github.com/bft-labs/appshell/pkg/store"
)

// boltFile is the database file name used by the bolt backend.
const boltFile = "settings.db"

// openStores opens the general and process stores. The returned func
// releases them.
func openStores(cfg cliconfig.Config) (store.Targets, func(), error) {
	switch cfg.Backend {
	case cliconfig.BackendBolt:
		for _, dir := range []string{cfg.DataDir, cfg.ProcessDir} {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return store.Targets{}, nil, err
			}
		}
		general, err := boltstore.Open(filepath.Join(cfg.DataDir, boltFile))
		if err != nil {
			return store.Targets{}, nil, err
		}
		process, err := boltstore.Open(filepath.Join(cfg.ProcessDir, boltFile))
		if err != nil {
			general.Close()
			return store.Targets{}, nil, err
		}
		return store.Targets{General: general, Process: process}, func() {
			general.Close()
			process.Close()
		}, nil
	default:
		general, err := jsonstore.Open(cfg.DataDir)
		if err != nil {
			return store.Targets{}, nil, err
		}
		process, err := jsonstore.Open(cfg.ProcessDir)
		if err != nil {
			return store.Targets{}, nil, err
		}
		return store.Targets{General: general, Process: process}, func() {}, nil
	}
}

func (c *cli) newGetCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a stored settings value as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := store.ParseTarget(target)
			if err != nil {
				return err
			}
			stores, release, err := openStores(c.cfg)
			if err != nil {
				return err
			}
			defer release()

			s := stores.General
			if t == store.Process {
				s = stores.Process
			}
			v, ok, err := s.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not set", args[0])
			}
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", string(store.General), "store to read: general or process")
	return cmd
}

func (c *cli) newSetCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a settings value; value is parsed as JSON, else taken as a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := store.ParseTarget(target)
			if err != nil {
				return err
			}
			stores, release, err := openStores(c.cfg)
			if err != nil {
				return err
			}
			defer release()

			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				value = args[1]
			}
			return stores.Set(args[0], value, t)
		},
	}
	cmd.Flags().StringVar(&target, "target", string(store.General), "store to write: general or process (process also writes general)")
	return cmd
}
