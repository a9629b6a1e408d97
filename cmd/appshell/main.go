package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/appshell/internal/cliconfig"
	"github.com/bft-labs/appshell/pkg/log"
)

const appName = "appshell"

const longHelp = `
Two-process application shell.

The host process owns durable settings, dialogs and the process lifecycle.
The UI process mirrors the settings, translates and navigates, and talks to
the host over a correlated message bridge (stdio or websocket).

Configuration is read from $HOME/.appshell/config.toml, then APPSHELL_*
environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  appshell run
  appshell run --transport ws --listen 127.0.0.1:7878
  appshell get app.general.language
  appshell set app.general.language '"de_DE"'
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// exitError carries a process exit code decided by a runtime.
type exitError struct {
	code   int
	reason string
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit %d: %s", e.code, e.reason)
}

// cli holds state shared by the subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  *log.ZerologAdapter
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: cliconfig.DefaultConfig()}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Two-process application shell with a correlated host/UI bridge",
		Long:          strings.TrimSpace(longHelp),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.appshell/config.toml)")
	f.StringVar(&c.cfg.DataDir, "data-dir", c.cfg.DataDir, "directory of the general store and projects (default: $HOME/.appshell/data)")
	f.StringVar(&c.cfg.ProcessDir, "process-dir", c.cfg.ProcessDir, "directory of the process store (default: parent of data-dir)")
	f.StringVar(&c.cfg.Backend, "backend", c.cfg.Backend, "store backend: json or bolt")
	f.StringVar(&c.cfg.Transport, "transport", c.cfg.Transport, "bridge transport: stdio or ws")
	f.StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "websocket address of the host")
	f.DurationVar(&c.cfg.RequestTimeout, "timeout", c.cfg.RequestTimeout, "timeout of host requests to the UI")
	f.DurationVar(&c.cfg.RestartDelay, "restart-delay", c.cfg.RestartDelay, "delay before the restart dialog")
	f.IntVar(&c.cfg.ConnectAttempts, "connect-attempts", c.cfg.ConnectAttempts, "UI attempts to reach the host")
	f.BoolVar(&c.cfg.WatchSettings, "watch-settings", c.cfg.WatchSettings, "push external edits of the settings file to the UI")
	f.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level: debug, info, warn or error")
	f.StringVar(&c.cfg.UICommand, "ui-command", c.cfg.UICommand, "command starting the UI process (default: this binary)")
	if err := f.MarkHidden("ui-command"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to hide ui-command flag:", err)
	}
	// Appended by the restart flow; accepted and ignored.
	f.Bool("relaunch", false, "")
	if err := f.MarkHidden("relaunch"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to hide relaunch flag:", err)
	}

	root.AddCommand(
		c.newRunCmd(),
		c.newHostCmd(),
		c.newUICmd(),
		c.newGetCmd(),
		c.newSetCmd(),
	)
	return root
}

// load applies the config file and environment below explicitly set flags,
// validates the result and builds the logger.
func (c *cli) load(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.logger = log.NewZerologAdapterWithLogger(log.NewConsoleLogger(os.Stderr, c.cfg.LogLevel))
	c.logger.Debug("configuration",
		log.Path(c.cfg.DataDir),
		log.String("backend", c.cfg.Backend),
		log.String("transport", c.cfg.Transport),
		log.Duration("timeout", c.cfg.RequestTimeout))
	return nil
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
	os.Exit(1)
}
