package host

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/bft-labs/appshell/internal/domain"
	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/log"
	"github.com/bft-labs/appshell/pkg/store"
)

// LanguageKey is the general-store key holding the selected language id.
const LanguageKey = "app.general.language"

// Translation keys resolved through the UI for the restart dialog.
const (
	keyRestartTitle    = "ipc.requestRestart.title"
	keyRestartMessage  = "ipc.requestRestart.message"
	keyRestartOnlyOnce = "ipc.requestRestart.onlyOnce"
	keyRestartAgree    = "ipc.requestRestart.agree"
	keyRestartDisagree = "ipc.requestRestart.disagree"

	untranslated = "invalid"
)

func (r *Runtime) registerHandlers() {
	b := r.bridge
	b.OnCommand(bridge.CmdQuit, r.onQuit)
	b.OnCommand(bridge.CmdSetStorageKey, r.onSetStorageKey)
	b.OnCommand(bridge.CmdUpdateLanguage, r.onUpdateLanguage)
	b.OnCommand(bridge.CmdReportError, r.onReportError)
	b.OnCommand(bridge.CmdShowAppInfo, r.onShowAppInfo)
	b.OnCommand(bridge.CmdOpenURL, r.onOpenURL)
	b.OnCommand(bridge.CmdRequestRestart, r.onRequestRestart)
	b.OnCommand(bridge.CmdSaveProject, r.onSaveProject)

	b.HandleCall(bridge.CallGetStorageKey, r.getStorageKey)
	b.HandleCall(bridge.CallLoadProject, r.loadProject)
	b.HandleCall(bridge.CallListProjects, r.listProjects)
}

func (r *Runtime) invalidArgs(cmd string, err error) {
	r.logger.Warn("invalid command arguments", log.Command(cmd), log.Err(err))
}

func (r *Runtime) onQuit(context.Context, bridge.Args) {
	r.logger.Info("process has been stopped by the user")
	r.finish(ExitQuit)
}

func (r *Runtime) onSetStorageKey(_ context.Context, args bridge.Args) {
	key, err := args.String(0)
	if err != nil {
		r.invalidArgs(bridge.CmdSetStorageKey, err)
		return
	}
	value, err := args.Value(1)
	if err != nil {
		r.invalidArgs(bridge.CmdSetStorageKey, err)
		return
	}
	name, err := args.StringOr(2, string(store.General))
	if err != nil {
		r.invalidArgs(bridge.CmdSetStorageKey, err)
		return
	}
	target, err := store.ParseTarget(name)
	if err != nil {
		r.invalidArgs(bridge.CmdSetStorageKey, err)
		return
	}

	if err := r.stores.Set(key, value, target); err != nil {
		r.logger.Error("failed to store key", log.Path(key), log.String("target", string(target)), log.Err(err))
		return
	}
	r.logger.Debug("storage key set", log.Path(key), log.String("target", string(target)))
}

func (r *Runtime) getStorageKey(_ context.Context, args bridge.Args) (any, error) {
	key, err := args.String(0)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("retrieving storage entry", log.Path(key))
	v, _, err := r.stores.Get(key)
	return v, err
}

func (r *Runtime) onUpdateLanguage(_ context.Context, args bridge.Args) {
	id, err := args.String(0)
	if err != nil {
		r.invalidArgs(bridge.CmdUpdateLanguage, err)
		return
	}
	if err := r.stores.General.Set(LanguageKey, id); err != nil {
		r.logger.Error("failed to store language", log.String("language", id), log.Err(err))
	}
}

func (r *Runtime) onReportError(_ context.Context, args bridge.Args) {
	message, err := args.StringOr(0, "")
	if err != nil {
		raw, _ := args.Value(0)
		message = fmt.Sprint(raw)
	}
	report := &domain.FatalReport{Message: message}
	if !r.latch.Trip(report) {
		r.logger.Debug("dropping crash report, already crashing", log.String("message", message))
		return
	}

	r.logger.Error("ui reported an unhandled error", log.Err(report))
	r.lifecycle.Crash(report.Error())
	if err := r.opts.dialogs.Error(context.Background(), "Unhandled Error Exception", report.Message); err != nil {
		r.logger.Warn("crash dialog failed", log.Err(err))
	}
	r.finish(crashExit(report))
}

func (r *Runtime) onShowAppInfo(ctx context.Context, _ bridge.Args) {
	message := fmt.Sprintf("%s\nVersion: %s\nGo: %s\nPlatform: %s/%s",
		r.cfg.AppName, r.cfg.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if err := r.opts.dialogs.Info(ctx, "App Information "+r.cfg.AppName, message); err != nil {
		r.logger.Warn("app info dialog failed", log.Err(err))
	}
}

func (r *Runtime) onOpenURL(ctx context.Context, args bridge.Args) {
	raw, err := args.String(0)
	if err != nil {
		r.invalidArgs(bridge.CmdOpenURL, err)
		return
	}
	u, err := bridge.ValidateURL(raw)
	if err != nil {
		r.invalidArgs(bridge.CmdOpenURL, err)
		return
	}

	// Dialogs block; keep the dispatch loop free.
	r.lifecycle.Go(func() {
		ok, err := r.opts.dialogs.Confirm(ctx, Confirmation{
			Title:    "Open this link in your browser?",
			Message:  fmt.Sprintf("You are about to open the shown link below in your browser.\nDo you wish to continue?\n\n%q", u.String()),
			Agree:    "Open in Browser",
			Disagree: "Dismiss",
		})
		if err != nil || !ok {
			return
		}
		if err := r.opts.shell.OpenURL(ctx, u.String()); err != nil {
			r.logger.Error("failed to open url", log.String("url", u.String()), log.Err(err))
		}
	})
}

func (r *Runtime) onRequestRestart(ctx context.Context, args bridge.Args) {
	var opts bridge.RestartOptions
	if args.Has(0) {
		if err := args.Decode(0, &opts); err != nil {
			r.invalidArgs(bridge.CmdRequestRestart, err)
			return
		}
	}
	if !r.restarting.CompareAndSwap(false, true) {
		r.logger.Debug("restart dialog already open")
		return
	}
	r.lifecycle.Go(func() {
		defer r.restarting.Store(false)
		r.restart(ctx, opts)
	})
}

func (r *Runtime) restart(ctx context.Context, opts bridge.RestartOptions) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(r.cfg.RestartDelay):
	}

	title := r.translate(ctx, keyRestartTitle)
	message := r.translate(ctx, keyRestartMessage)
	onlyOnce := r.translate(ctx, keyRestartOnlyOnce)
	agree := r.translate(ctx, keyRestartAgree)
	disagree := r.translate(ctx, keyRestartDisagree)

	if !opts.Once {
		onlyOnce = ""
	}
	ok, err := r.opts.dialogs.Confirm(ctx, Confirmation{
		Title:    title,
		Message:  Format(message, onlyOnce),
		Agree:    agree,
		Disagree: disagree,
	})
	if err != nil {
		r.logger.Warn("restart dialog failed", log.Err(err))
		return
	}
	if !ok {
		return
	}

	args := append(append([]string(nil), r.cfg.Args...), RelaunchFlag)
	if err := r.opts.launcher.Relaunch(args); err != nil {
		r.logger.Error("relaunch failed", log.Err(err))
		return
	}
	r.finish(ExitRelaunch)
}

// translate resolves a translation id through the UI, falling back to
// "invalid" on any failure.
func (r *Runtime) translate(ctx context.Context, id string) string {
	s, err := r.bridge.RequestString(ctx, bridge.ActionTranslateContextID, id)
	if err != nil {
		r.logger.Warn("translation request failed", log.String("id", id), log.Err(err))
		return untranslated
	}
	if s == "" {
		return untranslated
	}
	return s
}

func (r *Runtime) onSaveProject(_ context.Context, args bridge.Args) {
	name, err := args.String(0)
	if err != nil {
		r.invalidArgs(bridge.CmdSaveProject, err)
		return
	}
	content, err := args.String(1)
	if err != nil {
		r.invalidArgs(bridge.CmdSaveProject, err)
		return
	}
	if err := r.projects.Save(name, content); err != nil {
		r.logger.Error("failed to save project", log.String("project", name), log.Err(err))
	}
}

func (r *Runtime) loadProject(_ context.Context, args bridge.Args) (any, error) {
	name, err := args.String(0)
	if err != nil {
		return nil, err
	}
	return r.projects.Load(name)
}

func (r *Runtime) listProjects(context.Context, bridge.Args) (any, error) {
	names, err := r.projects.List()
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
