// Package host runs the privileged side of an appshell application.
//
// The host owns the durable stores, shows dialogs and controls the process.
// The UI process reaches it only through the bridge: it sends commands
// (quit, set-storage-key, report-error, ...) and calls (get-storage-key,
// load-project), and answers the host's correlated requests such as
// translateContextId.
//
// # Basic Usage
//
//	stores := store.Targets{General: general, Process: process}
//	rt, err := host.New(host.Config{DataDir: dir}, stores, ch,
//	    host.WithDialogs(dialogs),
//	    host.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := rt.Start(ctx); err != nil {
//	    return err
//	}
//	<-rt.Done()
//	os.Exit(rt.Exit().Code)
//
// # Exit Codes
//
// The runtime decides how the process should end and reports it through
// [Runtime.Exit]; it never calls os.Exit itself.
//
//   - quit: 0
//   - UI disconnected: 0
//   - crash report acknowledged: 1
//   - relaunch: 1, after the new process was started
//
// # Crash Reports
//
// report-error is gated by a [CrashLatch]: the first report shows one error
// dialog and ends the runtime, later reports are dropped.
//
// # Plugins
//
// Plugins are initialized in registration order when the runtime starts and
// shut down in reverse order when it stops. See [Plugin].
package host
