// Package bridge implements the message protocol between the host process
// and the sandboxed UI process.
//
// Both processes talk over a [Channel]: one asynchronous, one-way-per-direction
// stream of [Envelope] values. Three traffic shapes are multiplexed on it:
//
//   - Command (UI to host): a named, fire-and-forget message. See [Client.Send]
//     and [Host.OnCommand].
//   - Call (UI to host): a named message whose handler returns a value to the
//     caller. See [Client.Call] and [Host.HandleCall].
//   - Request (host to UI): a correlated request answered by a locally
//     registered UI action handler, bounded by a timeout. See [Host.Request]
//     and [Client.HandleAction].
//
// Calls and requests are matched to their replies through a request table
// keyed by random correlation ids. Entries are removed on reply, timeout,
// context cancellation and channel close, so repeated timeouts never grow the
// table.
//
// Incoming commands, calls and requests are dispatched one at a time, in
// arrival order, on a dispatch goroutine. Replies are matched on the read
// goroutine, so a handler may itself issue a [Host.Request] and wait for it.
//
// # Usage
//
//	hostCh, uiCh := bridge.Pipe()
//	host := bridge.NewHost(hostCh, bridge.WithTimeout(8*time.Second))
//	ui := bridge.NewClient(uiCh)
//
//	ui.HandleAction("translateContextId", func(v any) any { return translate(v) })
//	go host.Serve(ctx)
//	go ui.Serve(ctx)
//
//	title, err := host.RequestString(ctx, "translateContextId", "ipc.requestRestart.title")
package bridge
