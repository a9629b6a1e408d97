// Package ports defines the interfaces that connect the host runtime to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [Dialogs]: Modal information, error and confirmation dialogs
//   - [Shell]: Opening URLs with the desktop's default handler
//   - [Launcher]: Relaunching the current program
//   - [ProjectRepository]: Saving and loading user projects
//
// # Usage
//
// The host runtime (pkg/host) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (terminal prompts, os/exec, the filesystem).
package ports
