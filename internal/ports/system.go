package ports

import "context"

// Shell opens resources with the desktop's default handler.
type Shell interface {
	OpenURL(ctx context.Context, url string) error
}

// Launcher starts a fresh copy of the current program.
type Launcher interface {
	// Relaunch starts the program again with args. The caller exits afterwards.
	Relaunch(args []string) error
}

// ProjectRepository persists user projects by name.
type ProjectRepository interface {
	Save(name, content string) error

	// Load returns domain.ErrProjectNotFound when name was never saved.
	Load(name string) (string, error)

	// List returns the saved project names in sorted order.
	List() ([]string, error)
}
