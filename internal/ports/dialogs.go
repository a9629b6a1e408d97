package ports

import "context"

// Confirmation describes a two-button confirmation dialog.
type Confirmation struct {
	Title    string
	Message  string
	Agree    string
	Disagree string
}

// Dialogs shows modal dialogs to the user. Every method blocks until the
// user dismisses the dialog or ctx is done.
type Dialogs interface {
	// Info shows an informational message.
	Info(ctx context.Context, title, message string) error

	// Error shows an error message.
	Error(ctx context.Context, title, message string) error

	// Confirm asks the user to agree or disagree. It returns true on agree.
	Confirm(ctx context.Context, c Confirmation) (bool, error)
}
