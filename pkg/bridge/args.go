package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/bft-labs/appshell/internal/domain"
)

// Args are the positional arguments of a command or call.
type Args []json.RawMessage

// Len returns the number of arguments.
func (a Args) Len() int { return len(a) }

// Has reports whether argument i is present and not JSON null.
func (a Args) Has(i int) bool {
	return i < len(a) && string(a[i]) != "null"
}

// Decode unmarshals argument i into v. A missing argument is an error.
func (a Args) Decode(i int, v any) error {
	if i >= len(a) {
		return fmt.Errorf("%w: missing argument %d", domain.ErrInvalidMessage, i)
	}
	if err := json.Unmarshal(a[i], v); err != nil {
		return fmt.Errorf("%w: argument %d: %v", domain.ErrInvalidMessage, i, err)
	}
	return nil
}

// String decodes argument i as a string.
func (a Args) String(i int) (string, error) {
	var s string
	err := a.Decode(i, &s)
	return s, err
}

// StringOr decodes argument i as a string, returning def when it is absent.
func (a Args) StringOr(i int, def string) (string, error) {
	if !a.Has(i) {
		return def, nil
	}
	return a.String(i)
}

// Value decodes argument i into a generic JSON value.
func (a Args) Value(i int) (any, error) {
	var v any
	err := a.Decode(i, &v)
	return v, err
}
