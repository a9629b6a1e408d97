package bridge

import (
	"strings"

	"github.com/google/uuid"
)

// NewCorrelationID returns a fresh random token (a version 4 UUID rendered as
// 32 hex characters). Tokens are unpredictable within a process lifetime but
// carry no uniqueness guarantee across restarts.
func NewCorrelationID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(u.String(), "-", ""), nil
}
