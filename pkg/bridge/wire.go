package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/bft-labs/appshell/internal/domain"
)

// Kind is the traffic class of an envelope.
type Kind string

const (
	KindCommand Kind = "command"
	KindCall    Kind = "call"
	KindRequest Kind = "request"
	KindReply   Kind = "reply"
)

// Envelope is the unit carried by a Channel.
type Envelope struct {
	Version string            `json:"v"`
	Kind    Kind              `json:"kind"`
	Name    string            `json:"name,omitempty"`
	ID      string            `json:"id,omitempty"`
	Args    []json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Validate checks an envelope received from the other process. It is the
// only place where the shape of peer input is trusted or rejected.
func (e Envelope) Validate() error {
	if !isVersionCompatible(e.Version, MinCompatibleVersion) {
		return fmt.Errorf("%w: protocol version %q not compatible with %s",
			domain.ErrInvalidMessage, e.Version, MinCompatibleVersion)
	}
	switch e.Kind {
	case KindCommand:
		if e.Name == "" {
			return fmt.Errorf("%w: command without name", domain.ErrInvalidMessage)
		}
	case KindCall, KindRequest:
		if e.Name == "" {
			return fmt.Errorf("%w: %s without name", domain.ErrInvalidMessage, e.Kind)
		}
		if e.ID == "" {
			return fmt.Errorf("%w: %s %q without id", domain.ErrInvalidMessage, e.Kind, e.Name)
		}
	case KindReply:
		if e.ID == "" {
			return fmt.Errorf("%w: reply without id", domain.ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidMessage, e.Kind)
	}
	return nil
}

// DecodeEnvelope unmarshals one envelope as read from a Channel's transport.
// Malformed input yields an error wrapping ErrInvalidMessage; the read loop
// skips such messages instead of stopping.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", domain.ErrInvalidMessage, err)
	}
	return env, nil
}

// encodeArgs marshals positional arguments.
func encodeArgs(args []any) ([]json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode argument %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}
