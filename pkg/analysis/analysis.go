// Package analysis wraps the external text-analysis service behind a
// small completion interface. Callers treat the service as opaque
// text-in/text-out; its JSON output is untrusted input and is decoded
// with typed per-field defaults rather than blind unmarshalling.
package analysis

import (
	"context"
	"errors"
)

// Request describes a single completion call. Schema, when set, asks
// the service to constrain its output to the given JSON schema.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
	SchemaName  string
	Schema      any
}

// Completer is the text-analysis service. Implementations must return
// an error for transport or service failures; callers apply their own
// fallback policy and never abort a pipeline on a single failed call.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = errors.New("analysis service disabled")

// Disabled is a Completer that always fails, forcing every caller onto
// its deterministic fallback path. Used when no API key is configured.
type Disabled struct{}

func (Disabled) Complete(ctx context.Context, req Request) (string, error) {
	return "", ErrDisabled
}
