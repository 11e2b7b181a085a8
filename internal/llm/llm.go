package llm

import (
	"context"
	"errors"
	"fmt"
)

// Completer abstracts chat-completion providers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is one system+user exchange.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
}

// ProviderError reports any failure talking to the completion provider:
// transport, non-2xx status, error envelope, or an unusable response body.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err carries a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("no completion provider configured")

// PlaceholderClient stands in when LLM_PROVIDER=none or credentials are missing.
type PlaceholderClient struct{}

// Complete always fails with ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return "", &ProviderError{Provider: "none", Message: ErrNotConfigured.Error(), Err: ErrNotConfigured}
}

var _ Completer = PlaceholderClient{}
