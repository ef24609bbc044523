package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// CompletionRequest is a single-prompt completion call.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider to constrain output to a JSON object when supported.
	JSON bool
}

// Completer is the transport-level contract each provider package implements.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string
	// Model returns the model identifier sent to the provider.
	Model() string
}

// ClassifyTransportError maps transport-level errors to sentinel errors.
func ClassifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
