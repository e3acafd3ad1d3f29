package engine

import "context"

// GenerationRequest is the provider-agnostic request for one completion:
// exactly one system message followed by one user message.
type GenerationRequest struct {
	System string // System instructions (condense or analyze mode)
	User   string // The content being summarized or analyzed
}

// Client is the minimal surface the dispatcher needs from a generation
// endpoint. Implementations live in internal/providers.
type Client interface {
	// Generate performs a single synchronous completion request.
	// Returns the generated text, or an error for network failures,
	// timeouts, malformed responses, and service-reported errors alike.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// Payload is what callers hand to the dispatcher: system instructions plus
// the content they apply to.
type Payload struct {
	System  string
	Content string
}

// Sender abstracts the dispatcher for the condenser (and for tests).
type Sender interface {
	Send(ctx context.Context, p Payload) (string, error)
}
