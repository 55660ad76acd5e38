package service

import (
	"context"
	"fmt"

	"valuescout/internal/model"
)

// AIClient is the interface for text-generation backends
type AIClient interface {
	// Generate issues a single prompt and returns the raw text plus any grounding citations
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsEnabled returns whether a credential is currently available
	IsEnabled() bool
}

// Embedder turns text into vectors for the similar-missions lookup
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerateRequest describes one generation call
type GenerateRequest struct {
	Prompt string

	// JSONOutput asks the backend for a JSON response body
	JSONOutput bool

	// Grounding enables live web-search grounding
	Grounding bool
}

// GenerateResponse is the raw backend output
type GenerateResponse struct {
	Text string

	// Citations are the unfiltered grounding chunks, in backend order
	Citations []model.Source
}

// BackendError is a failure reported by the backend with an HTTP status.
// StatusCode is 0 when the transport had no status to report.
type BackendError struct {
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Ensure GeminiClient implements AIClient
var _ AIClient = (*GeminiClient)(nil)

// Ensure GeminiEmbedder implements Embedder
var _ Embedder = (*GeminiEmbedder)(nil)
