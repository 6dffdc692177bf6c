package deps

import (
	"context"
)

// CompletionRequest carries everything a provider needs for one completion call
type CompletionRequest struct {
	System          string
	User            string
	Temperature     float32
	MaxOutputTokens int32
	// JSONOutput asks the provider to constrain output to a JSON object, where supported
	JSONOutput bool
}

// LLMClient abstracts the completion service
type LLMClient interface {
	GenerateContent(ctx context.Context, req CompletionRequest) (string, error)
}
