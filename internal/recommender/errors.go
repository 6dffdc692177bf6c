package recommender

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrEmptyPrompt is returned before any service call when the prompt is blank
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrExtractionExhausted is returned when every attempt produced zero records
	ErrExtractionExhausted = errors.New("no books could be extracted from any attempt")
)

// ServiceError wraps a failure of the completion service itself.
// These are not retried by the attempt loop.
type ServiceError struct {
	Attempt int
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion service failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsQuotaError checks if the error is a provider rate limit / quota error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) && genaiErr.Code == http.StatusTooManyRequests {
		return true
	}
	var genaiErrPtr *genai.APIError
	if errors.As(err, &genaiErrPtr) && genaiErrPtr.Code == http.StatusTooManyRequests {
		return true
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) && openaiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	// Check for gRPC ResourceExhausted status
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	// String matching as fallback for wrapped transport errors
	errStr := err.Error()
	return strings.Contains(errStr, "ResourceExhausted") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota")
}
