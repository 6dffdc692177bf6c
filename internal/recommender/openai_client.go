package recommender

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"reading-tree/backend/internal/recommender/deps"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultOpenAIModel is the chat model used when none is configured
	DefaultOpenAIModel   = "gpt-4o-mini"
	defaultOpenAITimeout = 60 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI chat client.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string        // Optional (tests, compatible gateways)
	MaxRetries int           // SDK transport retries; 0 disables
	Timeout    time.Duration // HTTP timeout
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAILLMClient implements deps.LLMClient using the OpenAI chat completions API.
type OpenAILLMClient struct {
	client openai.Client
	model  string
}

// NewOpenAILLMClient creates a new OpenAI chat client.
func NewOpenAILLMClient(cfg OpenAIConfig) *OpenAILLMClient {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultOpenAITimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAILLMClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// GenerateContent sends a system + user message pair and returns the first choice's content.
func (c *OpenAILLMClient) GenerateContent(ctx context.Context, req deps.CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(float64(req.Temperature)),
		MaxTokens:   openai.Int(int64(req.MaxOutputTokens)),
	}
	if req.JSONOutput {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// mapOpenAIError keeps the SDK error in the chain while adding the status to the message.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI chat error (status %d): %s: %w", apiErr.StatusCode, apiErr.Message, err)
		}
		return fmt.Errorf("OpenAI chat error (status %d): %w", apiErr.StatusCode, err)
	}
	return err
}
