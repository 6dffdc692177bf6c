package recommender

import (
	"context"
	"fmt"
	"strings"

	"reading-tree/backend/internal/recommender/deps"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the Gemini model used when none is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiLLMClient implements deps.LLMClient using the Gemini API
type GeminiLLMClient struct {
	client *genai.Client
	model  string
}

// GeminiConfig configures the Gemini adapter. BaseURL is optional and points
// the client at a gateway or a local test server.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewGeminiLLMClient creates a new GeminiLLMClient
func NewGeminiLLMClient(ctx context.Context, cfg GeminiConfig) (*GeminiLLMClient, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiLLMClient{
		client: client,
		model:  model,
	}, nil
}

// GenerateContent generates content using the Gemini API
func (c *GeminiLLMClient) GenerateContent(ctx context.Context, req deps.CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxOutputTokens,
		// 2.5 models think by default and thoughts count against MaxOutputTokens
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.User}},
		},
	}, config)
	if err != nil {
		return "", err
	}

	// Concatenate text parts, skipping thought summaries
	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}

	return sb.String(), nil
}
