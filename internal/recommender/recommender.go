package recommender

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"reading-tree/backend/internal/model"
	"reading-tree/backend/internal/recommender/deps"
	"reading-tree/backend/internal/recommender/prompt"
	"reading-tree/backend/internal/recommender/response"

	"github.com/avast/retry-go/v4"
)

const (
	// MaxAttempts is the number of completion calls made per request at most
	MaxAttempts = 3
	// Temperature keeps the model close to deterministic
	Temperature float32 = 0.3
	// MaxOutputTokens caps each completion
	MaxOutputTokens int32 = 600
	// DefaultAttemptTimeout bounds a single completion call
	DefaultAttemptTimeout = 30 * time.Second
)

// errNoBooks marks an attempt that parsed cleanly but held an empty list
var errNoBooks = errors.New("empty books list")

// Options tunes the attempt loop
type Options struct {
	AttemptTimeout time.Duration
	RetryDelay     time.Duration
}

// Recommender drives completion calls and turns their text into a bounded book list
type Recommender struct {
	llmClient     deps.LLMClient
	promptBuilder *prompt.Builder
	extractor     *response.Extractor
	opts          Options
}

// New creates a Recommender on top of an LLM client
func New(llmClient deps.LLMClient, opts Options) *Recommender {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	return &Recommender{
		llmClient:     llmClient,
		promptBuilder: prompt.NewBuilder(),
		extractor:     response.NewExtractor(),
		opts:          opts,
	}
}

// Query is a validated recommendation request
type Query struct {
	Prompt   string
	Count    int
	Language string
}

// Recommend returns up to Desired(q.Count) unique books for the prompt
func (r *Recommender) Recommend(ctx context.Context, q Query) (*model.RecommendationResponse, error) {
	userPrompt := strings.TrimSpace(q.Prompt)
	if userPrompt == "" {
		return nil, ErrEmptyPrompt
	}

	desired := Desired(q.Count)
	requestedN := RequestedN(q.Count)
	req := deps.CompletionRequest{
		System:          r.promptBuilder.BuildSystemPrompt(requestedN, q.Language),
		User:            userPrompt,
		Temperature:     Temperature,
		MaxOutputTokens: MaxOutputTokens,
		JSONOutput:      true,
	}

	books, attempts, err := r.collect(ctx, req)
	if err != nil {
		return nil, err
	}

	unique := Dedupe(books, desired)
	log.Printf("[RECOMMEND] attempts=%d extracted=%d returned=%d desired=%d", attempts, len(books), len(unique), desired)
	return &model.RecommendationResponse{Books: unique}, nil
}

// collect runs the attempt loop. It stops at the first attempt yielding books,
// continues past extraction failures, and aborts on service failures.
func (r *Recommender) collect(ctx context.Context, req deps.CompletionRequest) ([]model.BookRecord, int, error) {
	attempt := 0
	books, err := retry.DoWithData(
		func() ([]model.BookRecord, error) {
			attempt++
			text, err := r.complete(ctx, req)
			if err != nil {
				return nil, &ServiceError{Attempt: attempt, Err: err}
			}

			books, err := r.extractor.Extract(text)
			if err != nil {
				log.Printf("[EXTRACT] Parse failed on attempt %d/%d: %v", attempt, MaxAttempts, err)
				return nil, err
			}
			if len(books) == 0 {
				log.Printf("[EXTRACT] Attempt %d/%d returned an empty list", attempt, MaxAttempts)
				return nil, errNoBooks
			}
			return books, nil
		},
		retry.Context(ctx),
		retry.Attempts(MaxAttempts),
		retry.Delay(r.opts.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRecoverable),
	)
	if err == nil {
		return books, attempt, nil
	}
	if isRecoverable(err) {
		return nil, attempt, fmt.Errorf("%w after %d attempts", ErrExtractionExhausted, attempt)
	}
	return nil, attempt, err
}

// complete performs one completion call under its own timeout
func (r *Recommender) complete(ctx context.Context, req deps.CompletionRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.opts.AttemptTimeout)
	defer cancel()

	start := time.Now()
	text, err := r.llmClient.GenerateContent(attemptCtx, req)
	log.Printf("[PERF] Completion took %v", time.Since(start))
	return text, err
}

func isRecoverable(err error) bool {
	return errors.Is(err, response.ErrExtractionFailed) || errors.Is(err, errNoBooks)
}
