package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"reading-tree/backend/internal/middleware"
	"reading-tree/backend/internal/model"
	"reading-tree/backend/internal/recommender"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/unicode/norm"
)

// Recommender is the core pipeline the handler drives
type Recommender interface {
	Recommend(ctx context.Context, q recommender.Query) (*model.RecommendationResponse, error)
}

// RecommendHandler serves POST /recommend
type RecommendHandler struct {
	recommender    Recommender
	maxPromptRunes int
}

// NewRecommendHandler creates a handler bound to a recommender
func NewRecommendHandler(r Recommender, maxPromptRunes int) *RecommendHandler {
	return &RecommendHandler{
		recommender:    r,
		maxPromptRunes: maxPromptRunes,
	}
}

func (h *RecommendHandler) HandleRecommend(c *gin.Context) {
	startTime := time.Now()
	requestID := c.GetString(middleware.RequestIDKey)

	var req model.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Invalid request body",
			"code":   "INVALID_REQUEST",
		})
		return
	}

	// Normalize Unicode to NFC form before length checks
	prompt := norm.NFC.String(strings.TrimSpace(req.Prompt))
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "Prompt is empty",
			"code":   "EMPTY_PROMPT",
		})
		return
	}
	if h.maxPromptRunes > 0 && utf8.RuneCountInString(prompt) > h.maxPromptRunes {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": fmt.Sprintf("Prompt is too long (max %d characters)", h.maxPromptRunes),
			"code":   "PROMPT_TOO_LONG",
		})
		return
	}

	count := recommender.DefaultCount
	if req.Count != nil {
		count = *req.Count
	}
	language := determineLanguage(req, c)

	resp, err := h.recommender.Recommend(c.Request.Context(), recommender.Query{
		Prompt:   prompt,
		Count:    count,
		Language: language,
	})
	if err != nil {
		if errors.Is(err, recommender.ErrEmptyPrompt) {
			c.JSON(http.StatusBadRequest, gin.H{
				"detail": "Prompt is empty",
				"code":   "EMPTY_PROMPT",
			})
			return
		}

		logFailure(requestID, err)
		log.Printf("[PERF] Recommendation failed after %v", time.Since(startTime))
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": "Recommendation failed: " + err.Error(),
			"code":   "RECOMMENDATION_FAILED",
		})
		return
	}

	log.Printf("[PERF] req=%s Recommendation completed in %v (books=%d)", requestID, time.Since(startTime), len(resp.Books))
	c.JSON(http.StatusOK, resp)
}

// logFailure records which terminal case ended the request.
// The caller sees one failure class either way.
func logFailure(requestID string, err error) {
	var svcErr *recommender.ServiceError
	switch {
	case errors.As(err, &svcErr):
		if recommender.IsQuotaError(err) {
			log.Printf("[QUOTA] req=%s Completion service rate limit exceeded: %v", requestID, err)
			return
		}
		log.Printf("[SERVICE] req=%s Completion service error on attempt %d: %v", requestID, svcErr.Attempt, svcErr.Err)
	case errors.Is(err, recommender.ErrExtractionExhausted):
		log.Printf("[EXTRACT] req=%s Extraction exhausted: %v", requestID, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Printf("[TIMEOUT] req=%s Recommendation aborted: %v", requestID, err)
	default:
		log.Printf("[ERROR] req=%s Recommendation failed: %v", requestID, err)
	}
}
