package handler

import (
	"strings"

	"reading-tree/backend/internal/model"
	"reading-tree/backend/internal/recommender/prompt"

	"github.com/gin-gonic/gin"
)

// determineLanguage determines the prompt language from request body and Accept-Language header
// Priority: 1. Request body language field, 2. Accept-Language header, 3. Default (en)
func determineLanguage(req model.RecommendationRequest, c *gin.Context) string {
	if req.Language != nil && *req.Language != "" {
		lang := normalizeLanguage(*req.Language)
		if prompt.IsSupportedLanguage(lang) {
			return lang
		}
	}

	if acceptLang := c.GetHeader("Accept-Language"); acceptLang != "" {
		if lang := parseAcceptLanguage(acceptLang); lang != "" {
			return lang
		}
	}

	return prompt.LanguageEnglish
}

// normalizeLanguage extracts the base language code (e.g., "ko-KR" -> "ko")
func normalizeLanguage(lang string) string {
	if idx := strings.Index(lang, "-"); idx != -1 {
		return strings.ToLower(lang[:idx])
	}
	return strings.ToLower(lang)
}

// parseAcceptLanguage returns the first supported language in header order
// Example: "ko-KR,ko;q=0.9,en-US;q=0.8" -> "ko"
func parseAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		// Remove quality value (e.g., ";q=0.9")
		lang := strings.TrimSpace(strings.Split(part, ";")[0])
		normalized := normalizeLanguage(lang)
		if prompt.IsSupportedLanguage(normalized) {
			return normalized
		}
	}
	return ""
}
