package prompt

import (
	"fmt"
)

// Supported response languages
const (
	LanguageEnglish = "en"
	LanguageKorean  = "ko"
)

// Builder constructs prompts for the completion service
type Builder struct{}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildSystemPrompt creates the fixed system instruction asking for at most requestedN books
func (b *Builder) BuildSystemPrompt(requestedN int, language string) string {
	if language == LanguageKorean {
		return fmt.Sprintf(SystemPromptKo, requestedN)
	}
	return fmt.Sprintf(SystemPromptEn, requestedN)
}

// IsSupportedLanguage reports whether a system prompt exists for the language
func IsSupportedLanguage(language string) bool {
	return language == LanguageEnglish || language == LanguageKorean
}
