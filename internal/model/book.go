package model

// BookRecord is a single recommendation extracted from the completion text
type BookRecord struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
}

// Key identifies a record for deduplication (title and author only)
func (b BookRecord) Key() string {
	return b.Title + "|" + b.Author
}

// RecommendationRequest is the body of POST /recommend
type RecommendationRequest struct {
	Prompt   string  `json:"prompt"`
	Count    *int    `json:"count,omitempty"`
	Language *string `json:"language,omitempty"`
}

// RecommendationResponse is the success envelope returned to the caller
type RecommendationResponse struct {
	Books []BookRecord `json:"books"`
}
