package recommender

import (
	"reading-tree/backend/internal/model"
)

const (
	// DefaultCount is used when the request omits count
	DefaultCount = 9
	// MinCount and MaxCount bound the number of books returned
	MinCount = 1
	MaxCount = 12
	// overRequest is added to the count sent to the model to absorb parse and dedup loss
	overRequest = 4
	// maxRequestCount caps the caller's count before overRequest is added
	maxRequestCount = 100
)

// Desired clamps the caller's count to [MinCount, MaxCount]
func Desired(count int) int {
	return max(MinCount, min(count, MaxCount))
}

// RequestedN is the number of books asked of the model.
// The count is held to [MinCount, maxRequestCount] first, so the result is
// always between MinCount+overRequest and maxRequestCount+overRequest.
func RequestedN(count int) int {
	return min(max(count, MinCount), maxRequestCount) + overRequest
}

// Dedupe keeps the first record per title+author key, in order, up to desired records
func Dedupe(books []model.BookRecord, desired int) []model.BookRecord {
	seen := make(map[string]bool, len(books))
	result := make([]model.BookRecord, 0, min(len(books), desired))
	for _, b := range books {
		if len(result) >= desired {
			break
		}
		key := b.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, b)
	}
	return result
}
