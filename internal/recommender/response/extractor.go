// Package response recovers book records from completion text that is
// supposed to be JSON but often is not.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"reading-tree/backend/internal/model"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrExtractionFailed is returned when no strategy recovered any record
var ErrExtractionFailed = errors.New("extraction failed")

// envelopeSchema accepts any object whose "books" member is an array.
// Items are checked leniently in decodeBooks.
const envelopeSchema = `{
	"type": "object",
	"required": ["books"],
	"properties": {
		"books": {"type": "array"}
	}
}`

var (
	// greedy: first "{" to last "}"
	jsonBlockRegex = regexp.MustCompile(`\{[\s\S]*\}`)
	// innermost brace-free spans, scanned by the loose strategy
	braceSpanRegex = regexp.MustCompile(`\{[^{}]*\}`)
	codeFenceRegex = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*(.*?)\\s*```\\s*$")
)

// looseField matches `"<name>" : "<non-empty value>"` with case-insensitive key
func looseField(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)"` + name + `"\s*:\s*"((?:[^"\\]|\\.)+)"`)
}

var (
	looseTitleRegex  = looseField("title")
	looseAuthorRegex = looseField("author")
	looseReasonRegex = looseField("reason")
)

// strategy is one fallible way of turning text into records
type strategy struct {
	name string
	run  func(text string) ([]model.BookRecord, error)
}

// Extractor runs the parsing strategies from strict to loose
type Extractor struct {
	schema     *jsonschema.Schema
	strategies []strategy
}

// NewExtractor compiles the envelope schema and builds the strategy chain
func NewExtractor() *Extractor {
	e := &Extractor{
		schema: jsonschema.MustCompileString("books-envelope.json", envelopeSchema),
	}
	e.strategies = []strategy{
		{name: "direct", run: e.parseEnvelope},
		{name: "repaired", run: func(text string) ([]model.BookRecord, error) {
			return e.parseEnvelope(Repair(text))
		}},
		{name: "largest-block", run: e.parseLargestBlock},
		{name: "loose", run: parseLoose},
	}
	return e
}

// Extract returns the records of the first strategy that succeeds.
// The returned slice may be empty when the text holds a well-formed but empty "books" array.
func (e *Extractor) Extract(text string) ([]model.BookRecord, error) {
	text = stripCodeFence(text)

	var errs []error
	for _, s := range e.strategies {
		books, err := s.run(text)
		if err == nil {
			return books, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}
	return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, errors.Join(errs...))
}

// parseEnvelope parses text as a JSON document shaped {"books": [...]}
func (e *Extractor) parseEnvelope(text string) ([]model.BookRecord, error) {
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	if err := e.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("unexpected shape: %w", err)
	}
	items := doc.(map[string]any)["books"].([]any)
	return decodeBooks(items), nil
}

func (e *Extractor) parseLargestBlock(text string) ([]model.BookRecord, error) {
	block := jsonBlockRegex.FindString(text)
	if block == "" {
		return nil, errors.New("no JSON block")
	}
	return e.parseEnvelope(Repair(block))
}

// parseLoose scrapes inline objects that carry title, author and reason in any order
func parseLoose(text string) ([]model.BookRecord, error) {
	var books []model.BookRecord
	for _, span := range braceSpanRegex.FindAllString(text, -1) {
		title, ok := looseValue(looseTitleRegex, span)
		if !ok {
			continue
		}
		author, ok := looseValue(looseAuthorRegex, span)
		if !ok {
			continue
		}
		reason, ok := looseValue(looseReasonRegex, span)
		if !ok {
			continue
		}
		books = append(books, model.BookRecord{Title: title, Author: author, Reason: reason})
	}
	if len(books) == 0 {
		return nil, errors.New("no inline book objects")
	}
	return books, nil
}

func looseValue(re *regexp.Regexp, span string) (string, bool) {
	m := re.FindStringSubmatch(span)
	if len(m) < 2 {
		return "", false
	}
	var decoded string
	if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &decoded); err != nil {
		return m[1], true
	}
	return decoded, true
}

// decodeBooks converts array items to records. Non-object items are skipped;
// missing fields become "".
func decodeBooks(items []any) []model.BookRecord {
	books := make([]model.BookRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		books = append(books, model.BookRecord{
			Title:  fieldString(obj["title"]),
			Author: fieldString(obj["author"]),
			Reason: fieldString(obj["reason"]),
		})
	}
	return books
}

func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// stripCodeFence removes a ```json ... ``` wrapper around the whole text
func stripCodeFence(text string) string {
	if m := codeFenceRegex.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return strings.TrimSpace(text)
}
