// Package intent classifies caller utterances for scheduling intent.
package intent

import "strings"

// Detector matches text against a configured disjunction of scheduling
// keywords. It holds no mutable state and is safe for concurrent use.
type Detector struct {
	keywords []string
}

// DefaultKeywords is the baseline scheduling vocabulary
var DefaultKeywords = []string{"schedule", "book", "meeting", "demo", "calendar"}

// NewDetector creates a detector for the given keywords.
// Keywords are matched case-insensitively; an empty list falls back to
// DefaultKeywords.
func NewDetector(keywords []string) *Detector {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultKeywords...)
	}
	return &Detector{keywords: normalized}
}

// Detect reports whether text contains any configured scheduling keyword
func (d *Detector) Detect(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, kw := range d.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Keywords returns the normalized keyword list
func (d *Detector) Keywords() []string {
	out := make([]string, len(d.keywords))
	copy(out, d.keywords)
	return out
}
