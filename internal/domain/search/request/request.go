package request

import (
	"math"
	"strings"
)

// Search parameter limits.
const (
	// MaxQueryLength caps the query text; longer input is truncated.
	MaxQueryLength   = 1024
	DefaultLimit     = 20
	MaxLimit         = 100
	DefaultThreshold = 0.65
)

// Request is a normalized search query. Out-of-range numbers are clamped, never rejected.
type Request struct {
	query     string
	limit     int
	threshold float64
}

// New normalizes search parameters: limit <= 0 becomes DefaultLimit, limit above
// MaxLimit is capped, threshold is clamped to [0, 1].
func New(query string, limit int, threshold float64) Request {
	return Request{
		query:     clampQuery(query),
		limit:     clampLimit(limit),
		threshold: clampThreshold(threshold),
	}
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Threshold returns the user similarity threshold.
func (r *Request) Threshold() float64 { return r.threshold }

// Similar is a normalized seed-based similarity query.
type Similar struct {
	seedID    string
	limit     int
	threshold float64
}

// NewSimilar normalizes similarity parameters with the same rules as New.
func NewSimilar(seedID string, limit int, threshold float64) Similar {
	return Similar{
		seedID:    strings.TrimSpace(seedID),
		limit:     clampLimit(limit),
		threshold: clampThreshold(threshold),
	}
}

// SeedID returns the catalog identifier of the seed record.
func (s *Similar) SeedID() string { return s.seedID }

// Limit returns the maximum neighbors to emit.
func (s *Similar) Limit() int { return s.limit }

// Threshold returns the minimum semantic score of an emitted neighbor.
func (s *Similar) Threshold() float64 { return s.threshold }

func clampQuery(q string) string {
	q = strings.TrimSpace(q)
	if len(q) > MaxQueryLength {
		// cut on a rune boundary
		q = strings.ToValidUTF8(q[:MaxQueryLength], "")
	}
	return q
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

func clampThreshold(t float64) float64 {
	if math.IsNaN(t) {
		return DefaultThreshold
	}
	return min(max(t, 0), 1)
}
