// Package catalog holds the searchable media records owned by the external index.
package catalog

import (
	"strings"
	"time"
)

// Record is one searchable catalog item. Records are read-only to the search core.
type Record struct {
	ID              string
	Title           string
	NativeTitle     string
	ReleaseDate     time.Time // zero when unknown
	DurationMinutes int
	EntityNames     []string
	ImageURL        string
	Embedding       []float32
}

// HasReleaseDate reports whether the release date is known.
func (r *Record) HasReleaseDate() bool { return !r.ReleaseDate.IsZero() }

// Candidate is a record returned by nearest-neighbor search with its similarity in [0,1].
type Candidate struct {
	Record     Record
	Similarity float64
}

// NormalizeID lowercases an identifier and strips hyphen and space separators,
// so "SSIS-001", "ssis 001" and "SSIS001" compare equal.
func NormalizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range strings.ToLower(strings.TrimSpace(id)) {
		if r == '-' || r == ' ' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SameID reports case- and separator-insensitive identity of two identifiers.
func SameID(a, b string) bool {
	return NormalizeID(a) == NormalizeID(b)
}
