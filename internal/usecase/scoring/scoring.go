// Package scoring fuses vector similarity with symbolic evidence into a rank score.
package scoring

import (
	"strings"

	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/result"
)

// Boost weights and threshold policy.
const (
	IdentifierBoost = 2.0
	EntityBoost     = 1.5
	KeywordWeight   = 0.15
	// LooseOffset relaxes the semantic bar when symbolic evidence exists.
	LooseOffset = 0.15
	// StrongEvidence accepts a candidate regardless of similarity.
	StrongEvidence = 1.0
)

// Signals is the per-query symbolic evidence, computed once and reused per candidate.
type Signals struct {
	identifier   bool
	normalizedID string
	entities     []string // folded
	tokens       []string // lowercased query tokens
}

// NewSignals derives scoring signals from the raw query and classifier output.
func NewSignals(query string, identifier bool, entities []string) Signals {
	s := Signals{
		identifier: identifier,
		tokens:     strings.Fields(strings.ToLower(query)),
	}
	if identifier {
		s.normalizedID = catalog.NormalizeID(query)
	}
	for _, e := range entities {
		if f := entity.Fold(e); f != "" {
			s.entities = append(s.entities, f)
		}
	}
	return s
}

// Symbolic reports whether the query carries identifier or entity evidence.
func (s Signals) Symbolic() bool {
	return s.identifier || len(s.entities) > 0
}

// Score computes final = sim + boosts for one candidate. Keyword overlap only
// applies to non-identifier queries.
func Score(rec catalog.Record, sim float64, s Signals) result.Ranked {
	boost := 0.0

	if s.identifier && s.normalizedID != "" &&
		strings.Contains(catalog.NormalizeID(rec.ID), s.normalizedID) {
		boost += IdentifierBoost
	}

	if len(s.entities) > 0 && hasAnyEntity(rec, s.entities) {
		boost += EntityBoost
	}

	// an identifier query's only token is the identifier itself, already counted above
	if !s.identifier && len(s.tokens) > 0 {
		blob := strings.ToLower(rec.Title + " " + rec.NativeTitle + " " + rec.ID)
		matched := 0
		for _, tok := range s.tokens {
			if strings.Contains(blob, tok) {
				matched++
			}
		}
		boost += KeywordWeight * float64(matched) / float64(len(s.tokens))
	}

	return result.FromRecord(rec, sim+boost, sim)
}

// Accept applies the two-tier threshold. Symbolic queries pass on strong final
// score or a looser semantic bar; pure semantic queries need sim above threshold.
func Accept(r result.Ranked, s Signals, threshold float64) bool {
	if s.Symbolic() {
		return r.FinalScore() > StrongEvidence || r.SemanticScore() > threshold-LooseOffset
	}
	return r.SemanticScore() > threshold
}

func hasAnyEntity(rec catalog.Record, folded []string) bool {
	names := entity.Fold(strings.Join(rec.EntityNames, ", "))
	for _, e := range folded {
		if strings.Contains(names, e) {
			return true
		}
	}
	return false
}
