package result

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	"github.com/kailas-cloud/reelsearch/internal/domain/profile"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/mode"
)

// BioCardScore is the sentinel score that keeps a bio card above every real result.
const BioCardScore = 999.0

// Ranked is a scored result: either a catalog record or a bio card carrying a profile.
type Ranked struct {
	isBio         bool
	record        catalog.Record
	profile       profile.Profile
	finalScore    float64
	semanticScore float64
}

// FromRecord creates a record result.
func FromRecord(rec catalog.Record, finalScore, semanticScore float64) Ranked {
	return Ranked{record: rec, finalScore: finalScore, semanticScore: semanticScore}
}

// BioCard creates the synthetic profile card placed ahead of an entity timeline.
func BioCard(p profile.Profile) Ranked {
	return Ranked{isBio: true, profile: p, finalScore: BioCardScore}
}

// IsBio reports whether this result is a bio card.
func (r Ranked) IsBio() bool { return r.isBio }

// Record returns the catalog record. Zero for bio cards.
func (r Ranked) Record() catalog.Record { return r.record }

// Profile returns the canonical profile. Zero for record results.
func (r Ranked) Profile() profile.Profile { return r.profile }

// FinalScore returns similarity plus symbolic boosts.
func (r Ranked) FinalScore() float64 { return r.finalScore }

// SemanticScore returns the raw vector similarity.
func (r Ranked) SemanticScore() float64 { return r.semanticScore }

// Response is a batch search answer.
type Response struct {
	Mode            mode.Mode
	MatchedEntities []string
	Results         []Ranked
}

// Sort orders results by final score descending, then semantic score descending,
// then record identifier ascending for a stable order.
func Sort(rs []Ranked) {
	slices.SortStableFunc(rs, func(a, b Ranked) int {
		if c := cmp.Compare(b.finalScore, a.finalScore); c != 0 {
			return c
		}
		if c := cmp.Compare(b.semanticScore, a.semanticScore); c != 0 {
			return c
		}
		return cmp.Compare(a.record.ID, b.record.ID)
	})
}
