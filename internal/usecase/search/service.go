package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/reelsearch/internal/domain"
	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	domprofile "github.com/kailas-cloud/reelsearch/internal/domain/profile"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/request"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/result"
	"github.com/kailas-cloud/reelsearch/internal/usecase/classify"
	"github.com/kailas-cloud/reelsearch/internal/usecase/scoring"
)

// TimelineScore is the final score of entity timeline records: entity evidence
// without a semantic component.
const TimelineScore = scoring.EntityBoost

// Config tunes retrieval.
type Config struct {
	OverFetch        int // candidates fetched per requested result
	TimelinePageSize int // index page size when listing an entity's records
}

func (c Config) withDefaults() Config {
	if c.OverFetch <= 0 {
		c.OverFetch = 3
	}
	if c.TimelinePageSize <= 0 {
		c.TimelinePageSize = 1000
	}
	return c
}

// Service routes queries to the exact-id, entity-timeline, or hybrid path.
type Service struct {
	repo  Repository
	embed Embedder
	snaps SnapshotSource
	cfg   Config
	// unavailable is set when the index or embedder failed at startup.
	unavailable error
}

// New creates a search service.
func New(repo Repository, embed Embedder, snaps SnapshotSource, cfg Config) *Service {
	return &Service{repo: repo, embed: embed, snaps: snaps, cfg: cfg.withDefaults()}
}

// NewUnavailable creates a service that answers every query with cause.
// cause should wrap domain.ErrUnavailable.
func NewUnavailable(cause error, snaps SnapshotSource) *Service {
	return &Service{unavailable: cause, snaps: snaps}
}

// Available reports whether the index and embedder came up.
func (s *Service) Available() bool { return s.unavailable == nil }

// Search classifies the query and returns ranked results.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Response, error) {
	if s.unavailable != nil {
		return result.Response{}, s.unavailable
	}

	q := req.Query()
	if q == "" {
		return result.Response{Mode: mode.Semantic, MatchedEntities: []string{}, Results: []result.Ranked{}}, nil
	}

	snap := s.snaps.Current()
	isID := classify.IsIdentifierQuery(q)
	ext := classify.ExtractEntities(q, snap.Dictionary)

	if !isID && ext.Matched() && ext.Residual == "" {
		if p, ok := snap.Profiles.Resolve(ext.Entities[0]); ok && p.Tier() >= domprofile.TierAvatar {
			return s.timeline(ctx, req, ext.Entities, p)
		}
		// no usable profile: plain semantic search over the full query
		ext = classify.Extraction{Residual: q}
	}

	m := mode.Semantic
	switch {
	case isID:
		m = mode.ExactID
	case ext.Matched():
		m = mode.EntitySemantic
	}

	semantic := q
	if ext.Matched() && ext.Residual != "" {
		semantic = ext.Residual
	}

	results, err := s.hybrid(ctx, req, semantic, scoring.NewSignals(q, isID, ext.Entities))
	if err != nil {
		return result.Response{}, err
	}

	matched := ext.Entities
	if matched == nil {
		matched = []string{}
	}
	return result.Response{Mode: m, MatchedEntities: matched, Results: results}, nil
}

func (s *Service) hybrid(
	ctx context.Context, req request.Request, semantic string, sig scoring.Signals,
) ([]result.Ranked, error) {
	emb, err := s.embed.Embed(ctx, semantic)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	cands, err := s.repo.Nearest(ctx, emb.Embedding, req.Limit()*s.cfg.OverFetch)
	if err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}

	results := make([]result.Ranked, 0, len(cands))
	for _, c := range cands {
		r := scoring.Score(c.Record, c.Similarity, sig)
		if scoring.Accept(r, sig, req.Threshold()) {
			results = append(results, r)
		}
	}

	result.Sort(results)
	if len(results) > req.Limit() {
		results = results[:req.Limit()]
	}
	return results, nil
}

func (s *Service) timeline(
	ctx context.Context, req request.Request, entities []string, p domprofile.Profile,
) (result.Response, error) {
	recs, err := s.repo.ByEntity(ctx, entities[0], s.cfg.TimelinePageSize)
	if err != nil {
		return result.Response{}, fmt.Errorf("entity records: %w", err)
	}

	SortByRelease(recs)
	if len(recs) > req.Limit() {
		recs = recs[:req.Limit()]
	}

	results := make([]result.Ranked, 0, len(recs)+1)
	results = append(results, result.BioCard(p))
	for _, rec := range recs {
		results = append(results, result.FromRecord(rec, TimelineScore, 0))
	}
	return result.Response{Mode: mode.Timeline, MatchedEntities: entities, Results: results}, nil
}

// SortByRelease orders records newest first. Undated records go last; ties break on id.
func SortByRelease(recs []catalog.Record) {
	slices.SortStableFunc(recs, func(a, b catalog.Record) int {
		switch {
		case a.HasReleaseDate() && !b.HasReleaseDate():
			return -1
		case !a.HasReleaseDate() && b.HasReleaseDate():
			return 1
		}
		if c := b.ReleaseDate.Compare(a.ReleaseDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Profile resolves an entity's canonical profile by display or native name.
func (s *Service) Profile(_ context.Context, name string) (domprofile.Profile, error) {
	p, ok := s.snaps.Current().Profiles.Resolve(name)
	if !ok {
		return domprofile.Profile{}, fmt.Errorf("profile %q: %w", name, domain.ErrNotFound)
	}
	return p, nil
}
