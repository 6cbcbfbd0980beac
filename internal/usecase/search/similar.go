package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/reelsearch/internal/domain"
	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/request"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/result"
)

// Similar streams the seed record, then every neighbor at or above the threshold
// in descending similarity, to emit. Returns the number of matches emitted.
// The seed vector is read once; the seed itself is never emitted as a match.
func (s *Service) Similar(ctx context.Context, req request.Similar, emit Emitter) (int, error) {
	if s.unavailable != nil {
		return 0, s.unavailable
	}

	seed, err := s.repo.Get(ctx, req.SeedID())
	if err != nil {
		return 0, fmt.Errorf("seed %q: %w", req.SeedID(), err)
	}
	if len(seed.Embedding) == 0 {
		return 0, fmt.Errorf("seed %q: %w", req.SeedID(), domain.ErrMissingVector)
	}

	if err := emit.Source(ctx, seed); err != nil {
		return 0, fmt.Errorf("emit source: %w", err)
	}

	cands, err := s.repo.Nearest(ctx, seed.Embedding, req.Limit()*s.cfg.OverFetch+1)
	if err != nil {
		return 0, fmt.Errorf("nearest: %w", err)
	}

	slices.SortStableFunc(cands, func(a, b catalog.Candidate) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ID, b.Record.ID)
	})

	count := 0
	for _, c := range cands {
		if count >= req.Limit() || c.Similarity < req.Threshold() {
			break
		}
		if catalog.SameID(c.Record.ID, seed.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if err := emit.Match(ctx, result.FromRecord(c.Record, c.Similarity, c.Similarity)); err != nil {
			return count, fmt.Errorf("emit match: %w", err)
		}
		count++
	}
	return count, nil
}

// SimilarResponse is the collected form of a similarity stream.
type SimilarResponse struct {
	Source  catalog.Record
	Results []result.Ranked
}

// SimilarBatch runs Similar and collects the stream.
func (s *Service) SimilarBatch(ctx context.Context, req request.Similar) (SimilarResponse, error) {
	c := &collector{}
	if _, err := s.Similar(ctx, req, c); err != nil {
		return SimilarResponse{}, err
	}
	if c.results == nil {
		c.results = []result.Ranked{}
	}
	return SimilarResponse{Source: c.source, Results: c.results}, nil
}

type collector struct {
	source  catalog.Record
	results []result.Ranked
}

func (c *collector) Source(_ context.Context, seed catalog.Record) error {
	c.source = seed
	return nil
}

func (c *collector) Match(_ context.Context, r result.Ranked) error {
	c.results = append(c.results, r)
	return nil
}

// IsClientGone reports whether err came from the caller going away.
func IsClientGone(err error) bool {
	return errors.Is(err, context.Canceled)
}
