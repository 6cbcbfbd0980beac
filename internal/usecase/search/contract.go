package search

import (
	"context"

	"github.com/kailas-cloud/reelsearch/internal/domain"
	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/result"
	"github.com/kailas-cloud/reelsearch/internal/usecase/snapshot"
)

// Repository defines the catalog contract for search operations.
type Repository interface {
	// Nearest returns up to k candidates ordered by descending similarity.
	Nearest(ctx context.Context, vector []float32, k int) ([]catalog.Candidate, error)
	// ByEntity returns every record whose entity names contain the entity.
	ByEntity(ctx context.Context, name string, pageSize int) ([]catalog.Record, error)
	// Get loads one record, including its embedding.
	Get(ctx context.Context, id string) (catalog.Record, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// SnapshotSource provides the current entity snapshot.
type SnapshotSource interface {
	Current() *snapshot.Snapshot
}

// Emitter receives a similarity stream as it is produced.
type Emitter interface {
	Source(ctx context.Context, seed catalog.Record) error
	Match(ctx context.Context, r result.Ranked) error
}
