package health

import (
	"context"

	"github.com/kailas-cloud/reelsearch/internal/usecase/snapshot"
)

// IndexChecker checks that the vector index is reachable and built.
type IndexChecker interface {
	Ready(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotSource provides the current entity snapshot.
type SnapshotSource interface {
	Current() *snapshot.Snapshot
}
