// Package snapshot holds the read-only entity context the query path serves from.
// A snapshot is never mutated; reloads build a new one and swap it in.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/reelsearch/internal/domain/entity"
	"github.com/kailas-cloud/reelsearch/internal/usecase/profile"
)

// Snapshot is an immutable view of the entity dictionary and canonical profiles.
type Snapshot struct {
	Dictionary *entity.Dictionary
	Profiles   *profile.Index
	LoadedAt   time.Time
	// Degraded lists sources that failed to load; their data is empty.
	Degraded []string
}

// Empty returns a snapshot with no entity metadata.
func Empty() *Snapshot {
	return &Snapshot{
		Dictionary: entity.New(nil),
		Profiles:   profile.NewIndex(nil),
	}
}

// IsDegraded reports whether any source failed to load.
func (s *Snapshot) IsDegraded() bool { return len(s.Degraded) > 0 }

// Holder publishes the current snapshot to concurrent readers.
type Holder struct {
	p atomic.Pointer[Snapshot]
}

// NewHolder creates a holder. A nil initial snapshot is replaced with Empty().
func NewHolder(initial *Snapshot) *Holder {
	h := &Holder{}
	h.Store(initial)
	return h
}

// Current returns the latest snapshot. Never nil.
func (h *Holder) Current() *Snapshot {
	if s := h.p.Load(); s != nil {
		return s
	}
	return Empty()
}

// Store atomically replaces the current snapshot.
func (h *Holder) Store(s *Snapshot) {
	if s == nil {
		s = Empty()
	}
	h.p.Store(s)
}
