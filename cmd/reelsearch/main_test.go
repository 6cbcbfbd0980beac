package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reelsearch/internal/domain"
	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/reelsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/reelsearch/internal/usecase/search"
	"github.com/kailas-cloud/reelsearch/internal/usecase/snapshot"
)

type stubRepo struct {
	nearestCalls int
}

func (r *stubRepo) Nearest(context.Context, []float32, int) ([]catalog.Candidate, error) {
	r.nearestCalls++
	return nil, nil
}

func (r *stubRepo) ByEntity(context.Context, string, int) ([]catalog.Record, error) {
	return nil, nil
}

func (r *stubRepo) Get(context.Context, string) (catalog.Record, error) {
	return catalog.Record{}, domain.ErrNotFound
}

func (r *stubRepo) Ready(context.Context) error { return nil }

type stubEmbedder struct {
	healthErr   error
	embedCalls  int
	healthCalls int
}

func (e *stubEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	e.embedCalls++
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

func (e *stubEmbedder) HealthCheck(context.Context) error {
	e.healthCalls++
	return e.healthErr
}

func TestNewSearchService_EmbedderDown(t *testing.T) {
	repo := &stubRepo{}
	emb := &stubEmbedder{healthErr: errors.New("dial tcp: connection refused")}
	holder := snapshot.NewHolder(nil)

	svc, embedCheck := newSearchService(context.Background(), repo, emb, holder,
		searchuc.Config{}, time.Second, zap.NewNop())

	if svc.Available() {
		t.Fatal("expected search to be disabled")
	}
	if embedCheck != nil {
		t.Fatal("expected no embedding checker")
	}

	for range 2 {
		_, err := svc.Search(context.Background(), request.New("office lady", 10, 0.5))
		if !errors.Is(err, domain.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	}
	if emb.embedCalls != 0 || repo.nearestCalls != 0 {
		t.Errorf("provider retried per request: embed=%d nearest=%d", emb.embedCalls, repo.nearestCalls)
	}
	if emb.healthCalls != 1 {
		t.Errorf("expected one startup probe, got %d", emb.healthCalls)
	}

	report := healthuc.New(repo, embedCheck, holder).Check(context.Background())
	if report.Status != healthuc.Unhealthy {
		t.Errorf("status = %q", report.Status)
	}
	if report.Checks[healthuc.ComponentEmbedding] != healthuc.CheckDisabled {
		t.Errorf("embedding check = %q", report.Checks[healthuc.ComponentEmbedding])
	}
}

func TestNewSearchService_EmbedderUp(t *testing.T) {
	repo := &stubRepo{}
	emb := &stubEmbedder{}

	svc, embedCheck := newSearchService(context.Background(), repo, emb, snapshot.NewHolder(nil),
		searchuc.Config{}, time.Second, zap.NewNop())

	if !svc.Available() {
		t.Fatal("expected search to be available")
	}
	if embedCheck == nil {
		t.Fatal("expected embedding checker")
	}
	if _, err := svc.Search(context.Background(), request.New("office lady", 10, 0.5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.embedCalls != 1 || repo.nearestCalls != 1 {
		t.Errorf("embed=%d nearest=%d", emb.embedCalls, repo.nearestCalls)
	}
}
