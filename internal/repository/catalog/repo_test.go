package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/reelsearch/internal/db"
	"github.com/kailas-cloud/reelsearch/internal/domain"
)

func TestNearest(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotQuery *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		gotQuery = q
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{Key: "reel:record:ssis-001", Score: 0.9, Fields: map[string]string{
				"id": "SSIS-001", "title": "Debut", "entities": "Jane Doe, Mio", "release_date": "2021-04-01",
			}},
			{Key: "reel:record:abp-002", Score: 0.7, Fields: map[string]string{"title": "No id field"}},
		}}, nil
	}

	cands, err := repo.Nearest(context.Background(), []float32{0.1, 0.2}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.IndexName != "reel:records:idx" || gotQuery.K != 30 || gotQuery.VectorField != "vector" {
		t.Errorf("unexpected query: %+v", gotQuery)
	}
	for _, f := range gotQuery.ReturnFields {
		if f == FieldVector {
			t.Error("vectors must not be returned by knn queries")
		}
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	c := cands[0]
	if c.Record.ID != "SSIS-001" || c.Similarity != 0.9 {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if len(c.Record.EntityNames) != 2 || c.Record.EntityNames[1] != "Mio" {
		t.Errorf("entities = %v", c.Record.EntityNames)
	}
	if !c.Record.ReleaseDate.Equal(time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("release date = %v", c.Record.ReleaseDate)
	}
	if cands[1].Record.ID != "abp-002" {
		t.Errorf("expected id from key, got %q", cands[1].Record.ID)
	}
}

func TestNearest_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("timeout")}
	}

	_, err := repo.Nearest(context.Background(), []float32{0.1}, 3)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestByEntity(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotQuery *db.FilterQuery
	ms.searchFilterFn = func(_ context.Context, q *db.FilterQuery) (*db.SearchResult, error) {
		gotQuery = q
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
			{Key: "reel:record:a-1", Fields: map[string]string{"id": "A-1", "duration_minutes": "120"}},
		}}, nil
	}

	recs, err := repo.ByEntity(context.Background(), "Jane Doe", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotQuery.Tags) != 1 || gotQuery.Tags[0] != (db.TagFilter{Field: "entities", Value: "Jane Doe"}) {
		t.Errorf("unexpected tags: %+v", gotQuery.Tags)
	}
	if gotQuery.Limit != 1000 || gotQuery.Offset != 0 {
		t.Errorf("page = offset %d limit %d", gotQuery.Offset, gotQuery.Limit)
	}
	if len(recs) != 1 || recs[0].DurationMinutes != 120 || recs[0].HasReleaseDate() {
		t.Errorf("unexpected records: %+v", recs)
	}
}

func TestByEntity_PagesUntilTotal(t *testing.T) {
	repo, ms := newTestRepo(t)

	const total = 5
	var offsets []int
	ms.searchFilterFn = func(_ context.Context, q *db.FilterQuery) (*db.SearchResult, error) {
		offsets = append(offsets, q.Offset)
		sr := &db.SearchResult{Total: total}
		for i := q.Offset; i < min(q.Offset+q.Limit, total); i++ {
			id := fmt.Sprintf("A-%d", i)
			sr.Entries = append(sr.Entries, db.SearchEntry{
				Key:    "reel:record:" + strings.ToLower(id),
				Fields: map[string]string{"id": id, "release_date": fmt.Sprintf("2020-01-0%d", i+1)},
			})
		}
		return sr, nil
	}

	recs, err := repo.ByEntity(context.Background(), "Jane Doe", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != total {
		t.Fatalf("expected %d records, got %d", total, len(recs))
	}
	if want := []int{0, 2, 4}; !slices.Equal(offsets, want) {
		t.Errorf("offsets = %v, want %v", offsets, want)
	}
	if recs[total-1].ID != "A-4" {
		t.Errorf("last record = %q", recs[total-1].ID)
	}
}

func TestByEntity_StopsOnShortPage(t *testing.T) {
	repo, ms := newTestRepo(t)

	calls := 0
	ms.searchFilterFn = func(_ context.Context, _ *db.FilterQuery) (*db.SearchResult, error) {
		calls++
		// index reports more than it returns
		return &db.SearchResult{Total: 10, Entries: []db.SearchEntry{
			{Key: "reel:record:a-1", Fields: map[string]string{"id": "A-1"}},
		}}, nil
	}

	recs, err := repo.ByEntity(context.Background(), "Jane Doe", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || len(recs) != 1 {
		t.Errorf("calls = %d, records = %d", calls, len(recs))
	}
}

func TestGet(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotKey string
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		gotKey = key
		return map[string]string{"id": "SSIS-001", "vector": vectorBlob([]float32{0.5, -0.25})}, nil
	}

	rec, err := repo.Get(context.Background(), " SSIS-001 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "reel:record:ssis-001" {
		t.Errorf("key = %q", gotKey)
	}
	if len(rec.Embedding) != 2 || rec.Embedding[0] != 0.5 || rec.Embedding[1] != -0.25 {
		t.Errorf("embedding = %v", rec.Embedding)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "NOPE-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_MalformedVector(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(context.Context, string) (map[string]string, error) {
		return map[string]string{"id": "X-1", "vector": "abc"}, nil
	}

	if _, err := repo.Get(context.Background(), "X-1"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGet_NoVector(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(context.Context, string) (map[string]string, error) {
		return map[string]string{"id": "X-1"}, nil
	}

	rec, err := repo.Get(context.Background(), "X-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Embedding != nil {
		t.Errorf("expected no embedding, got %v", rec.Embedding)
	}
}

func TestReady(t *testing.T) {
	repo, ms := newTestRepo(t)
	if err := repo.Ready(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ms.indexExistsFn = func(context.Context, string) (bool, error) { return false, nil }
	if err := repo.Ready(context.Background()); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable for missing index, got %v", err)
	}

	ms.pingFn = func(context.Context) error { return errors.New("refused") }
	if err := repo.Ready(context.Background()); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable for ping failure, got %v", err)
	}
}

func TestSplitEntities(t *testing.T) {
	got := splitEntities(" Jane Doe ,, Mio,")
	if len(got) != 2 || got[0] != "Jane Doe" || got[1] != "Mio" {
		t.Errorf("got %v", got)
	}
	if splitEntities("  ") != nil {
		t.Error("expected nil for blank field")
	}
}
