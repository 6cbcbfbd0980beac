package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/kailas-cloud/reelsearch/internal/domain"
	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/mode"
)

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestSearch_Semantic(t *testing.T) {
	var gotK int
	repo := &mockRepo{nearestFn: func(_ context.Context, _ []float32, k int) ([]catalog.Candidate, error) {
		gotK = k
		return []catalog.Candidate{
			{Record: record("ABC-001"), Similarity: 0.9},
			{Record: record("ABC-002"), Similarity: 0.5},
		}, nil
	}}
	srv := newTestServer(t, repo, &mockEmbedder{})

	resp := get(t, srv.URL+"/api/search?q=rainy+office&top_k=5")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[struct {
		Mode            string   `json:"mode"`
		MatchedEntities []string `json:"matched_entities"`
		Results         []struct {
			IsBio    bool    `json:"is_bio"`
			Score    float64 `json:"score"`
			SemScore float64 `json:"sem_score"`
			Data     struct {
				ID          string   `json:"dvdId"`
				ReleaseDate string   `json:"releaseDate"`
				Cast        []string `json:"cast"`
				Vector      any      `json:"vector"`
			} `json:"data"`
		} `json:"results"`
	}](t, resp)

	if gotK != 15 {
		t.Errorf("knn k = %d, want 15", gotK)
	}
	if body.Mode != string(mode.Semantic) {
		t.Errorf("mode = %q", body.Mode)
	}
	if body.MatchedEntities == nil {
		t.Error("matched_entities must be an empty array, not null")
	}
	if len(body.Results) != 1 || body.Results[0].Data.ID != "ABC-001" {
		t.Fatalf("results = %+v", body.Results)
	}
	r := body.Results[0]
	if r.Data.ReleaseDate != "2023-04-05" || r.Data.Vector != nil || r.Data.Cast == nil {
		t.Errorf("unexpected record data %+v", r.Data)
	}
}

func TestSearch_TimelineWithBioCard(t *testing.T) {
	repo := &mockRepo{byEntityFn: func(_ context.Context, name string, _ int) ([]catalog.Record, error) {
		if name != "Jane Doe" {
			t.Errorf("entity = %q", name)
		}
		return []catalog.Record{record("JD-1", "Jane Doe")}, nil
	}}
	srv := newTestServer(t, repo, &mockEmbedder{})

	resp := get(t, srv.URL+"/api/search?q="+url.QueryEscape("jane doe"))
	body := decode[struct {
		Mode    string `json:"mode"`
		Results []struct {
			IsBio bool           `json:"is_bio"`
			Score float64        `json:"score"`
			Data  map[string]any `json:"data"`
		} `json:"results"`
	}](t, resp)

	if body.Mode != string(mode.Timeline) {
		t.Fatalf("mode = %q", body.Mode)
	}
	if len(body.Results) != 2 || !body.Results[0].IsBio || body.Results[0].Score != 999 {
		t.Fatalf("expected bio card first, got %+v", body.Results)
	}
	if body.Results[0].Data["slug"] != "jane-doe" {
		t.Errorf("bio card data = %v", body.Results[0].Data)
	}
}

func TestSearch_MissingQuery400(t *testing.T) {
	srv := newTestServer(t, &mockRepo{}, &mockEmbedder{})
	resp := get(t, srv.URL+"/api/search")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearch_NonNumericTopK400(t *testing.T) {
	srv := newTestServer(t, &mockRepo{}, &mockEmbedder{})
	resp := get(t, srv.URL+"/api/search?q=x&top_k=many")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearch_NegativeTopKClamped(t *testing.T) {
	var gotK int
	repo := &mockRepo{nearestFn: func(_ context.Context, _ []float32, k int) ([]catalog.Candidate, error) {
		gotK = k
		return nil, nil
	}}
	srv := newTestServer(t, repo, &mockEmbedder{})

	resp := get(t, srv.URL+"/api/search?q=x&top_k=-4&threshold=7")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if gotK != 60 {
		t.Errorf("knn k = %d, want default limit * 3", gotK)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		repo   *mockRepo
		emb    *mockEmbedder
		status int
		code   ErrorCode
	}{
		{
			name: "index",
			repo: &mockRepo{nearestFn: func(context.Context, []float32, int) ([]catalog.Candidate, error) {
				return nil, errors.Join(domain.ErrIndexUnavailable, errors.New("conn refused"))
			}},
			emb:    &mockEmbedder{},
			status: http.StatusServiceUnavailable,
			code:   ErrorCodeIndexUnavailable,
		},
		{
			name:   "embedding",
			repo:   &mockRepo{},
			emb:    &mockEmbedder{err: domain.ErrEmbeddingProviderError},
			status: http.StatusBadGateway,
			code:   ErrorCodeEmbeddingProviderError,
		},
		{
			name: "unknown",
			repo: &mockRepo{nearestFn: func(context.Context, []float32, int) ([]catalog.Candidate, error) {
				return nil, errors.New("secret internals")
			}},
			emb:    &mockEmbedder{},
			status: http.StatusInternalServerError,
			code:   ErrorCodeInternalError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.repo, tt.emb)
			resp := get(t, srv.URL+"/api/search?q=something")
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[ErrorResponse](t, resp)
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if tt.code == ErrorCodeInternalError && body.Message != "internal error" {
				t.Errorf("leaked message %q", body.Message)
			}
		})
	}
}

func TestSimilar_Batch(t *testing.T) {
	repo := &mockRepo{
		getFn: func(_ context.Context, id string) (catalog.Record, error) {
			return record("SEED-1"), nil
		},
		nearestFn: func(context.Context, []float32, int) ([]catalog.Candidate, error) {
			return []catalog.Candidate{
				{Record: record("SEED-1"), Similarity: 1},
				{Record: record("N-1"), Similarity: 0.8},
				{Record: record("N-2"), Similarity: 0.3},
			}, nil
		},
	}
	srv := newTestServer(t, repo, &mockEmbedder{})

	resp := get(t, srv.URL+"/api/similar?dvd_id=seed-1")
	body := decode[struct {
		Mode   string `json:"mode"`
		Source struct {
			ID string `json:"dvdId"`
		} `json:"source"`
		Results []struct {
			Data struct {
				ID string `json:"dvdId"`
			} `json:"data"`
		} `json:"results"`
	}](t, resp)

	if body.Mode != string(mode.DeepSimilarity) || body.Source.ID != "SEED-1" {
		t.Fatalf("unexpected body %+v", body)
	}
	if len(body.Results) != 1 || body.Results[0].Data.ID != "N-1" {
		t.Errorf("results = %+v", body.Results)
	}
}

func TestSimilar_NotFound(t *testing.T) {
	srv := newTestServer(t, &mockRepo{}, &mockEmbedder{})
	resp := get(t, srv.URL+"/api/similar?dvd_id=NOPE-1")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetProfile(t *testing.T) {
	srv := newTestServer(t, &mockRepo{}, &mockEmbedder{})

	resp := get(t, srv.URL+"/api/profiles/"+url.PathEscape("Jane Doe"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[struct {
		Tier    float64        `json:"tier"`
		Profile map[string]any `json:"profile"`
	}](t, resp)
	if body.Tier != 1 || body.Profile["slug"] != "jane-doe" {
		t.Errorf("unexpected body %+v", body)
	}

	resp = get(t, srv.URL+"/api/profiles/nobody")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, &mockRepo{}, &mockEmbedder{})
	resp := get(t, srv.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[HealthResponse](t, resp)
	if body.Status != "ok" || body.Checks["index"] != "ok" {
		t.Errorf("unexpected body %+v", body)
	}

	srv = newTestServer(t, &mockRepo{}, &mockEmbedder{err: errors.New("down")})
	resp = get(t, srv.URL+"/health")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &mockRepo{}, &mockEmbedder{}, "secret")
	resp := get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
