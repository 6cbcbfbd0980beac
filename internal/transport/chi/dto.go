package chi

import (
	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	"github.com/kailas-cloud/reelsearch/internal/domain/profile"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/result"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeMissingVector          ErrorCode = "missing_vector"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeIndexUnavailable       ErrorCode = "index_unavailable"
	ErrorCodeServiceUnavailable     ErrorCode = "service_unavailable"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RecordData is the wire form of a catalog record. The vector is never sent.
type RecordData struct {
	ID          string   `json:"dvdId"`
	Title       string   `json:"title"`
	NativeTitle string   `json:"jpTitle,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Duration    int      `json:"duration,omitempty"`
	Cast        []string `json:"cast"`
	Image       string   `json:"image,omitempty"`
}

// ResultItem is one ranked result. Data holds a RecordData, or the profile
// document for bio cards.
type ResultItem struct {
	IsBio         bool    `json:"is_bio"`
	Score         float64 `json:"score"`
	SemanticScore float64 `json:"sem_score"`
	Data          any     `json:"data"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Mode            string       `json:"mode"`
	MatchedEntities []string     `json:"matched_entities"`
	Results         []ResultItem `json:"results"`
}

// SimilarResponse is the body of GET /api/similar.
type SimilarResponse struct {
	Mode    string       `json:"mode"`
	Source  RecordData   `json:"source"`
	Results []ResultItem `json:"results"`
}

// ProfileResponse is the body of GET /api/profiles/{name}.
type ProfileResponse struct {
	Tier    profile.Tier    `json:"tier"`
	Profile profile.Profile `json:"profile"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func recordToData(r catalog.Record) RecordData {
	d := RecordData{
		ID:          r.ID,
		Title:       r.Title,
		NativeTitle: r.NativeTitle,
		Duration:    r.DurationMinutes,
		Cast:        r.EntityNames,
		Image:       r.ImageURL,
	}
	if r.HasReleaseDate() {
		d.ReleaseDate = r.ReleaseDate.Format("2006-01-02")
	}
	if d.Cast == nil {
		d.Cast = []string{}
	}
	return d
}

func rankedToItem(r result.Ranked) ResultItem {
	item := ResultItem{
		IsBio:         r.IsBio(),
		Score:         r.FinalScore(),
		SemanticScore: r.SemanticScore(),
	}
	if r.IsBio() {
		item.Data = r.Profile()
	} else {
		item.Data = recordToData(r.Record())
	}
	return item
}

func rankedToItems(rs []result.Ranked) []ResultItem {
	items := make([]ResultItem, len(rs))
	for i, r := range rs {
		items[i] = rankedToItem(r)
	}
	return items
}
