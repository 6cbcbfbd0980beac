// Package catalog reads catalog records from the external vector index.
// Records are Redis hashes written by the ingest side; this package never writes them.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/reelsearch/internal/db"
	"github.com/kailas-cloud/reelsearch/internal/domain"
	domcat "github.com/kailas-cloud/reelsearch/internal/domain/catalog"
)

// Hash field names.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldNativeTitle = "native_title"
	FieldReleaseDate = "release_date"
	FieldDuration    = "duration_minutes"
	FieldEntities    = "entities"
	FieldImageURL    = "image_url"
	FieldVector      = "vector"
)

// defaultPageSize bounds one FT.SEARCH page of entity records.
const defaultPageSize = 1000

// metadataFields are returned by index queries; vectors are loaded only by Get.
var metadataFields = []string{
	FieldID, FieldTitle, FieldNativeTitle, FieldReleaseDate, FieldDuration, FieldEntities, FieldImageURL,
}

// store is the consumer interface for catalog reads (ISP).
type store interface {
	Ping(ctx context.Context) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchFilter(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store     store
	keyPrefix string
	indexName string
}

// New creates a catalog repository.
func New(s store, keyPrefix, indexName string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, indexName: indexName}
}

// Nearest returns up to k records closest to vector, most similar first.
func (r *Repo) Nearest(ctx context.Context, vector []float32, k int) ([]domcat.Candidate, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  FieldVector,
		Vector:       vector,
		K:            k,
		ReturnFields: metadataFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: knn %s: %w", domain.ErrIndexUnavailable, r.indexName, err)
	}
	if sr == nil {
		return nil, nil
	}

	out := make([]domcat.Candidate, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		rec, err := r.fromFields(e.Key, e.Fields)
		if err != nil {
			return nil, err
		}
		out = append(out, domcat.Candidate{Record: rec, Similarity: e.Score})
	}
	return out, nil
}

// ByEntity returns every record tagged with the entity name, fetched pageSize
// records at a time until the reported total is reached.
func (r *Repo) ByEntity(ctx context.Context, name string, pageSize int) ([]domcat.Record, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var out []domcat.Record
	for offset := 0; ; offset += pageSize {
		sr, err := r.store.SearchFilter(ctx, &db.FilterQuery{
			IndexName:    r.indexName,
			Tags:         []db.TagFilter{{Field: FieldEntities, Value: name}},
			Offset:       offset,
			Limit:        pageSize,
			ReturnFields: metadataFields,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: filter %s by entity: %w", domain.ErrIndexUnavailable, r.indexName, err)
		}
		if sr == nil {
			return out, nil
		}

		for _, e := range sr.Entries {
			rec, err := r.fromFields(e.Key, e.Fields)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		// a short page means the index has nothing more, even if Total drifted
		if len(sr.Entries) < pageSize || offset+pageSize >= sr.Total {
			return out, nil
		}
	}
}

// Get loads one record with its embedding.
func (r *Repo) Get(ctx context.Context, id string) (domcat.Record, error) {
	key := r.recordKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domcat.Record{}, fmt.Errorf("%w: get %s: %w", domain.ErrIndexUnavailable, key, err)
	}
	if len(fields) == 0 {
		return domcat.Record{}, fmt.Errorf("record %q: %w", id, domain.ErrNotFound)
	}
	return r.fromFields(key, fields)
}

// Ready checks connectivity and that the catalog index exists.
func (r *Repo) Ready(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	ok, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: index %s does not exist", domain.ErrIndexUnavailable, r.indexName)
	}
	return nil
}

func (r *Repo) recordKey(id string) string {
	return r.keyPrefix + "record:" + strings.ToLower(strings.TrimSpace(id))
}

func (r *Repo) fromFields(key string, fields map[string]string) (domcat.Record, error) {
	rec, err := toRecord(fields)
	if err != nil {
		return domcat.Record{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if rec.ID == "" {
		rec.ID = strings.TrimPrefix(key, r.keyPrefix+"record:")
	}
	return rec, nil
}
