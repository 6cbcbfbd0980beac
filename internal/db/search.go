package db

// TagFilter restricts a query to documents whose TAG field contains Value.
type TagFilter struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // default "vector"
	Tags         []TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// FilterQuery is the input for attribute-only lookups (no vector ranking).
type FilterQuery struct {
	IndexName    string
	Tags         []TagFilter
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// Score is cosine similarity in [0,1] for KNN queries and 0 otherwise.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
