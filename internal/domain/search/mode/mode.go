package mode

// Mode labels the retrieval path a query took.
type Mode string

// Search mode constants. Values are part of the public response.
const (
	ExactID        Mode = "Exact ID"
	Timeline       Mode = "Actress Timeline"
	EntitySemantic Mode = "Actress + Semantic"
	Semantic       Mode = "Semantic"
	// DeepSimilarity labels seed-based neighbor search.
	DeepSimilarity Mode = "Deep Similarity"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	switch m {
	case ExactID, Timeline, EntitySemantic, Semantic, DeepSimilarity:
		return true
	}
	return false
}
