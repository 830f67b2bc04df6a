package card

// ContentSummary tags the embedding of SummaryText. The only view used by search.
const ContentSummary = "card_summary"

// Vector is a precomputed embedding of one textual view of a card.
type Vector struct {
	CardID      string
	ContentType string
	Model       string
	Values      []float32
}

// Candidate pairs a published card with one of its vectors for scoring.
type Candidate struct {
	Card   Card
	Vector []float32
}
