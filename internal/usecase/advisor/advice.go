package advisor

import domcard "github.com/kailas-cloud/cardex/internal/domain/card"

// Summary is a short description of one card.
type Summary struct {
	CardID      string
	Summary     string
	KeyBenefits []string
	BestFor     []string
	Warnings    []string
	// Generated is false when the summary was built without the language model.
	Generated bool
}

// Comparison weighs two or more cards against each other. Maps are keyed by card name.
type Comparison struct {
	Cards          []domcard.Card
	Pros           map[string][]string
	Cons           map[string][]string
	BestFor        map[string]string
	Recommendation string
	Generated      bool
}

// Recommendation is the set of cards picked for a free-text request.
type Recommendation struct {
	Query       string
	Cards       []domcard.Card
	Explanation string
	// Confidence is between 0 and 100.
	Confidence int
	Generated  bool
}

const (
	// MaxRecommended caps the cards in a recommendation.
	MaxRecommended = 10
	// FallbackConfidence is reported for keyword-matched recommendations.
	FallbackConfidence = 60
	// DefaultConfidence is used when the model omits one.
	DefaultConfidence = 70

	defaultVerdict      = "Both cards have their merits. Choose based on your spending patterns and preferences."
	fallbackVerdict     = "Compare the fees, rewards, and features to choose the best card for your needs."
	defaultExplanation  = "Cards selected based on your criteria."
	fallbackExplanation = "Found cards matching your search terms. AI analysis temporarily unavailable."
)

func clampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
