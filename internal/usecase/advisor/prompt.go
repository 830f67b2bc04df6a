package advisor

import (
	"fmt"
	"regexp"
	"strings"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
)

var fenceRe = regexp.MustCompile("```json\\n?|\\n?```")

// stripFences removes markdown code fences the model wraps JSON in.
func stripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

func summaryPrompt(c *domcard.Card) string {
	var b strings.Builder
	b.WriteString("Create a concise, helpful summary for this credit card:\n\n")
	fmt.Fprintf(&b, "Card: %s\nType: %s\nBest For: %s\n", c.Name, c.Type, c.BestFor)
	fmt.Fprintf(&b, "Joining Fee: %s\nAnnual Fee: %s\nReward Rate: %s\n", c.JoiningFee, c.AnnualFee, c.RewardRate)
	fmt.Fprintf(&b, "Employment Required: %s\nMinimum Income: ₹%d/month\n", c.EmploymentType, c.MinMonthlyIncome)
	fmt.Fprintf(&b, "Rating: %v/5 (%d reviews)\n", c.Rating, c.ReviewCount)
	fmt.Fprintf(&b, "Features: %s\n\n", strings.Join(c.FeatureHeadings(0), ", "))
	b.WriteString(`Please provide a JSON response with:
1. A 2-3 sentence summary highlighting the card's main value proposition
2. Top 3-5 key benefits as bullet points
3. What type of users this card is best for (2-3 categories)
4. Any important warnings or limitations (if applicable)

Format as valid JSON:
{"summary": "...", "keyBenefits": ["..."], "bestFor": ["..."], "warnings": ["..."]}
`)
	return b.String()
}

func comparePrompt(cards []domcard.Card) string {
	var b strings.Builder
	b.WriteString("Compare these credit cards and provide a detailed analysis:\n")
	for i := range cards {
		c := &cards[i]
		fmt.Fprintf(&b, "\nCard %d: %s\n", i+1, c.Name)
		fmt.Fprintf(&b, "- Type: %s\n- Joining Fee: %s\n- Annual Fee: %s\n", c.Type, c.JoiningFee, c.AnnualFee)
		fmt.Fprintf(&b, "- Reward Rate: %s\n- Rating: %v/5\n- Min Income: ₹%d\n", c.RewardRate, c.Rating, c.MinMonthlyIncome)
		fmt.Fprintf(&b, "- Features: %s\n", strings.Join(c.FeatureHeadings(0), ", "))
	}
	b.WriteString(`
Provide a comprehensive comparison as JSON keyed by card name:
{"pros": {"Card": ["..."]}, "cons": {"Card": ["..."]}, "bestFor": {"Card": "..."}, "recommendation": "2-3 sentences"}
`)
	return b.String()
}

func recommendPrompt(query string, cards []domcard.Card) string {
	var b strings.Builder
	b.WriteString("As a credit card expert, analyze this user query and filter the most relevant credit cards.\n\n")
	fmt.Fprintf(&b, "User Query: %q\n\nAvailable Credit Cards:\n", query)
	for i := range cards {
		c := &cards[i]
		fmt.Fprintf(&b, "- %s (id: %s)\n", c.Name, c.ID)
		fmt.Fprintf(&b, "  - Type: %s\n  - Best For: %s\n  - Joining Fee: %s\n  - Annual Fee: %s\n",
			c.Type, c.BestFor, c.JoiningFee, c.AnnualFee)
		fmt.Fprintf(&b, "  - Reward Rate: %s\n  - Employment: %s\n  - Min Income: ₹%d\n  - Rating: %v/5\n",
			c.RewardRate, c.EmploymentType, c.MinMonthlyIncome, c.Rating)
		fmt.Fprintf(&b, "  - Features: %s\n", strings.Join(c.FeatureHeadings(0), ", "))
	}
	fmt.Fprintf(&b, `
Return at most %d cards as valid JSON:
{"cardIds": ["id-1", "id-2"], "confidence": 85, "explanation": "I selected these cards because..."}
`, MaxRecommended)
	return b.String()
}
