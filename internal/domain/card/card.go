// Package card holds the catalog aggregate: a credit card with its ordered features.
package card

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Card is a catalog entity. Owned by the record store; read-only for search.
type Card struct {
	ID               string
	Name             string
	IssuerID         string
	IssuerName       string
	IssuerSlug       string
	IssuerImage      string
	Logo             string
	ImageURL         string
	Type             string
	BestFor          string
	EmploymentType   string
	NetworkType      string
	JoiningFee       string
	AnnualFee        string
	APR              string
	RewardRate       string
	RewardPoints     string
	MinMonthlyIncome int
	Rating           float64
	ReviewCount      int
	Featured         bool
	Published        bool
	URLSlug          string
	ReferralLink     string
	CreatedAt        time.Time
	Features         []Feature
}

// Feature is a labeled benefit of a card, ordered by Position.
type Feature struct {
	ID          string
	CardID      string
	Position    int
	Heading     string
	Description string
}

// Validate checks the fields required to store a card.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("card ID is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("card %s: name is required", c.ID)
	}
	if c.Rating < 0 || c.Rating > 5 {
		return fmt.Errorf("card %s: rating must be between 0 and 5, got %v", c.ID, c.Rating)
	}
	if c.MinMonthlyIncome < 0 {
		return fmt.Errorf("card %s: min monthly income must not be negative", c.ID)
	}
	for _, f := range c.Features {
		if f.CardID != "" && f.CardID != c.ID {
			return fmt.Errorf("card %s: feature %q belongs to card %s", c.ID, f.Heading, f.CardID)
		}
	}
	return nil
}

// SortFeatures orders features by Position, keeping input order for equal positions.
func (c *Card) SortFeatures() {
	sort.SliceStable(c.Features, func(i, j int) bool {
		return c.Features[i].Position < c.Features[j].Position
	})
}

// FeatureHeadings returns the headings of the first n features (all when n <= 0).
func (c *Card) FeatureHeadings(n int) []string {
	out := make([]string, 0, len(c.Features))
	for i, f := range c.Features {
		if n > 0 && i >= n {
			break
		}
		out = append(out, f.Heading)
	}
	return out
}

// SummaryText is the text embedded as the card_summary vector.
func (c *Card) SummaryText() string {
	issuer := c.IssuerName
	if issuer == "" {
		issuer = "Unknown"
	}
	network := c.NetworkType
	if network == "" {
		network = "Unknown"
	}

	details := make([]string, 0, len(c.Features))
	for _, f := range c.Features {
		details = append(details, f.Heading+": "+f.Description)
	}

	lines := []string{
		c.Name,
		"Card Type: " + c.Type,
		"Best For: " + c.BestFor,
		"Issuer: " + issuer,
		"Network: " + network,
		"Employment Type: " + c.EmploymentType,
		"Joining Fee: " + c.JoiningFee,
		"Annual Fee: " + c.AnnualFee,
		"Minimum Monthly Income: ₹" + FormatIncome(c.MinMonthlyIncome),
		"Reward Rate: " + c.RewardRate,
		fmt.Sprintf("Rating: %s/5 (%d reviews)", formatRating(c.Rating), c.ReviewCount),
		"Features: " + strings.Join(details, ", "),
		"Benefits: " + strings.Join(c.FeatureHeadings(0), ", "),
	}
	return strings.Join(lines, "\n")
}

// FormatIncome renders an amount with thousands separators.
func FormatIncome(v int) string {
	s := strconv.Itoa(v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
