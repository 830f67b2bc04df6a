// Package keyword implements the literal substring fallback matcher.
//
// The whole query is matched as one case-insensitive substring against each
// text field of a card; it is never split into words.
package keyword

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/cardex/internal/domain/card"
)

// Match reports whether query occurs in the card name, type, best-for tag or
// any feature heading or description. Unpublished cards never match.
func Match(c *card.Card, query string) bool {
	if !c.Published {
		return false
	}
	q := strings.ToLower(query)
	if q == "" {
		return false
	}
	if contains(c.Name, q) || contains(c.Type, q) || contains(c.BestFor, q) {
		return true
	}
	for _, f := range c.Features {
		if contains(f.Heading, q) || contains(f.Description, q) {
			return true
		}
	}
	return false
}

func contains(field, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(field), lowerQuery)
}

// Sort orders matches featured first, then by rating descending.
// Equal cards keep their input order.
func Sort(cards []card.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Featured != cards[j].Featured {
			return cards[i].Featured
		}
		return cards[i].Rating > cards[j].Rating
	})
}

// LikePattern builds an ILIKE pattern that matches query literally.
// Backslash is the escape character.
func LikePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}
