// Package request validates hybrid search parameters.
package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/cardex/internal/domain"
)

// The two caller-tier default policies.
const (
	// DefaultLimit and DefaultThreshold apply at the search API entry point.
	DefaultLimit     = 10
	DefaultThreshold = 0.7

	// BrowseLimit and BrowseThreshold apply to the catalog page search box,
	// which favors more results over stronger matches.
	BrowseLimit     = 20
	BrowseThreshold = 0.6
)

// Defaults holds the limit/threshold pair applied when a caller omits them.
type Defaults struct {
	Limit     int
	Threshold float64
}

// APIDefaults returns the search API entry point defaults.
func APIDefaults() Defaults { return Defaults{Limit: DefaultLimit, Threshold: DefaultThreshold} }

// BrowseDefaults returns the catalog wrapper defaults.
func BrowseDefaults() Defaults { return Defaults{Limit: BrowseLimit, Threshold: BrowseThreshold} }

// Request is a validated search query.
type Request struct {
	query     string
	limit     int
	threshold float64
}

// New validates search parameters. A nil limit or threshold takes the value from defaults.
// An empty or whitespace-only query fails with domain.ErrInvalidQuery. Any positive
// limit is accepted as is: results are bounded by the published catalog.
func New(query string, limit *int, threshold *float64, defaults Defaults) (Request, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Request{}, domain.ErrInvalidQuery
	}

	l := defaults.Limit
	if limit != nil {
		l = *limit
	}
	if l <= 0 {
		return Request{}, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest)
	}

	th := defaults.Threshold
	if threshold != nil {
		th = *threshold
	}
	if th < 0 || th > 1 {
		return Request{}, fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidRequest)
	}

	return Request{query: q, limit: l, threshold: th}, nil
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// Limit returns the maximum number of results.
func (r *Request) Limit() int { return r.limit }

// Threshold returns the minimum similarity for a semantic match.
func (r *Request) Threshold() float64 { return r.threshold }
