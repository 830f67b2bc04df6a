// Package querylog models the append-only record of submitted search queries.
package querylog

import (
	"fmt"
	"strings"
	"time"
)

// QueryType tags where a logged query came from.
type QueryType string

// Query types.
const (
	TypeSemanticSearch QueryType = "semantic_search"
	TypeUserGenerated  QueryType = "user_generated"
)

// Entry is one logged query. Filters holds the request parameters that shaped it.
type Entry struct {
	Query     string
	Type      QueryType
	Filters   map[string]any
	UserID    string
	SessionID string
	CreatedAt time.Time
}

// New trims and validates a query log entry.
func New(query string, t QueryType, filters map[string]any) (Entry, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Entry{}, fmt.Errorf("query is required")
	}
	if t == "" {
		return Entry{}, fmt.Errorf("query type is required")
	}
	return Entry{Query: q, Type: t, Filters: filters, CreatedAt: time.Now().UTC()}, nil
}

// WithOwner returns a copy attributed to a user and chat session.
func (e Entry) WithOwner(userID, sessionID string) Entry {
	e.UserID = userID
	e.SessionID = sessionID
	return e
}

// Popular is a query with its occurrence count.
type Popular struct {
	Query string
	Count int
}
