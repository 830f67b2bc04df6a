// Package memory is an in-process driver for every repository contract.
// It backs local development and end-to-end tests of the HTTP surface.
package memory

import (
	"context"
	"sync"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
	domql "github.com/kailas-cloud/cardex/internal/domain/querylog"
)

type vectorKey struct {
	cardID      string
	contentType string
}

// Store keeps cards, vectors, the query log and chat transcripts in memory.
type Store struct {
	mu       sync.RWMutex
	cards    map[string]domcard.Card
	order    []string
	vectors  map[vectorKey]domcard.Vector
	queries  []domql.Entry
	sessions map[string]domchat.Session
	messages map[string][]domchat.Message
}

// New creates an empty store.
func New() *Store {
	return &Store{
		cards:    make(map[string]domcard.Card),
		vectors:  make(map[vectorKey]domcard.Vector),
		sessions: make(map[string]domchat.Session),
		messages: make(map[string][]domchat.Message),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func cloneCard(c domcard.Card) domcard.Card {
	if c.Features != nil {
		c.Features = append([]domcard.Feature(nil), c.Features...)
	}
	return c
}
