package memory

import (
	"context"
	"sort"
	"time"

	"github.com/kailas-cloud/cardex/internal/domain"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
)

// CreateSession inserts a new session.
func (s *Store) CreateSession(_ context.Context, sess domchat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.Messages = nil
	s.sessions[sess.ID] = sess
	return nil
}

// GetSession returns a session without messages.
func (s *Store) GetSession(_ context.Context, id string) (domchat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domchat.Session{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Touch bumps the session's UpdatedAt.
func (s *Store) Touch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.UpdatedAt = at
		s.sessions[id] = sess
	}
	return nil
}

// AppendMessage stores one transcript line.
func (s *Store) AppendMessage(_ context.Context, m domchat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[m.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.messages[m.SessionID] = append(s.messages[m.SessionID], m)
	return nil
}

// RecentMessages returns the last n messages of a session, oldest first.
func (s *Store) RecentMessages(_ context.Context, sessionID string, n int) ([]domchat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recent(sessionID, n), nil
}

func (s *Store) recent(sessionID string, n int) []domchat.Message {
	msgs := s.messages[sessionID]
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]domchat.Message{}, msgs...)
}

// SessionsByUser returns the user's sessions, newest first, each with its
// last messagesPerSession messages.
func (s *Store) SessionsByUser(_ context.Context, userID string, limit, messagesPerSession int) ([]domchat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domchat.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			sess.Messages = s.recent(sess.ID, messagesPerSession)
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteSession removes a session and its messages.
func (s *Store) DeleteSession(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return 0, nil
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return 1, nil
}

// DeleteByUser removes all sessions of a user.
func (s *Store) DeleteByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
			delete(s.messages, id)
			n++
		}
	}
	return n, nil
}
