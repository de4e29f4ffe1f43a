// Package infra — session_store.go keeps live conversations in memory.
//
// Sessions live in the TTL cache: an idle conversation expires after the
// configured TTL and the next message from that browser simply starts a
// fresh session with the welcome message. Explicit reset deletes the entry.
package infra

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	chatdomain "github.com/jakerains/Rivertown-v2-aws/internal/chat/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/chat/service"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/cache"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
)

// SessionStore is the cache-backed implementation of port.SessionStore.
type SessionStore struct {
	cache   *cache.InMemory[*chatdomain.Session]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSessionStore creates a session store whose sessions expire after ttl
// of inactivity.
func NewSessionStore(ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		cache:   cache.New[*chatdomain.Session](ttl),
		metrics: metrics,
		logger:  logger,
	}
}

// Get returns the session for id, creating a fresh one when id is empty or
// unknown (including expired sessions — from the customer's point of view
// the conversation just starts over).
func (s *SessionStore) Get(id string) *chatdomain.Session {
	if id != "" {
		if sess, ok := s.cache.Get(id); ok {
			s.metrics.IncrCacheHit("session")
			return sess
		}
	}
	s.metrics.IncrCacheMiss("session")

	sess := &chatdomain.Session{
		ID:        uuid.NewString(),
		Stage:     chatdomain.StageIdle,
		CreatedAt: time.Now().UTC(),
	}
	sess.Append(chatdomain.Message{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Kind:      "text",
		Content:   service.WelcomeMessage,
		Timestamp: sess.CreatedAt,
	})
	s.cache.Set(sess.ID, sess)

	s.logger.Debug("session created", zap.String("session_id", sess.ID))
	return sess
}

// Lookup returns an existing session without creating one.
func (s *SessionStore) Lookup(id string) (*chatdomain.Session, bool) {
	return s.cache.Get(id)
}

// Put saves the session and refreshes its TTL.
func (s *SessionStore) Put(sess *chatdomain.Session) {
	s.cache.Set(sess.ID, sess)
}

// Delete removes the session.
func (s *SessionStore) Delete(id string) {
	s.cache.Delete(id)
}

// Live reports the number of active sessions.
func (s *SessionStore) Live() int {
	return s.cache.Len()
}
