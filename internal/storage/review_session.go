package storage

import (
	"sync"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

// ReviewSessionStorage provides in-memory storage for bot review sessions by chat ID.
type ReviewSessionStorage struct {
	mu       sync.RWMutex
	sessions map[int64]*entities.ReviewSession
}

// NewReviewSessionStorage creates a new ReviewSessionStorage.
func NewReviewSessionStorage() *ReviewSessionStorage {
	return &ReviewSessionStorage{
		sessions: make(map[int64]*entities.ReviewSession),
	}
}

// Store saves the session of a chat, replacing any previous one.
func (s *ReviewSessionStorage) Store(chatID int64, session *entities.ReviewSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = session
}

// Get retrieves the session of a chat.
func (s *ReviewSessionStorage) Get(chatID int64) (*entities.ReviewSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[chatID]
	return session, ok
}

// Delete removes the session of a chat.
func (s *ReviewSessionStorage) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// Update runs fn on the session of a chat while holding the lock, so concurrent
// callbacks for one chat are applied one at a time. It reports whether a session existed.
func (s *ReviewSessionStorage) Update(chatID int64, fn func(session *entities.ReviewSession)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[chatID]
	if !ok {
		return false
	}
	fn(session)
	return true
}
