// Package pending holds voice-extracted transaction candidates between
// extraction and the user's confirm or cancel. Nothing here touches the
// database; a session that is never confirmed leaves no trace.
package pending

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"hisobchi/internal/core"
)

type State string

const (
	StateAwaiting  State = "awaiting_confirmation"
	StateConfirmed State = "confirmed"
	StateCancelled State = "cancelled"
	StateExpired   State = "expired"
)

var (
	ErrSessionNotFound = errors.New("pending session not found")
	ErrSessionExpired  = errors.New("pending session expired")
	ErrSessionClosed   = errors.New("pending session already resolved")
)

type Session struct {
	ID         string
	UserID     int64
	Candidates []core.Transaction
	State      State
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create opens a session in the awaiting state and returns it.
func (s *Store) Create(userID int64, candidates []core.Transaction) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Candidates: candidates,
		State:      StateAwaiting,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	s.sessions[sess.ID] = sess
	return *sess
}

// Get returns a snapshot of the session, flipping it to expired first when
// its deadline has passed.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	s.expireLocked(sess)
	return *sess, nil
}

// Confirm resolves an awaiting session and hands back its candidates so
// the caller can persist them. Only the owner may confirm.
func (s *Store) Confirm(id string, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	s.expireLocked(sess)
	switch sess.State {
	case StateAwaiting:
	case StateExpired:
		return nil, ErrSessionExpired
	default:
		return nil, ErrSessionClosed
	}
	sess.State = StateConfirmed
	return sess.Candidates, nil
}

// Cancel resolves an awaiting session without persisting anything.
// Cancelling an expired or already resolved session is a no-op.
func (s *Store) Cancel(id string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return ErrSessionNotFound
	}
	s.expireLocked(sess)
	if sess.State == StateAwaiting {
		sess.State = StateCancelled
	}
	return nil
}

func (s *Store) expireLocked(sess *Session) {
	if sess.State == StateAwaiting && s.now().After(sess.ExpiresAt) {
		sess.State = StateExpired
	}
}

// CleanExpired drops resolved and expired sessions and reports how many
// were removed. It satisfies the janitor's Cleaner interface.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for id, sess := range s.sessions {
		if sess.State == StateAwaiting && now.After(sess.ExpiresAt) {
			sess.State = StateExpired
		}
		if sess.State != StateAwaiting {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
