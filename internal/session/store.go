// Package session keeps per-user conversation history in process memory.
package session

import (
	"sync"

	"chatbot/internal/models"
)

// Session is a snapshot of one user's history, oldest turn first
type Session struct {
	UserID int64
	Turns  []models.Turn
}

// Store defines the operations on conversation history
type Store interface {
	GetOrCreate(userID int64) Session
	Clear(userID int64)
	Delete(userID int64)
	Append(userID int64, turns ...models.Turn)
	Recent(userID int64, n int) []models.Turn

	// Lock serializes a whole exchange for one user. Callers must invoke the returned func.
	Lock(userID int64) (unlock func())
	Len() int
}

// MemoryStore is the process-wide in-memory Store.
// History is unbounded per user; only reads are windowed.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64][]models.Turn

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64][]models.Turn),
		locks:    make(map[int64]*userLock),
	}
}

// GetOrCreate returns the user's session, creating an empty one on first access
func (s *MemoryStore) GetOrCreate(userID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[userID]
	if !ok {
		turns = []models.Turn{}
		s.sessions[userID] = turns
	}
	return Session{UserID: userID, Turns: cloneTurns(turns)}
}

// Clear empties the session, creating it if needed
func (s *MemoryStore) Clear(userID int64) {
	s.mu.Lock()
	s.sessions[userID] = []models.Turn{}
	s.mu.Unlock()
}

// Delete removes the session entirely
func (s *MemoryStore) Delete(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Append adds turns to the end of the session
func (s *MemoryStore) Append(userID int64, turns ...models.Turn) {
	s.mu.Lock()
	s.sessions[userID] = append(s.sessions[userID], turns...)
	s.mu.Unlock()
}

// Recent returns up to n most recent turns in their original order
func (s *MemoryStore) Recent(userID int64, n int) []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[userID]
	if n <= 0 || len(turns) == 0 {
		return []models.Turn{}
	}
	if n > len(turns) {
		n = len(turns)
	}
	return cloneTurns(turns[len(turns)-n:])
}

// Len returns the number of live sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Lock acquires the exchange lock of a user. Idle locks are dropped on unlock.
func (s *MemoryStore) Lock(userID int64) func() {
	s.locksMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			s.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, userID)
			}
			s.locksMu.Unlock()
		})
	}
}

func cloneTurns(turns []models.Turn) []models.Turn {
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out
}
