package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"socialfeed/app/models"
	"socialfeed/app/repositories"
)

// DefaultPruneInterval is used when New is given a non-positive interval.
const DefaultPruneInterval = 10 * time.Minute

// SessionStore is an in-process session store. A background goroutine
// drops expired sessions until Close is called.
type SessionStore struct {
	mutex    sync.RWMutex
	sessions map[string]models.Session
	clock    repositories.Clock

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

var _ repositories.SessionStore = (*SessionStore)(nil)

func NewSessionStore(clock repositories.Clock, pruneInterval time.Duration) *SessionStore {
	if pruneInterval <= 0 {
		pruneInterval = DefaultPruneInterval
	}
	s := &SessionStore{
		sessions: make(map[string]models.Session),
		clock:    clock,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.pruneLoop(pruneInterval)
	return s
}

func (s *SessionStore) pruneLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Prune()
		}
	}
}

// Prune removes expired sessions and reports how many were dropped.
func (s *SessionStore) Prune() int {
	now := s.clock.Now()
	s.mutex.Lock()
	defer s.mutex.Unlock()

	pruned := 0
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	session, ok := s.sessions[id]
	s.mutex.RUnlock()

	if !ok || session.Expired(s.clock.Now()) {
		return nil, repositories.ErrNotFound
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session.Expired(s.clock.Now()) {
		return fmt.Errorf("%w: session already expired", repositories.ErrValidation)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close stops the pruner and waits for it to exit. Safe to call twice.
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}
