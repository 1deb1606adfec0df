package repositories

import (
	"context"
	"fmt"

	"socialfeed/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSessionStore keeps sessions in the main database. Entries carry a
// badger TTL, so expired sessions are dropped by compaction without a pruner.
type BadgerSessionStore struct {
	db    *badger.DB
	clock Clock
}

var _ SessionStore = (*BadgerSessionStore)(nil)

func NewBadgerSessionStore(db *badger.DB, clock Clock) *BadgerSessionStore {
	return &BadgerSessionStore{db: db, clock: clock}
}

func (s *BadgerSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var session models.Session
	err := s.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, sessionKey(id), &session)
	})
	if err != nil {
		return nil, err
	}
	if session.Expired(s.clock.Now()) {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (s *BadgerSessionStore) Save(ctx context.Context, session *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", ErrValidation)
	}
	data, err := marshalEntity(session)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(sessionKey(session.ID), data).WithTTL(ttl))
	})
}

func (s *BadgerSessionStore) Destroy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(id))
	})
}
