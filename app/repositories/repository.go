package repositories

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStorage is the durable Storage backend. Users, posts, comments
// and sessions share one badger database.
type BadgerStorage struct {
	db       *badger.DB
	clock    Clock
	sessions *BadgerSessionStore
	ownsDB   bool

	// writeMu serializes creates so sequence keys never conflict between
	// concurrent transactions.
	writeMu sync.Mutex
}

var _ Storage = (*BadgerStorage)(nil)

// OpenBadger opens (or creates) the database at path. An empty path opens
// a purely in-memory badger instance, which is useful for tests.
func OpenBadger(path string, clock Clock) (*BadgerStorage, error) {
	return OpenBadgerWithLogger(path, clock, nil)
}

// OpenBadgerWithLogger is OpenBadger with badger's internal logging sent
// to logger. A nil logger silences it.
func OpenBadgerWithLogger(path string, clock Clock, logger badger.Logger) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(logger).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %q: %w", path, err)
	}
	s := NewBadgerStorage(db, clock)
	s.ownsDB = true
	return s, nil
}

// NewBadgerStorage wraps an already open database. The caller keeps
// ownership of db; Close will not close it.
func NewBadgerStorage(db *badger.DB, clock Clock) *BadgerStorage {
	return &BadgerStorage{
		db:       db,
		clock:    clock,
		sessions: NewBadgerSessionStore(db, clock),
	}
}

// Sessions returns the session store living in the same database.
func (s *BadgerStorage) Sessions() SessionStore {
	return s.sessions
}

// DB exposes the underlying database for maintenance commands.
func (s *BadgerStorage) DB() *badger.DB {
	return s.db
}

func (s *BadgerStorage) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
