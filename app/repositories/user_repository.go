package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"socialfeed/app/models"

	"github.com/dgraph-io/badger/v4"
)

// userRecord is the persisted form of a user. models.User hides the
// password from JSON, so storage needs its own shape.
type userRecord struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	AvatarURL string `json:"avatarUrl"`
}

func toRecord(u *models.User) userRecord {
	return userRecord{ID: u.ID, Username: u.Username, Password: u.Password, AvatarURL: u.AvatarURL}
}

func (r userRecord) user() *models.User {
	return &models.User{ID: r.ID, Username: r.Username, Password: r.Password, AvatarURL: r.AvatarURL}
}

func loadUser(txn *badger.Txn, id int) (*models.User, error) {
	var rec userRecord
	if err := getEntity(txn, userKey(id), &rec); err != nil {
		return nil, err
	}
	return rec.user(), nil
}

func txnLookup(txn *badger.Txn) UserLookup {
	return func(id int) (*models.User, error) {
		return loadUser(txn, id)
	}
}

// GetUser retrieves a user by ID
func (s *BadgerStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *models.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = loadUser(txn, id)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user through the username index
func (s *BadgerStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var id int
		err = item.Value(func(val []byte) error {
			id, err = strconv.Atoi(string(val))
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to parse username index: %w", err)
		}
		user, err = loadUser(txn, id)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: username %q points at missing user %d", ErrInconsistent, username, id)
		}
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser stores a new user with the default avatar. The username
// index is written in the same transaction, so duplicates are rejected
// without creating a row.
func (s *BadgerStorage) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user := &models.User{Username: username, Password: password, AvatarURL: models.DefaultAvatarURL}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		taken, err := exists(txn, usernameKey(username))
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%q: %w", username, ErrUsernameTaken)
		}

		id, err := getNextID(txn, UserSeqKey)
		if err != nil {
			return err
		}
		user.ID = id

		data, err := marshalEntity(toRecord(user))
		if err != nil {
			return err
		}
		if err := txn.Set(userKey(id), data); err != nil {
			return err
		}
		return txn.Set(usernameKey(username), []byte(strconv.Itoa(id)))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
