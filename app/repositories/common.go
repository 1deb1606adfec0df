package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	UserKeyPrefix     = "user:"
	UsernameKeyPrefix = "username:"
	PostKeyPrefix     = "post:"
	CommentKeyPrefix  = "comment:"
	SessionKeyPrefix  = "session:"

	// Sequence keys for auto-incrementing IDs
	UserSeqKey    = "seq:user"
	PostSeqKey    = "seq:post"
	CommentSeqKey = "seq:comment"

	// Last assigned createdAt per entity type
	PostClockKey    = "clock:post"
	CommentClockKey = "clock:comment"
)

// Ids are zero padded so badger's lexicographic iteration matches insertion order.
func userKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%010d", UserKeyPrefix, id))
}

func usernameKey(username string) []byte {
	return []byte(UsernameKeyPrefix + username)
}

func postKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%010d", PostKeyPrefix, id))
}

func commentKey(postID, id int) []byte {
	return []byte(fmt.Sprintf("%s%010d:%010d", CommentKeyPrefix, postID, id))
}

func commentPrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%010d:", CommentKeyPrefix, postID))
}

func sessionKey(id string) []byte {
	return []byte(SessionKeyPrefix + id)
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id int
	item, err := txn.Get([]byte(seqKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		id = 1
	} else if err != nil {
		return 0, fmt.Errorf("failed to get sequence: %w", err)
	} else {
		err = item.Value(func(val []byte) error {
			last, err := strconv.Atoi(string(val))
			if err != nil {
				return fmt.Errorf("failed to parse sequence: %w", err)
			}
			id = last + 1
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	if err := txn.Set([]byte(seqKey), []byte(strconv.Itoa(id))); err != nil {
		return 0, fmt.Errorf("failed to update sequence: %w", err)
	}
	return id, nil
}

// nextStamp assigns a createdAt that never precedes the one stored under clockKey.
func nextStamp(txn *badger.Txn, clockKey string, clock Clock) (time.Time, error) {
	var last time.Time
	item, err := txn.Get([]byte(clockKey))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return time.Time{}, fmt.Errorf("failed to get clock: %w", err)
	default:
		err = item.Value(func(val []byte) error {
			return last.UnmarshalText(val)
		})
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse clock: %w", err)
		}
	}

	stamp := Stamp(clock, last)
	text, err := stamp.MarshalText()
	if err != nil {
		return time.Time{}, err
	}
	if err := txn.Set([]byte(clockKey), text); err != nil {
		return time.Time{}, fmt.Errorf("failed to update clock: %w", err)
	}
	return stamp, nil
}

// exists reports whether key is present in the transaction's view.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getEntity loads the JSON value at key into v, mapping a missing key to ErrNotFound.
func getEntity(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, v)
	})
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
