package repositories

import (
	"context"
	"fmt"

	"socialfeed/app/models"

	"github.com/dgraph-io/badger/v4"
)

// CreatePost creates a new post after checking the author exists
func (s *BadgerStorage) CreatePost(ctx context.Context, userID int, content string, imageURL *string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	post := (&models.Post{UserID: userID, Content: content, ImageURL: imageURL}).Clone()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, userKey(userID))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id

		post.CreatedAt, err = nextStamp(txn, PostClockKey, s.clock)
		if err != nil {
			return err
		}

		data, err := marshalEntity(post)
		if err != nil {
			return err
		}
		return txn.Set(postKey(id), data)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost retrieves a post joined with its author
func (s *BadgerStorage) GetPost(ctx context.Context, id int) (*models.PostWithUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var view *models.PostWithUser
	err := s.db.View(func(txn *badger.Txn) error {
		var post models.Post
		if err := getEntity(txn, postKey(id), &post); err != nil {
			return fmt.Errorf("post %d: %w", id, err)
		}
		var err error
		view, err = JoinPost(&post, txnLookup(txn))
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetPosts retrieves the whole feed, newest first
func (s *BadgerStorage) GetPosts(ctx context.Context) ([]*models.PostWithUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var views []*models.PostWithUser
	err := s.db.View(func(txn *badger.Txn) error {
		var posts []*models.Post
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			posts = append(posts, &post)
		}

		var err error
		views, err = JoinPosts(posts, txnLookup(txn))
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}
