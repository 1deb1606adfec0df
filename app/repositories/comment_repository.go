package repositories

import (
	"context"
	"fmt"

	"socialfeed/app/models"

	"github.com/dgraph-io/badger/v4"
)

// CreateComment creates a new comment after checking the post and the author exist
func (s *BadgerStorage) CreateComment(ctx context.Context, postID, userID int, content string) (*models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: postID, UserID: userID, Content: content}
	if err := comment.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, postKey(postID))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		ok, err = exists(txn, userKey(userID))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		comment.CreatedAt, err = nextStamp(txn, CommentClockKey, s.clock)
		if err != nil {
			return err
		}

		data, err := marshalEntity(comment)
		if err != nil {
			return err
		}
		// Post ID in the key keeps a post's thread contiguous for listing
		return txn.Set(commentKey(postID, id), data)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// GetCommentsByPost retrieves a post's comments, oldest first
func (s *BadgerStorage) GetCommentsByPost(ctx context.Context, postID int) ([]*models.CommentWithUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var views []*models.CommentWithUser
	err := s.db.View(func(txn *badger.Txn) error {
		var comments []*models.Comment
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := commentPrefix(postID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			comments = append(comments, &comment)
		}

		var err error
		views, err = JoinComments(comments, txnLookup(txn))
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}
