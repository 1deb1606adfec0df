package services

import (
	"context"

	"socialfeed/app/models"
	"socialfeed/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	store repositories.Storage
}

// NewCommentService creates a new CommentService
func NewCommentService(store repositories.Storage) *CommentService {
	return &CommentService{store: store}
}

// CreateComment adds a comment to a post and returns it with its author.
// A missing post or user yields repositories.ErrNotFound.
func (s *CommentService) CreateComment(ctx context.Context, postID, userID int, content string) (*models.CommentWithUser, error) {
	comment, err := s.store.CreateComment(ctx, postID, userID, content)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, comment.UserID)
	if err != nil {
		return nil, err
	}
	return &models.CommentWithUser{Comment: *comment, User: user}, nil
}

// ListPostComments retrieves a post's comments, oldest first
func (s *CommentService) ListPostComments(ctx context.Context, postID int) ([]*models.CommentWithUser, error) {
	return s.store.GetCommentsByPost(ctx, postID)
}
