package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"socialfeed/app/models"
	"socialfeed/app/repositories"
)

// ImageSaver stores an uploaded image and returns its public URL.
type ImageSaver interface {
	Save(r io.Reader) (string, error)
	Remove(url string) error
}

// PostService handles business logic for posts
type PostService struct {
	store  repositories.Storage
	images ImageSaver
}

// NewPostService creates a new PostService
func NewPostService(store repositories.Storage, images ImageSaver) *PostService {
	return &PostService{
		store:  store,
		images: images,
	}
}

// CreatePost publishes a post for userID. image may be nil. The returned
// view includes the author.
func (s *PostService) CreatePost(ctx context.Context, userID int, content string, image io.Reader) (*models.PostWithUser, error) {
	// Reject empty content before anything touches disk
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", repositories.ErrValidation)
	}

	var imageURL *string
	if image != nil {
		url, err := s.images.Save(image)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	post, err := s.store.CreatePost(ctx, userID, content, imageURL)
	if err != nil {
		if imageURL != nil {
			s.images.Remove(*imageURL)
		}
		return nil, err
	}
	return s.store.GetPost(ctx, post.ID)
}

// GetPost retrieves a post with its author
func (s *PostService) GetPost(ctx context.Context, id int) (*models.PostWithUser, error) {
	return s.store.GetPost(ctx, id)
}

// ListPosts retrieves the feed, newest first
func (s *PostService) ListPosts(ctx context.Context) ([]*models.PostWithUser, error) {
	return s.store.GetPosts(ctx)
}
