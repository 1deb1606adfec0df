package repositories

import (
	"context"
	"time"

	"socialfeed/app/models"
)

// Storage is the single data-access facade used by the HTTP layer.
// Exactly one implementation is constructed at process start.
type Storage interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, username, password string) (*models.User, error)

	CreatePost(ctx context.Context, userID int, content string, imageURL *string) (*models.Post, error)
	GetPosts(ctx context.Context) ([]*models.PostWithUser, error)
	GetPost(ctx context.Context, id int) (*models.PostWithUser, error)

	CreateComment(ctx context.Context, postID, userID int, content string) (*models.Comment, error)
	GetCommentsByPost(ctx context.Context, postID int) ([]*models.CommentWithUser, error)

	// Sessions returns the session store bound to this backend.
	Sessions() SessionStore
	Close() error
}

// SessionStore persists login sessions for the auth layer.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Destroy(ctx context.Context, id string) error
}

// Clock supplies creation timestamps.
type Clock func() time.Time

// Now returns the current UTC time, falling back to time.Now for a nil Clock.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// Stamp returns the current time from clock, never earlier than last.
// This keeps createdAt non-decreasing in insertion order even if the
// wall clock steps backwards.
func Stamp(clock Clock, last time.Time) time.Time {
	now := clock.Now()
	if now.Before(last) {
		return last
	}
	return now
}
