package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultAvatarURL is assigned to every user created without an avatar.
const DefaultAvatarURL = "https://images.unsplash.com/photo-1708860028064-3303a016e88f"

var validate = validator.New(validator.WithRequiredStructEnabled())

// User is a registered account. Password holds opaque credential material
// and is never serialized in API output.
type User struct {
	ID        int    `json:"id" validate:"gte=0"`
	Username  string `json:"username" validate:"required,max=64"`
	Password  string `json:"-" validate:"required"`
	AvatarURL string `json:"avatarUrl" validate:"required"`
}

// Post is a piece of content published by a user.
type Post struct {
	ID        int       `json:"id" validate:"gte=0"`
	UserID    int       `json:"userId"`
	Content   string    `json:"content" validate:"required"`
	ImageURL  *string   `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        int       `json:"id" validate:"gte=0"`
	PostID    int       `json:"postId"`
	UserID    int       `json:"userId"`
	Content   string    `json:"content" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostWithUser is a post joined with its author.
type PostWithUser struct {
	Post
	User *User `json:"user"`
}

// CommentWithUser is a comment joined with its author.
type CommentWithUser struct {
	Comment
	User *User `json:"user"`
}

// Session ties a browser session id to an authenticated user.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
