package repositories

import (
	"errors"
	"fmt"
	"sort"

	"socialfeed/app/models"
)

// UserLookup resolves an author by id, returning ErrNotFound when absent.
type UserLookup func(id int) (*models.User, error)

// cached memoizes lookups so a feed with many posts by one author
// resolves that author once.
func (l UserLookup) cached() UserLookup {
	seen := make(map[int]*models.User)
	return func(id int) (*models.User, error) {
		if u, ok := seen[id]; ok {
			return u, nil
		}
		u, err := l(id)
		if err != nil {
			return nil, err
		}
		seen[id] = u
		return u, nil
	}
}

func resolveAuthor(lookup UserLookup, kind string, id, userID int) (*models.User, error) {
	user, err := lookup(userID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %d references missing user %d", ErrInconsistent, kind, id, userID)
	}
	if err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// JoinPost embeds the author into a single post.
func JoinPost(post *models.Post, lookup UserLookup) (*models.PostWithUser, error) {
	user, err := resolveAuthor(lookup, "post", post.ID, post.UserID)
	if err != nil {
		return nil, err
	}
	return &models.PostWithUser{Post: *post.Clone(), User: user}, nil
}

// JoinPosts builds the public feed from posts given in insertion order.
// The result is newest first; equal timestamps keep the most recently
// inserted post first.
func JoinPosts(posts []*models.Post, lookup UserLookup) ([]*models.PostWithUser, error) {
	lookup = lookup.cached()
	out := make([]*models.PostWithUser, 0, len(posts))
	for i := len(posts) - 1; i >= 0; i-- {
		view, err := JoinPost(posts[i], lookup)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// JoinComments builds a post's comment thread from comments given in
// insertion order. The result is oldest first, ties in insertion order.
func JoinComments(comments []*models.Comment, lookup UserLookup) ([]*models.CommentWithUser, error) {
	lookup = lookup.cached()
	out := make([]*models.CommentWithUser, 0, len(comments))
	for _, c := range comments {
		user, err := resolveAuthor(lookup, "comment", c.ID, c.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.CommentWithUser{Comment: *c.Clone(), User: user})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
