// Package storagetest holds the behaviour every Storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"socialfeed/app/models"
	"socialfeed/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns a fresh, empty backend using clock for timestamps.
type Opener func(t *testing.T, clock repositories.Clock) repositories.Storage

func open(t *testing.T, opener Opener, clock *FakeClock) repositories.Storage {
	t.Helper()
	store := opener(t, clock.Clock())
	t.Cleanup(func() { store.Close() })
	return store
}

// Run executes the shared contract against a backend.
func Run(t *testing.T, opener Opener) {
	t.Run("identity", func(t *testing.T) { testIdentity(t, opener) })
	t.Run("posts", func(t *testing.T) { testPosts(t, opener) })
	t.Run("feed ordering", func(t *testing.T) { testFeedOrdering(t, opener) })
	t.Run("comments", func(t *testing.T) { testComments(t, opener) })
	t.Run("views are copies", func(t *testing.T) { testViewIsolation(t, opener) })
	t.Run("concurrent creates", func(t *testing.T) { testConcurrentCreates(t, opener) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, opener) })
}

func testIdentity(t *testing.T, opener Opener) {
	ctx := context.Background()
	store := open(t, opener, NewFakeClock(time.Now()))

	alice, err := store.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.ID)
	assert.Equal(t, models.DefaultAvatarURL, alice.AvatarURL)

	byName, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Equal(t, "https://images.unsplash.com/photo-1708860028064-3303a016e88f", byName.AvatarURL)
	assert.Equal(t, "pw", byName.Password)

	byID, err := store.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, byID)

	t.Run("lookups are case sensitive", func(t *testing.T) {
		_, err := store.GetUserByUsername(ctx, "Alice")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.GetUser(ctx, 999)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := store.CreateUser(ctx, "alice", "other")
		assert.ErrorIs(t, err, repositories.ErrUsernameTaken)

		still, err := store.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "pw", still.Password)

		bob, err := store.CreateUser(ctx, "bob", "pw")
		require.NoError(t, err)
		assert.Equal(t, 2, bob.ID, "rejected create must not consume an id")
	})

	t.Run("validation", func(t *testing.T) {
		_, err := store.CreateUser(ctx, "", "pw")
		assert.ErrorIs(t, err, repositories.ErrValidation)
		_, err = store.CreateUser(ctx, "carol", "")
		assert.ErrorIs(t, err, repositories.ErrValidation)
	})
}

func testPosts(t *testing.T, opener Opener) {
	ctx := context.Background()
	store := open(t, opener, NewFakeClock(time.Now()))

	alice, err := store.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)

	t.Run("create and get", func(t *testing.T) {
		post, err := store.CreatePost(ctx, alice.ID, "hi", nil)
		require.NoError(t, err)
		assert.Greater(t, post.ID, 0)
		assert.False(t, post.CreatedAt.IsZero())
		assert.Nil(t, post.ImageURL)

		view, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", view.User.Username)
		assert.Equal(t, alice.ID, view.UserID)
		assert.Equal(t, "hi", view.Content)
		assert.True(t, post.CreatedAt.Equal(view.CreatedAt))
	})

	t.Run("image url kept", func(t *testing.T) {
		url := "/uploads/cat.png"
		post, err := store.CreatePost(ctx, alice.ID, "look", &url)
		require.NoError(t, err)
		require.NotNil(t, post.ImageURL)

		view, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		require.NotNil(t, view.ImageURL)
		assert.Equal(t, url, *view.ImageURL)
	})

	t.Run("unknown author", func(t *testing.T) {
		before, err := store.GetPosts(ctx)
		require.NoError(t, err)

		_, err = store.CreatePost(ctx, 999, "ghost", nil)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		after, err := store.GetPosts(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := store.CreatePost(ctx, alice.ID, "", nil)
		assert.ErrorIs(t, err, repositories.ErrValidation)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := store.GetPost(ctx, 999)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func testFeedOrdering(t *testing.T, opener Opener) {
	ctx := context.Background()

	t.Run("newest first", func(t *testing.T) {
		clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		store := open(t, opener, clock)
		user, err := store.CreateUser(ctx, "alice", "pw")
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err := store.CreatePost(ctx, user.ID, fmt.Sprintf("post %d", i), nil)
			require.NoError(t, err)
			clock.Advance(time.Second)
		}

		posts, err := store.GetPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 5)
		assert.Equal(t, "post 4", posts[0].Content)
		for i := 1; i < len(posts); i++ {
			assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt))
		}
	})

	t.Run("ties keep most recent insert first", func(t *testing.T) {
		clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		store := open(t, opener, clock)
		user, err := store.CreateUser(ctx, "alice", "pw")
		require.NoError(t, err)

		for _, content := range []string{"a", "b", "c"} {
			_, err := store.CreatePost(ctx, user.ID, content, nil)
			require.NoError(t, err)
		}

		posts, err := store.GetPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []string{"c", "b", "a"}, contents(posts))
	})

	t.Run("clock stepping backwards", func(t *testing.T) {
		clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		store := open(t, opener, clock)
		user, err := store.CreateUser(ctx, "alice", "pw")
		require.NoError(t, err)

		first, err := store.CreatePost(ctx, user.ID, "first", nil)
		require.NoError(t, err)
		clock.Advance(-time.Hour)
		second, err := store.CreatePost(ctx, user.ID, "second", nil)
		require.NoError(t, err)

		assert.False(t, second.CreatedAt.Before(first.CreatedAt))

		posts, err := store.GetPosts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first"}, contents(posts))
	})

	t.Run("empty feed", func(t *testing.T) {
		store := open(t, opener, NewFakeClock(time.Now()))
		posts, err := store.GetPosts(ctx)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})
}

func testComments(t *testing.T, opener Opener) {
	ctx := context.Background()
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	store := open(t, opener, clock)

	alice, err := store.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)
	bob, err := store.CreateUser(ctx, "bob", "pw")
	require.NoError(t, err)
	post, err := store.CreatePost(ctx, alice.ID, "hello", nil)
	require.NoError(t, err)
	other, err := store.CreatePost(ctx, bob.ID, "elsewhere", nil)
	require.NoError(t, err)

	t.Run("oldest first", func(t *testing.T) {
		authors := []*models.User{bob, alice, bob}
		for i, author := range authors {
			_, err := store.CreateComment(ctx, post.ID, author.ID, fmt.Sprintf("c%d", i))
			require.NoError(t, err)
			if i == 0 {
				clock.Advance(time.Second)
			}
		}
		_, err := store.CreateComment(ctx, other.ID, alice.ID, "not here")
		require.NoError(t, err)

		comments, err := store.GetCommentsByPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 3)
		for i, c := range comments {
			assert.Equal(t, fmt.Sprintf("c%d", i), c.Content)
			assert.Equal(t, post.ID, c.PostID)
			assert.Equal(t, authors[i].Username, c.User.Username)
			if i > 0 {
				assert.False(t, c.CreatedAt.Before(comments[i-1].CreatedAt))
			}
		}
	})

	t.Run("missing post leaves no trace", func(t *testing.T) {
		_, err := store.CreateComment(ctx, 999, alice.ID, "x")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		for _, id := range []int{post.ID, other.ID, 999} {
			comments, err := store.GetCommentsByPost(ctx, id)
			require.NoError(t, err)
			for _, c := range comments {
				assert.NotEqual(t, "x", c.Content)
			}
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.CreateComment(ctx, post.ID, 999, "x")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := store.CreateComment(ctx, post.ID, alice.ID, "")
		assert.ErrorIs(t, err, repositories.ErrValidation)
	})

	t.Run("unknown post lists nothing", func(t *testing.T) {
		comments, err := store.GetCommentsByPost(ctx, 12345)
		require.NoError(t, err)
		assert.NotNil(t, comments)
		assert.Empty(t, comments)
	})
}

func testViewIsolation(t *testing.T, opener Opener) {
	ctx := context.Background()
	store := open(t, opener, NewFakeClock(time.Now()))

	user, err := store.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)
	post, err := store.CreatePost(ctx, user.ID, "original", nil)
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, post.ID, user.ID, "reply")
	require.NoError(t, err)

	user.Username = "mallory"
	post.Content = "mutated"
	view, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	view.User.Username = "mallory"
	view.Content = "mutated"

	comments, err := store.GetCommentsByPost(ctx, post.ID)
	require.NoError(t, err)
	comments[0].User.AvatarURL = "changed"

	again, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Content)
	assert.Equal(t, "alice", again.User.Username)
	assert.Equal(t, models.DefaultAvatarURL, again.User.AvatarURL)
}

func testConcurrentCreates(t *testing.T, opener Opener) {
	ctx := context.Background()
	store := open(t, opener, NewFakeClock(time.Now()))

	user, err := store.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)

	const n = 25
	ids := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			post, err := store.CreatePost(ctx, user.ID, fmt.Sprintf("post %d", i), nil)
			if assert.NoError(t, err) {
				ids <- post.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	posts, err := store.GetPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, n)
}

func testSessions(t *testing.T, opener Opener) {
	ctx := context.Background()
	clock := NewFakeClock(time.Now())
	store := open(t, opener, clock)
	sessions := store.Sessions()

	session := &models.Session{ID: "sid-1", UserID: 7, ExpiresAt: clock.Now().Add(time.Hour)}
	require.NoError(t, sessions.Save(ctx, session))

	got, err := sessions.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.UserID)

	_, err = sessions.Get(ctx, "nope")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	t.Run("expired", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		_, err := sessions.Get(ctx, "sid-1")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		stale := &models.Session{ID: "sid-2", UserID: 7, ExpiresAt: clock.Now().Add(-time.Minute)}
		assert.ErrorIs(t, sessions.Save(ctx, stale), repositories.ErrValidation)
	})

	t.Run("destroy", func(t *testing.T) {
		fresh := &models.Session{ID: "sid-3", UserID: 8, ExpiresAt: clock.Now().Add(time.Hour)}
		require.NoError(t, sessions.Save(ctx, fresh))
		require.NoError(t, sessions.Destroy(ctx, "sid-3"))
		_, err := sessions.Get(ctx, "sid-3")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		assert.NoError(t, sessions.Destroy(ctx, "never-existed"))
	})
}

func contents(posts []*models.PostWithUser) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Content
	}
	return out
}
