package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"socialfeed/app/repositories"
	"socialfeed/app/repositories/memory"
	"socialfeed/app/repositories/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockImageSaver struct {
	saved   []string
	removed []string
	err     error
}

func (m *mockImageSaver) Save(r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "/uploads/img" + string(rune('a'+len(m.saved))) + ".png"
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *mockImageSaver) Remove(url string) error {
	m.removed = append(m.removed, url)
	return nil
}

func newStore(t *testing.T) (repositories.Storage, *storagetest.FakeClock) {
	t.Helper()
	clock := storagetest.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	store := memory.New(clock.Clock(), 0)
	t.Cleanup(func() { store.Close() })
	return store, clock
}

func TestPostService(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(t)
	images := &mockImageSaver{}
	service := NewPostService(store, images)

	alice, err := store.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)

	t.Run("create post", func(t *testing.T) {
		post, err := service.CreatePost(ctx, alice.ID, "hello", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, post.ID)
		assert.Equal(t, "alice", post.User.Username)
		assert.Nil(t, post.ImageURL)
	})

	t.Run("create post with image", func(t *testing.T) {
		clock.Advance(time.Second)
		post, err := service.CreatePost(ctx, alice.ID, "look", strings.NewReader("png bytes"))
		require.NoError(t, err)
		require.NotNil(t, post.ImageURL)
		assert.Equal(t, images.saved[0], *post.ImageURL)
	})

	t.Run("empty content saves nothing", func(t *testing.T) {
		before := len(images.saved)
		_, err := service.CreatePost(ctx, alice.ID, "  ", strings.NewReader("png bytes"))
		assert.ErrorIs(t, err, repositories.ErrValidation)
		assert.Len(t, images.saved, before)
	})

	t.Run("unknown author removes image", func(t *testing.T) {
		_, err := service.CreatePost(ctx, 999, "ghost", strings.NewReader("png bytes"))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		require.NotEmpty(t, images.removed)
		assert.Equal(t, images.saved[len(images.saved)-1], images.removed[len(images.removed)-1])
	})

	t.Run("rejected image", func(t *testing.T) {
		failing := NewPostService(store, &mockImageSaver{err: errors.New("bad type")})
		_, err := failing.CreatePost(ctx, alice.ID, "x", strings.NewReader("exe"))
		assert.EqualError(t, err, "bad type")
	})

	t.Run("list posts", func(t *testing.T) {
		posts, err := service.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "look", posts[0].Content)
		assert.Equal(t, "hello", posts[1].Content)
	})

	t.Run("get post", func(t *testing.T) {
		post, err := service.GetPost(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "hello", post.Content)

		_, err = service.GetPost(ctx, 999)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}
