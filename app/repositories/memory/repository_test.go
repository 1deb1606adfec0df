package memory

import (
	"context"
	"testing"
	"time"

	"socialfeed/app/models"
	"socialfeed/app/repositories"
	"socialfeed/app/repositories/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, clock repositories.Clock) repositories.Storage {
		return New(clock, 0)
	})
}

func TestStorageDanglingAuthor(t *testing.T) {
	ctx := context.Background()
	store := New(nil, 0)
	defer store.Close()

	user, err := store.CreateUser(ctx, "alice", "pw")
	require.NoError(t, err)
	_, err = store.CreatePost(ctx, user.ID, "hi", nil)
	require.NoError(t, err)

	store.mutex.Lock()
	delete(store.users, user.ID)
	store.mutex.Unlock()

	_, err = store.GetPosts(ctx)
	assert.ErrorIs(t, err, repositories.ErrInconsistent)
}

func TestSessionStorePrune(t *testing.T) {
	ctx := context.Background()
	clock := storagetest.NewFakeClock(time.Now())
	sessions := NewSessionStore(clock.Clock(), time.Hour)
	defer sessions.Close()

	require.NoError(t, sessions.Save(ctx, &models.Session{ID: "short", UserID: 1, ExpiresAt: clock.Now().Add(time.Minute)}))
	require.NoError(t, sessions.Save(ctx, &models.Session{ID: "long", UserID: 2, ExpiresAt: clock.Now().Add(time.Hour)}))
	assert.Equal(t, 2, sessions.Len())

	assert.Equal(t, 0, sessions.Prune())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, sessions.Prune())
	assert.Equal(t, 1, sessions.Len())

	got, err := sessions.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UserID)
}

func TestSessionStorePrunesInBackground(t *testing.T) {
	ctx := context.Background()
	clock := storagetest.NewFakeClock(time.Now())
	sessions := NewSessionStore(clock.Clock(), 5*time.Millisecond)
	defer sessions.Close()

	require.NoError(t, sessions.Save(ctx, &models.Session{ID: "sid", UserID: 1, ExpiresAt: clock.Now().Add(time.Minute)}))
	clock.Advance(time.Hour)

	assert.Eventually(t, func() bool {
		return sessions.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSessionStoreCloseTwice(t *testing.T) {
	sessions := NewSessionStore(nil, time.Minute)
	sessions.Close()
	assert.NotPanics(t, sessions.Close)
}

func TestSessionStoreReturnsCopy(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionStore(nil, 0)
	defer sessions.Close()

	require.NoError(t, sessions.Save(ctx, &models.Session{ID: "sid", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}))
	got, err := sessions.Get(ctx, "sid")
	require.NoError(t, err)
	got.UserID = 99

	again, err := sessions.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 1, again.UserID)
}
