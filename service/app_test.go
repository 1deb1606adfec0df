package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"socialfeed/app/config"
	"socialfeed/app/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bgctx = context.Background()

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr string
	}{
		{"memory", &config.Config{StorageBackend: config.BackendMemory}, ""},
		{"badger", &config.Config{StorageBackend: config.BackendBadger, DBPath: filepath.Join(dir, "nested", "db")}, ""},
		{"unknown", &config.Config{StorageBackend: "postgres"}, `unknown storage backend "postgres"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenStorage(tt.cfg, logging.Discard())
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			user, err := store.CreateUser(bgctx, "alice", "hash")
			require.NoError(t, err)
			assert.Equal(t, 1, user.ID)
		})
	}
}

func TestRunAppServer(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Env:               "test",
		Port:              "0",
		StorageBackend:    config.BackendBadger,
		DBPath:            filepath.Join(dir, "db"),
		UploadDir:         filepath.Join(dir, "uploads"),
		MaxUploadBytes:    1 << 20,
		SessionTTL:        time.Hour,
		SessionCookieName: "sid",
	}

	ctx, cancel := context.WithCancel(bgctx)
	done := make(chan error, 1)
	go func() { done <- RunAppServer(ctx, cfg, logging.Discard()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.DirExists(t, cfg.UploadDir)

	// The store was closed, so the directory can be reopened.
	store, err := OpenStorage(cfg, logging.Discard())
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestRunAppServerBadBackend(t *testing.T) {
	cfg := &config.Config{StorageBackend: "nope"}
	err := RunAppServer(bgctx, cfg, logging.Discard())
	assert.Error(t, err)
}
