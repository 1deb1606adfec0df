package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"socialfeed/app/config"
	"socialfeed/app/logging"
	"socialfeed/app/models"
	"socialfeed/app/repositories"
	"socialfeed/app/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:               "test",
		StorageBackend:    config.BackendMemory,
		UploadDir:         t.TempDir(),
		MaxUploadBytes:    5 << 20,
		SessionTTL:        time.Hour,
		SessionCookieName: "sid",
	}
}

func backends(t *testing.T) map[string]func() repositories.Storage {
	return map[string]func() repositories.Storage{
		"memory": func() repositories.Storage {
			return memory.New(nil, 0)
		},
		"badger": func() repositories.Storage {
			store, err := repositories.OpenBadger("", nil)
			require.NoError(t, err)
			return store
		},
	}
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path, contentType string, body io.Reader) (int, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c *client) postJSON(path, payload string) (int, []byte) {
	return c.do(http.MethodPost, path, "application/json", strings.NewReader(payload))
}

func (c *client) postForm(path, content string, img []byte) (int, []byte) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(c.t, mw.WriteField("content", content))
	if img != nil {
		fw, err := mw.CreateFormFile("image", "pic.png")
		require.NoError(c.t, err)
		_, err = fw.Write(img)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())
	return c.do(http.MethodPost, path, mw.FormDataContentType(), &body)
}

func TestAPIRoutes(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open()
			defer store.Close()
			router := SetupRoutes(testConfig(t), store, logging.Discard())
			srv := httptest.NewServer(router)
			defer srv.Close()

			alice := newClient(t, srv)
			bob := newClient(t, srv)

			status, _ := alice.do(http.MethodGet, "/api/user", "", nil)
			require.Equal(t, http.StatusUnauthorized, status)

			status, body := alice.postJSON("/api/register", `{"username":"alice","password":"pw1"}`)
			require.Equal(t, http.StatusCreated, status, string(body))
			status, _ = bob.postJSON("/api/register", `{"username":"bob","password":"pw2"}`)
			require.Equal(t, http.StatusCreated, status)

			status, body = alice.do(http.MethodGet, "/api/user", "", nil)
			require.Equal(t, http.StatusOK, status)
			assert.Contains(t, string(body), `"username":"alice"`)

			// Anonymous writes are rejected
			anon := newClient(t, srv)
			status, _ = anon.postForm("/api/posts", "nope", nil)
			assert.Equal(t, http.StatusUnauthorized, status)

			var img bytes.Buffer
			require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 2, 2))))
			status, body = alice.postForm("/api/posts", "first post", img.Bytes())
			require.Equal(t, http.StatusCreated, status, string(body))

			var post models.PostWithUser
			require.NoError(t, json.Unmarshal(body, &post))
			require.NotNil(t, post.ImageURL)
			assert.Equal(t, "alice", post.User.Username)

			status, data := anon.do(http.MethodGet, *post.ImageURL, "", nil)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, img.Bytes(), data)

			status, body = bob.postJSON("/api/posts/1/comments", `{"content":"welcome"}`)
			require.Equal(t, http.StatusCreated, status, string(body))
			status, _ = bob.postJSON("/api/posts/42/comments", `{"content":"lost"}`)
			assert.Equal(t, http.StatusNotFound, status)

			status, body = anon.do(http.MethodGet, "/api/posts", "", nil)
			require.Equal(t, http.StatusOK, status)
			var feed []*models.PostWithUser
			require.NoError(t, json.Unmarshal(body, &feed))
			require.Len(t, feed, 1)

			status, body = anon.do(http.MethodGet, "/api/posts/1/comments", "", nil)
			require.Equal(t, http.StatusOK, status)
			var comments []*models.CommentWithUser
			require.NoError(t, json.Unmarshal(body, &comments))
			require.Len(t, comments, 1)
			assert.Equal(t, "bob", comments[0].User.Username)

			status, _ = anon.do(http.MethodGet, "/api/posts/1", "", nil)
			assert.Equal(t, http.StatusOK, status)

			status, _ = alice.postJSON("/api/logout", "")
			assert.Equal(t, http.StatusOK, status)
			status, _ = alice.do(http.MethodGet, "/api/user", "", nil)
			assert.Equal(t, http.StatusUnauthorized, status)

			status, _ = alice.postJSON("/api/login", `{"username":"alice","password":"pw1"}`)
			assert.Equal(t, http.StatusOK, status)
			status, _ = alice.do(http.MethodGet, "/api/user", "", nil)
			assert.Equal(t, http.StatusOK, status)
		})
	}
}

func TestJSONContentType(t *testing.T) {
	store := memory.New(nil, 0)
	defer store.Close()
	router := SetupRoutes(testConfig(t), store, logging.Discard())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStartServerShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, addr, http.NotFoundHandler(), logging.Discard())
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("server did not stop")
	}
}

func TestStartServerBadAddress(t *testing.T) {
	err := StartServer(context.Background(), "127.0.0.1:-1", http.NotFoundHandler(), logging.Discard())
	assert.Error(t, err)
}
