package controllers

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"socialfeed/app/auth"
	"socialfeed/app/logging"
	"socialfeed/app/models"
	"socialfeed/app/repositories"
	"socialfeed/app/repositories/memory"
	"socialfeed/app/repositories/storagetest"
	"socialfeed/app/services"
	"socialfeed/app/uploads"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	store    repositories.Storage
	clock    *storagetest.FakeClock
	auth     *auth.Service
	cookies  *auth.Cookies
	saver    *uploads.Saver
	router   *mux.Router
	uploadTo string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := storagetest.NewFakeClock(time.Now())
	store := memory.New(clock.Clock(), 0)
	t.Cleanup(func() { store.Close() })

	logger := logging.Discard()
	dir := t.TempDir()
	saver := uploads.NewSaver(dir, 1024)
	authSvc := auth.NewService(store, time.Hour, clock.Clock()).WithCost(bcrypt.MinCost)
	cookies := auth.NewCookies("sid", false)

	pc := NewPostController(services.NewPostService(store, saver), saver.MaxBytes, logger)
	cc := NewCommentController(services.NewCommentService(store), logger)
	ac := NewAuthController(authSvc, cookies, logger)

	router := mux.NewRouter()
	router.HandleFunc("/api/register", ac.Register).Methods("POST")
	router.HandleFunc("/api/login", ac.Login).Methods("POST")
	router.HandleFunc("/api/logout", ac.Logout).Methods("POST")
	router.HandleFunc("/api/user", ac.User).Methods("GET")
	router.HandleFunc("/api/posts", pc.Create).Methods("POST")
	router.HandleFunc("/api/posts", pc.Index).Methods("GET")
	router.HandleFunc("/api/posts/{id:[0-9]+}", pc.Show).Methods("GET")
	router.HandleFunc("/api/posts/{postId:[0-9]+}/comments", cc.Create).Methods("POST")
	router.HandleFunc("/api/posts/{postId:[0-9]+}/comments", cc.Index).Methods("GET")

	return &testEnv{
		store:    store,
		clock:    clock,
		auth:     authSvc,
		cookies:  cookies,
		saver:    saver,
		router:   router,
		uploadTo: dir,
	}
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := e.store.CreateUser(context.Background(), name, "pw")
	require.NoError(t, err)
	return user
}

func asUser(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), user))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

// multipartBody builds a form with a content field and an optional image.
func multipartBody(t *testing.T, content string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("content", content))
	if image != nil {
		fw, err := mw.CreateFormFile("image", "pic.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func discardLogger() *logrus.Logger {
	return logging.Discard()
}
