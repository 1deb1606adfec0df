package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"socialfeed/app/auth"
	"socialfeed/app/config"
	"socialfeed/app/controllers"
	"socialfeed/app/middleware"
	"socialfeed/app/repositories"
	"socialfeed/app/services"
	"socialfeed/app/uploads"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ShutdownTimeout bounds how long in-flight requests get after shutdown starts.
const ShutdownTimeout = 10 * time.Second

// SetupRoutes defines the application's routes on top of store and returns a router.
func SetupRoutes(cfg *config.Config, store repositories.Storage, logger logrus.FieldLogger) *mux.Router {
	router := mux.NewRouter()

	authService := auth.NewService(store, cfg.SessionTTL, time.Now)
	cookies := auth.NewCookies(cfg.SessionCookieName, cfg.CookieSecure)
	saver := uploads.NewSaver(cfg.UploadDir, cfg.MaxUploadBytes)

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Session(authService, cookies, logger))

	authController := controllers.NewAuthController(authService, cookies, logger)
	postController := controllers.NewPostController(services.NewPostService(store, saver), saver.MaxBytes, logger)
	commentController := controllers.NewCommentController(services.NewCommentService(store), logger)

	// Uploaded images
	router.PathPrefix(uploads.URLPrefix).Handler(saver.Handler()).Methods("GET", "HEAD")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	api.HandleFunc("/register", authController.Register).Methods("POST")
	api.HandleFunc("/login", authController.Login).Methods("POST")
	api.HandleFunc("/logout", authController.Logout).Methods("POST")
	api.Handle("/user", middleware.RequireAuth(http.HandlerFunc(authController.User))).Methods("GET")

	// Posts API endpoints
	posts := api.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods("GET")
	posts.Handle("", middleware.RequireAuth(http.HandlerFunc(postController.Create))).Methods("POST")

	// Comments API endpoints
	posts.HandleFunc("/{postId:[0-9]+}/comments", commentController.Index).Methods("GET")
	posts.Handle("/{postId:[0-9]+}/comments", middleware.RequireAuth(http.HandlerFunc(commentController.Create))).Methods("POST")

	return router
}

// StartServer serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, addr string, handler http.Handler, logger logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
