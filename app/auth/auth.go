package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialfeed/app/models"
	"socialfeed/app/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthorized means the request carries no valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned by Login for an unknown user or a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
)

// Service registers users, checks credentials and manages login sessions.
type Service struct {
	store    repositories.Storage
	sessions repositories.SessionStore
	ttl      time.Duration
	clock    repositories.Clock
	cost     int
}

func NewService(store repositories.Storage, ttl time.Duration, clock repositories.Clock) *Service {
	return &Service{
		store:    store,
		sessions: store.Sessions(),
		ttl:      ttl,
		clock:    clock,
		cost:     bcrypt.DefaultCost,
	}
}

// WithCost sets the bcrypt cost used for new passwords.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares a bcrypt hash with a plain password
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Register creates a user whose stored password is a bcrypt hash.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", repositories.ErrValidation)
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", repositories.ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.store.CreateUser(ctx, username, hash)
}

// Login returns the user when the credentials match.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// StartSession issues a new session for userID.
func (s *Service) StartSession(ctx context.Context, userID int) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// EndSession forgets a session. Unknown ids are ignored.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, sessionID)
}

// Authenticate resolves a session id to its user.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, ErrUnauthorized
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, session.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
