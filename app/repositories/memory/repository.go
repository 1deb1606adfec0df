package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"socialfeed/app/models"
	"socialfeed/app/repositories"
)

// Storage is the ephemeral Storage backend. Everything is lost on restart.
type Storage struct {
	mutex sync.RWMutex
	clock repositories.Clock

	users       map[int]*models.User
	usernames   map[string]int
	nextUserID  int
	posts       map[int]*models.Post
	postOrder   []int
	nextPostID  int
	lastPostAt  time.Time
	comments    map[int][]*models.Comment // by post id, insertion order
	nextComment int
	lastComment time.Time

	sessions *SessionStore
}

var _ repositories.Storage = (*Storage)(nil)

// New creates an empty store. Sessions are pruned every pruneInterval.
func New(clock repositories.Clock, pruneInterval time.Duration) *Storage {
	return &Storage{
		clock:       clock,
		users:       make(map[int]*models.User),
		usernames:   make(map[string]int),
		nextUserID:  1,
		posts:       make(map[int]*models.Post),
		nextPostID:  1,
		comments:    make(map[int][]*models.Comment),
		nextComment: 1,
		sessions:    NewSessionStore(clock, pruneInterval),
	}
}

func (m *Storage) Sessions() repositories.SessionStore {
	return m.sessions
}

// Close stops the session pruner.
func (m *Storage) Close() error {
	m.sessions.Close()
	return nil
}

func (m *Storage) lookup(id int) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

// Identity

func (m *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, repositories.ErrNotFound)
	}
	return user.Clone(), nil
}

func (m *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	id, ok := m.usernames[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, repositories.ErrNotFound)
	}
	return m.users[id].Clone(), nil
}

func (m *Storage) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user := &models.User{Username: username, Password: password, AvatarURL: models.DefaultAvatarURL}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrValidation, err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, taken := m.usernames[username]; taken {
		return nil, fmt.Errorf("%q: %w", username, repositories.ErrUsernameTaken)
	}
	user.ID = m.nextUserID
	m.nextUserID++
	m.users[user.ID] = user
	m.usernames[username] = user.ID
	return user.Clone(), nil
}

// Content

func (m *Storage) CreatePost(ctx context.Context, userID int, content string, imageURL *string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	post := (&models.Post{UserID: userID, Content: content, ImageURL: imageURL}).Clone()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrValidation, err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("user %d: %w", userID, repositories.ErrNotFound)
	}
	post.ID = m.nextPostID
	m.nextPostID++
	post.CreatedAt = repositories.Stamp(m.clock, m.lastPostAt)
	m.lastPostAt = post.CreatedAt
	m.posts[post.ID] = post
	m.postOrder = append(m.postOrder, post.ID)
	return post.Clone(), nil
}

func (m *Storage) GetPost(ctx context.Context, id int) (*models.PostWithUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, repositories.ErrNotFound)
	}
	return repositories.JoinPost(post, m.lookup)
}

func (m *Storage) GetPosts(ctx context.Context) ([]*models.PostWithUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	posts := make([]*models.Post, 0, len(m.postOrder))
	for _, id := range m.postOrder {
		posts = append(posts, m.posts[id])
	}
	return repositories.JoinPosts(posts, m.lookup)
}

func (m *Storage) CreateComment(ctx context.Context, postID, userID int, content string) (*models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: postID, UserID: userID, Content: content}
	if err := comment.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrValidation, err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.posts[postID]; !ok {
		return nil, fmt.Errorf("post %d: %w", postID, repositories.ErrNotFound)
	}
	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("user %d: %w", userID, repositories.ErrNotFound)
	}
	comment.ID = m.nextComment
	m.nextComment++
	comment.CreatedAt = repositories.Stamp(m.clock, m.lastComment)
	m.lastComment = comment.CreatedAt
	m.comments[postID] = append(m.comments[postID], comment)
	return comment.Clone(), nil
}

func (m *Storage) GetCommentsByPost(ctx context.Context, postID int) ([]*models.CommentWithUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return repositories.JoinComments(m.comments[postID], m.lookup)
}
