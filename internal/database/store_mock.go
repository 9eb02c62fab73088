package database

import (
	"context"
	"time"

	"github.com/excommunicades/starnavi/internal/models"
)

// MockStore is a mock implementation of the Store interface for testing.
// Uses function fields to allow tests to inject custom behavior.
type MockStore struct {
	CreateUserFunc        func(ctx context.Context, user *models.User) (int64, error)
	GetUserByIDFunc       func(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsernameFunc func(ctx context.Context, username string) (*models.User, error)

	CreatePostFunc  func(ctx context.Context, post *models.Post) (int64, error)
	GetPostByIDFunc func(ctx context.Context, id int64) (*models.Post, error)
	ListPostsFunc   func(ctx context.Context, includeBlocked bool) ([]*models.Post, error)

	CreateCommentFunc      func(ctx context.Context, comment *models.Comment) (int64, error)
	GetCommentByIDFunc     func(ctx context.Context, id int64) (*models.Comment, error)
	ListCommentsByPostFunc func(ctx context.Context, postID int64, includeBlocked bool) ([]*models.Comment, error)

	CountCommentsByDayFunc func(ctx context.Context, from, to time.Time) ([]DayCount, error)
	HasReplyToFunc         func(ctx context.Context, commentID int64) (bool, error)
	GetStatsFunc           func(ctx context.Context) (Stats, error)

	CloseFunc func() error
}

// Ensure MockStore implements the interface at compile time.
var _ Store = (*MockStore)(nil)

func (m *MockStore) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	return 0, nil
}

func (m *MockStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetUserByUsernameFunc != nil {
		return m.GetUserByUsernameFunc(ctx, username)
	}
	return nil, ErrNotFound
}

func (m *MockStore) CreatePost(ctx context.Context, post *models.Post) (int64, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, post)
	}
	return 0, nil
}

func (m *MockStore) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	if m.GetPostByIDFunc != nil {
		return m.GetPostByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockStore) ListPosts(ctx context.Context, includeBlocked bool) ([]*models.Post, error) {
	if m.ListPostsFunc != nil {
		return m.ListPostsFunc(ctx, includeBlocked)
	}
	return nil, nil
}

func (m *MockStore) CreateComment(ctx context.Context, comment *models.Comment) (int64, error) {
	if m.CreateCommentFunc != nil {
		return m.CreateCommentFunc(ctx, comment)
	}
	return 0, nil
}

func (m *MockStore) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	if m.GetCommentByIDFunc != nil {
		return m.GetCommentByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *MockStore) ListCommentsByPost(ctx context.Context, postID int64, includeBlocked bool) ([]*models.Comment, error) {
	if m.ListCommentsByPostFunc != nil {
		return m.ListCommentsByPostFunc(ctx, postID, includeBlocked)
	}
	return nil, nil
}

func (m *MockStore) CountCommentsByDay(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	if m.CountCommentsByDayFunc != nil {
		return m.CountCommentsByDayFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *MockStore) HasReplyTo(ctx context.Context, commentID int64) (bool, error) {
	if m.HasReplyToFunc != nil {
		return m.HasReplyToFunc(ctx, commentID)
	}
	return false, nil
}

func (m *MockStore) GetStats(ctx context.Context) (Stats, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx)
	}
	return Stats{}, nil
}

func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
