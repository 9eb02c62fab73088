// Package database defines the record store abstraction used by every
// service in the system. The concrete implementation lives in the
// sqlitestore subpackage; tests use the MockStore.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/excommunicades/starnavi/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrDuplicateReply is returned when an auto-reply already exists for
	// the triggering comment. The scheduler relies on this to stay
	// at-most-once under duplicate firing.
	ErrDuplicateReply = errors.New("auto reply already exists")
)

// DayCount holds per-day comment counts as produced by the store.
// Day is a UTC calendar day formatted YYYY-MM-DD.
type DayCount struct {
	Day     string
	Total   int
	Blocked int
}

// Stats holds aggregate record counts for the metrics collector.
type Stats struct {
	Users    int
	Posts    int
	Comments int
}

// Store defines all record store operations. All methods accept a
// context.Context to support cancellation and timeouts.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// Post operations
	CreatePost(ctx context.Context, post *models.Post) (int64, error)
	GetPostByID(ctx context.Context, id int64) (*models.Post, error)
	ListPosts(ctx context.Context, includeBlocked bool) ([]*models.Post, error)

	// Comment operations
	CreateComment(ctx context.Context, comment *models.Comment) (int64, error)
	GetCommentByID(ctx context.Context, id int64) (*models.Comment, error)
	ListCommentsByPost(ctx context.Context, postID int64, includeBlocked bool) ([]*models.Comment, error)

	// CountCommentsByDay returns per-day totals for comments created in
	// the inclusive UTC day range [from, to]. Days without comments are
	// absent from the result; callers zero-fill.
	CountCommentsByDay(ctx context.Context, from, to time.Time) ([]DayCount, error)

	// HasReplyTo reports whether an auto-reply for the given triggering
	// comment has already been created.
	HasReplyTo(ctx context.Context, commentID int64) (bool, error)

	// GetStats returns aggregate record counts.
	GetStats(ctx context.Context) (Stats, error)

	Close() error
}
