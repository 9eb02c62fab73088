// Package models defines the core entities and the request/response
// shapes exchanged with the HTTP API.
package models

import (
	"fmt"
	"strings"
	"time"
)

// User is a registered account. The password is stored as a bcrypt hash
// and never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Post is a published entry. IsBlocked is decided once by the moderation
// gate when the post is created and never recomputed.
type Post struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	AuthorID         int64     `json:"author_id"`
	CreatedAt        time.Time `json:"created_at"`
	IsBlocked        bool      `json:"is_blocked"`
	AutoReplyEnabled bool      `json:"auto_reply_enabled"`
	AutoReplyDelay   int       `json:"auto_reply_delay"` // seconds
	AutoReplyText    string    `json:"auto_reply_text,omitempty"`
}

// ReplyDelay returns the configured auto-reply delay as a duration.
// Negative values are clamped to zero.
func (p *Post) ReplyDelay() time.Duration {
	if p.AutoReplyDelay <= 0 {
		return 0
	}
	return time.Duration(p.AutoReplyDelay) * time.Second
}

// Comment belongs to a post. ReplyToCommentID is set only on auto-replies
// and points at the comment that triggered them; the store enforces
// uniqueness on it so a trigger can produce at most one reply.
type Comment struct {
	ID               int64     `json:"id"`
	PostID           int64     `json:"post_id"`
	AuthorID         int64     `json:"author_id"`
	Content          string    `json:"content"`
	CreatedAt        time.Time `json:"created_at"`
	IsBlocked        bool      `json:"is_blocked"`
	ReplyToCommentID *int64    `json:"reply_to_comment_id,omitempty"`
}

// IsAutoReply reports whether the comment was created by the auto-reply
// scheduler rather than a user.
func (c *Comment) IsAutoReply() bool {
	return c.ReplyToCommentID != nil
}

// RegisterRequest is the payload for POST /api/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the registration payload.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	at := strings.Index(r.Email, "@")
	if at <= 0 || at == len(r.Email)-1 || strings.ContainsAny(r.Email, " \t") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// LoginRequest is the payload for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// CreatePostRequest is the payload for POST /api/posts.
type CreatePostRequest struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	AutoReplyEnabled bool   `json:"auto_reply_enabled"`
	AutoReplyDelay   int    `json:"auto_reply_delay"`
	AutoReplyText    string `json:"auto_reply_text"`
}

// Validate checks the post payload.
func (r *CreatePostRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if r.AutoReplyDelay < 0 {
		return fmt.Errorf("auto_reply_delay must be non-negative")
	}
	if r.AutoReplyEnabled && strings.TrimSpace(r.AutoReplyText) == "" {
		return fmt.Errorf("auto_reply_text is required when auto reply is enabled")
	}
	return nil
}

// CreateCommentRequest is the payload for POST /api/posts/{id}/comments.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// Validate checks the comment payload.
func (r *CreateCommentRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// DayBreakdown is one entry of the daily comment aggregation. Date is a
// calendar day in UTC, formatted YYYY-MM-DD.
type DayBreakdown struct {
	Date    string `json:"date"`
	Total   int    `json:"total_count"`
	Blocked int    `json:"blocked_count"`
}
