// Package sqlitestore provides the SQLite-backed record store.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/models"
	"github.com/excommunicades/starnavi/internal/tracing"

	_ "modernc.org/sqlite"
)

// Store implements database.Store on a single SQLite database.
type Store struct {
	db *sql.DB
}

// Ensure Store implements the interface at compile time.
var _ database.Store = (*Store)(nil)

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by the schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	author_id INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	is_blocked INTEGER NOT NULL DEFAULT 0,
	auto_reply_enabled INTEGER NOT NULL DEFAULT 0,
	auto_reply_delay INTEGER NOT NULL DEFAULT 0,
	auto_reply_text TEXT,
	FOREIGN KEY(author_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);

CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	author_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL,
	is_blocked INTEGER NOT NULL DEFAULT 0,
	reply_to_comment_id INTEGER,
	FOREIGN KEY(post_id) REFERENCES posts(id),
	FOREIGN KEY(author_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);
CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments(created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_comments_reply_to ON comments(reply_to_comment_id);
`,
	// Future migrations go here.
}

// Open creates or opens the SQLite database at path and applies pending
// migrations. Parent directories are created if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is RFC 3339 with fixed nanosecond precision. RFC3339Nano
// trims trailing fractional zeros, which breaks lexical ordering between
// sub-second neighbors; a fixed width keeps ORDER BY created_at
// chronological and date() bucketing working in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

// ========== Users ==========

func (s *Store) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	ctx, span := tracing.StoreSpan(ctx, "create", "user")
	defer span.End()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO users (username, email, password_hash, created_at)
VALUES (?, ?, ?, ?)
`, user.Username, user.Email, user.PasswordHash, formatTime(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.email") {
				return 0, database.ErrDuplicateEmail
			}
			return 0, database.ErrDuplicateUsername
		}
		tracing.EndWithError(span, err)
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	user.ID = id
	return id, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?
`, id)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?
`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// ========== Posts ==========

func (s *Store) CreatePost(ctx context.Context, post *models.Post) (int64, error) {
	ctx, span := tracing.StoreSpan(ctx, "create", "post")
	defer span.End()

	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO posts (title, content, author_id, created_at, is_blocked, auto_reply_enabled, auto_reply_delay, auto_reply_text)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, post.Title, post.Content, post.AuthorID, formatTime(post.CreatedAt),
		boolToInt(post.IsBlocked), boolToInt(post.AutoReplyEnabled), post.AutoReplyDelay, post.AutoReplyText)
	if err != nil {
		tracing.EndWithError(span, err)
		return 0, fmt.Errorf("create post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	post.ID = id
	return id, nil
}

func (s *Store) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, content, author_id, created_at, is_blocked, auto_reply_enabled, auto_reply_delay, auto_reply_text
FROM posts WHERE id = ?
`, id)
	var p models.Post
	var createdAt string
	var isBlocked, replyEnabled int
	var replyText sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &createdAt,
		&isBlocked, &replyEnabled, &p.AutoReplyDelay, &replyText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.IsBlocked = isBlocked == 1
	p.AutoReplyEnabled = replyEnabled == 1
	p.AutoReplyText = replyText.String
	return &p, nil
}

func (s *Store) ListPosts(ctx context.Context, includeBlocked bool) ([]*models.Post, error) {
	query := `
SELECT id, title, content, author_id, created_at, is_blocked, auto_reply_enabled, auto_reply_delay, auto_reply_text
FROM posts`
	if !includeBlocked {
		query += ` WHERE is_blocked = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var p models.Post
		var createdAt string
		var isBlocked, replyEnabled int
		var replyText sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &createdAt,
			&isBlocked, &replyEnabled, &p.AutoReplyDelay, &replyText); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		p.IsBlocked = isBlocked == 1
		p.AutoReplyEnabled = replyEnabled == 1
		p.AutoReplyText = replyText.String
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// ========== Comments ==========

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) (int64, error) {
	ctx, span := tracing.StoreSpan(ctx, "create", "comment")
	defer span.End()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	var replyTo any
	if comment.ReplyToCommentID != nil {
		replyTo = *comment.ReplyToCommentID
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO comments (post_id, author_id, content, created_at, is_blocked, reply_to_comment_id)
VALUES (?, ?, ?, ?, ?, ?)
`, comment.PostID, comment.AuthorID, comment.Content, formatTime(comment.CreatedAt),
		boolToInt(comment.IsBlocked), replyTo)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, database.ErrDuplicateReply
		}
		tracing.EndWithError(span, err)
		return 0, fmt.Errorf("create comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	comment.ID = id
	return id, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, post_id, author_id, content, created_at, is_blocked, reply_to_comment_id
FROM comments WHERE id = ?
`, id)
	var c models.Comment
	var createdAt string
	var isBlocked int
	var replyTo sql.NullInt64
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &createdAt, &isBlocked, &replyTo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.IsBlocked = isBlocked == 1
	if replyTo.Valid {
		v := replyTo.Int64
		c.ReplyToCommentID = &v
	}
	return &c, nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID int64, includeBlocked bool) ([]*models.Comment, error) {
	query := `
SELECT id, post_id, author_id, content, created_at, is_blocked, reply_to_comment_id
FROM comments WHERE post_id = ?`
	if !includeBlocked {
		query += ` AND is_blocked = 0`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		var createdAt string
		var isBlocked int
		var replyTo sql.NullInt64
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &createdAt, &isBlocked, &replyTo); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		c.IsBlocked = isBlocked == 1
		if replyTo.Valid {
			v := replyTo.Int64
			c.ReplyToCommentID = &v
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (s *Store) CountCommentsByDay(ctx context.Context, from, to time.Time) ([]database.DayCount, error) {
	ctx, span := tracing.StoreSpan(ctx, "count_by_day", "comment")
	defer span.End()

	fromDay := from.UTC().Format("2006-01-02")
	toDay := to.UTC().Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
SELECT date(created_at), COUNT(*), COALESCE(SUM(is_blocked), 0)
FROM comments
WHERE date(created_at) BETWEEN ? AND ?
GROUP BY date(created_at)
ORDER BY date(created_at) ASC
`, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("count comments by day: %w", err)
	}
	defer rows.Close()

	var counts []database.DayCount
	for rows.Next() {
		var dc database.DayCount
		if err := rows.Scan(&dc.Day, &dc.Total, &dc.Blocked); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

func (s *Store) HasReplyTo(ctx context.Context, commentID int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM comments WHERE reply_to_comment_id = ?
`, commentID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (s *Store) GetStats(ctx context.Context) (database.Stats, error) {
	var st database.Stats
	err := s.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM users),
	(SELECT COUNT(*) FROM posts),
	(SELECT COUNT(*) FROM comments)
`).Scan(&st.Users, &st.Posts, &st.Comments)
	if err != nil {
		return database.Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
