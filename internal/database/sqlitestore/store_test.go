package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "starnavi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestUser(t *testing.T, store *Store, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
	}
	_, err := store.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestCreateUser_Duplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	createTestUser(t, store, "alice")

	_, err := store.CreateUser(ctx, &models.User{
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "x",
	})
	assert.ErrorIs(t, err, database.ErrDuplicateUsername)

	_, err = store.CreateUser(ctx, &models.User{
		Username:     "bob",
		Email:        "alice@example.com",
		PasswordHash: "x",
	})
	assert.ErrorIs(t, err, database.ErrDuplicateEmail)
}

func TestGetUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice")

	byID, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "alice@example.com", byID.Email)

	byName, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = store.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestPostRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice")

	post := &models.Post{
		Title:            "Hello",
		Content:          "First post",
		AuthorID:         user.ID,
		AutoReplyEnabled: true,
		AutoReplyDelay:   5,
		AutoReplyText:    "Thanks!",
	}
	id, err := store.CreatePost(ctx, post)
	require.NoError(t, err)

	got, err := store.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, user.ID, got.AuthorID)
	assert.True(t, got.AutoReplyEnabled)
	assert.Equal(t, 5, got.AutoReplyDelay)
	assert.Equal(t, "Thanks!", got.AutoReplyText)
	assert.False(t, got.IsBlocked)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestListPosts_ExcludesBlocked(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice")

	_, err := store.CreatePost(ctx, &models.Post{Title: "ok", Content: "fine", AuthorID: user.ID})
	require.NoError(t, err)
	_, err = store.CreatePost(ctx, &models.Post{Title: "bad", Content: "nope", AuthorID: user.ID, IsBlocked: true})
	require.NoError(t, err)

	visible, err := store.ListPosts(ctx, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "ok", visible[0].Title)

	all, err := store.ListPosts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCommentRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice")
	post := &models.Post{Title: "p", Content: "c", AuthorID: user.ID}
	_, err := store.CreatePost(ctx, post)
	require.NoError(t, err)

	comment := &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "hi"}
	id, err := store.CreateComment(ctx, comment)
	require.NoError(t, err)

	got, err := store.GetCommentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.PostID)
	assert.Equal(t, "hi", got.Content)
	assert.Nil(t, got.ReplyToCommentID)

	list, err := store.ListCommentsByPost(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListComments_OrderedBySubSecondTimestamps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice")
	post := &models.Post{Title: "p", Content: "c", AuthorID: user.ID}
	_, err := store.CreatePost(ctx, post)
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// Insert the later comment first so ordering cannot lean on insert
	// order, and make the earlier one land on a whole second so a
	// trimmed fractional encoding would sort it after its neighbor.
	later := &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "later", CreatedAt: base.Add(500 * time.Millisecond)}
	_, err = store.CreateComment(ctx, later)
	require.NoError(t, err)
	earlier := &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "earlier", CreatedAt: base}
	_, err = store.CreateComment(ctx, earlier)
	require.NoError(t, err)

	list, err := store.ListCommentsByPost(ctx, post.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "earlier", list[0].Content)
	assert.Equal(t, "later", list[1].Content)

	// Identical timestamps fall back to insert order via the id tiebreaker.
	first := &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "tie-first", CreatedAt: base.Add(time.Second)}
	_, err = store.CreateComment(ctx, first)
	require.NoError(t, err)
	second := &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "tie-second", CreatedAt: base.Add(time.Second)}
	_, err = store.CreateComment(ctx, second)
	require.NoError(t, err)

	list, err = store.ListCommentsByPost(ctx, post.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "tie-first", list[2].Content)
	assert.Equal(t, "tie-second", list[3].Content)
}

func TestCreateComment_UniqueReplyConstraint(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice")
	post := &models.Post{Title: "p", Content: "c", AuthorID: user.ID}
	_, err := store.CreatePost(ctx, post)
	require.NoError(t, err)

	trigger := &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "hi"}
	_, err = store.CreateComment(ctx, trigger)
	require.NoError(t, err)

	reply := &models.Comment{
		PostID:           post.ID,
		AuthorID:         user.ID,
		Content:          "Thanks!",
		ReplyToCommentID: &trigger.ID,
	}
	_, err = store.CreateComment(ctx, reply)
	require.NoError(t, err)

	has, err := store.HasReplyTo(ctx, trigger.ID)
	require.NoError(t, err)
	assert.True(t, has)

	dup := &models.Comment{
		PostID:           post.ID,
		AuthorID:         user.ID,
		Content:          "Thanks!",
		ReplyToCommentID: &trigger.ID,
	}
	_, err = store.CreateComment(ctx, dup)
	assert.ErrorIs(t, err, database.ErrDuplicateReply)

	// Multiple comments without a trigger are unaffected by the unique index.
	_, err = store.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "a"})
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "b"})
	require.NoError(t, err)
}

func TestCountCommentsByDay(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice")
	post := &models.Post{Title: "p", Content: "c", AuthorID: user.ID}
	_, err := store.CreatePost(ctx, post)
	require.NoError(t, err)

	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 3, 3, 23, 59, 59, 0, time.UTC)

	seed := []*models.Comment{
		{PostID: post.ID, AuthorID: user.ID, Content: "a", CreatedAt: day1},
		{PostID: post.ID, AuthorID: user.ID, Content: "b", CreatedAt: day1.Add(time.Hour), IsBlocked: true},
		{PostID: post.ID, AuthorID: user.ID, Content: "c", CreatedAt: day3},
	}
	for _, c := range seed {
		_, err := store.CreateComment(ctx, c)
		require.NoError(t, err)
	}

	counts, err := store.CountCommentsByDay(ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Only days with comments appear; the middle day is absent.
	require.Len(t, counts, 2)
	assert.Equal(t, database.DayCount{Day: "2024-03-01", Total: 2, Blocked: 1}, counts[0])
	assert.Equal(t, database.DayCount{Day: "2024-03-03", Total: 1, Blocked: 0}, counts[1])
}

func TestGetStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice")
	post := &models.Post{Title: "p", Content: "c", AuthorID: user.ID}
	_, err := store.CreatePost(ctx, post)
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "hi"})
	require.NoError(t, err)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, database.Stats{Users: 1, Posts: 1, Comments: 1}, stats)
}
