package handlers

import (
	"net/http"
	"time"

	"github.com/excommunicades/starnavi/internal/metrics"
	"github.com/excommunicades/starnavi/internal/middleware"
	"github.com/excommunicades/starnavi/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// postDetailResponse bundles a post with its visible comments.
type postDetailResponse struct {
	Post     *models.Post      `json:"post"`
	Comments []*models.Comment `json:"comments"`
}

// HandlePostCreate creates a post. Content is run through the moderation
// gate once, at write time; the verdict is stored with the post and
// never recomputed.
func (h *Handler) HandlePostCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	verdict := h.gate.Classify(req.Title + "\n" + req.Content)

	post := &models.Post{
		Title:            req.Title,
		Content:          req.Content,
		AuthorID:         userID,
		CreatedAt:        time.Now().UTC(),
		IsBlocked:        verdict.IsBlocked(),
		AutoReplyEnabled: req.AutoReplyEnabled,
		AutoReplyDelay:   req.AutoReplyDelay,
		AutoReplyText:    req.AutoReplyText,
	}

	id, err := h.store.CreatePost(r.Context(), post)
	if err != nil {
		writeStoreError(w, err, "post")
		return
	}
	post.ID = id

	if post.IsBlocked {
		metrics.PostsBlockedTotal.Inc()
		log.Info().Int64("post_id", id).Int64("author_id", userID).Msg("Post blocked by moderation")
	}

	writeJSON(w, http.StatusCreated, post)
}

// HandlePostList returns all visible posts. Blocked posts are excluded.
func (h *Handler) HandlePostList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts(r.Context(), false)
	if err != nil {
		writeStoreError(w, err, "post")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandlePostGet returns a single post with its visible comments. The
// post and its comments are fetched in parallel.
func (h *Handler) HandlePostGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	g, ctx := errgroup.WithContext(r.Context())

	var post *models.Post
	var comments []*models.Comment

	g.Go(func() error {
		var err error
		post, err = h.store.GetPostByID(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = h.store.ListCommentsByPost(ctx, id, false)
		return err
	})

	if err := g.Wait(); err != nil {
		writeStoreError(w, err, "post")
		return
	}

	if post.IsBlocked {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	writeJSON(w, http.StatusOK, postDetailResponse{Post: post, Comments: comments})
}
