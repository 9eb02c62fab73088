package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/metrics"
	"github.com/excommunicades/starnavi/internal/middleware"
	"github.com/excommunicades/starnavi/internal/models"

	"github.com/rs/zerolog/log"
)

// HandleCommentCreate creates a comment on a post. The comment is
// persisted first and only then handed to the auto-reply scheduler, so
// a scheduling failure can never lose the comment. Blocked comments are
// stored but never trigger a reply.
func (h *Handler) HandleCommentCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.CreateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.store.GetPostByID(r.Context(), postID)
	if err != nil {
		writeStoreError(w, err, "post")
		return
	}
	if post.IsBlocked {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	verdict := h.gate.Classify(req.Content)

	comment := &models.Comment{
		PostID:    postID,
		AuthorID:  userID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
		IsBlocked: verdict.IsBlocked(),
	}

	id, err := h.store.CreateComment(r.Context(), comment)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeStoreError(w, err, "comment")
		return
	}
	comment.ID = id

	if comment.IsBlocked {
		metrics.CommentsBlockedTotal.Inc()
		log.Info().Int64("comment_id", id).Int64("post_id", postID).Msg("Comment blocked by moderation")
	} else if h.scheduler != nil {
		h.scheduler.CommentCreated(comment)
	}

	writeJSON(w, http.StatusCreated, comment)
}

// HandleCommentList returns the visible comments of a post.
func (h *Handler) HandleCommentList(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r)
	if !ok {
		return
	}

	post, err := h.store.GetPostByID(r.Context(), postID)
	if err != nil {
		writeStoreError(w, err, "post")
		return
	}
	if post.IsBlocked {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	comments, err := h.store.ListCommentsByPost(r.Context(), postID, false)
	if err != nil {
		writeStoreError(w, err, "comment")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
