// Package autoreply arranges for a post's canned reply to be created a
// configured delay after each triggering comment.
//
// Scheduling is fire-and-forget from the caller's point of view: the
// request that created the comment returns immediately and the reply is
// created by a timer callback. The parent post is re-fetched when the
// timer fires, so the configuration that counts is the one in effect at
// fire time, not at schedule time. At most one reply is ever created per
// triggering comment, enforced by an in-process timer map, the journal's
// fired set, a store existence check at fire time, and a unique
// constraint in the record store.
package autoreply

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/metrics"
	"github.com/excommunicades/starnavi/internal/models"
	"github.com/excommunicades/starnavi/internal/moderation"
	"github.com/excommunicades/starnavi/internal/tracing"

	"github.com/rs/zerolog/log"
)

// DefaultStoreTimeout bounds the record store calls made from timer
// callbacks so a stuck store cannot hang the worker.
const DefaultStoreTimeout = 10 * time.Second

// Options configures the scheduler.
type Options struct {
	// ModerateReplies runs the reply text through the moderation gate
	// before storing, writing the verdict into is_blocked. Off by
	// default: replies are stored unblocked.
	ModerateReplies bool

	// StoreTimeout bounds record store calls from timer callbacks.
	// Defaults to DefaultStoreTimeout.
	StoreTimeout time.Duration
}

// Scheduler owns the pending timers and the journal.
type Scheduler struct {
	store   database.Store
	journal *Journal // optional, nil disables persistence
	gate    *moderation.Gate
	opts    Options

	mu     sync.Mutex
	timers map[int64]*time.Timer

	stopCh  chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup

	scheduled atomic.Int64
	fired     atomic.Int64
	failed    atomic.Int64
}

// New creates a scheduler. The journal may be nil, in which case pending
// replies do not survive a restart. The gate is only consulted when
// Options.ModerateReplies is set.
func New(store database.Store, journal *Journal, gate *moderation.Gate, opts Options) *Scheduler {
	if opts.StoreTimeout == 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	return &Scheduler{
		store:   store,
		journal: journal,
		gate:    gate,
		opts:    opts,
		timers:  make(map[int64]*time.Timer),
		stopCh:  make(chan struct{}),
	}
}

// Start recovers journaled pending replies and re-arms their timers.
// Entries whose fire time has already passed fire immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if s.journal == nil {
		return
	}
	entries, err := s.journal.Pending()
	if err != nil {
		log.Error().Err(err).Msg("autoreply: failed to read journal, pending replies lost")
		return
	}
	for _, entry := range entries {
		delay := time.Until(entry.FireAt)
		if delay < 0 {
			delay = 0
		}
		s.arm(entry.CommentID, entry.PostID, delay, entry.FireAt)
	}
	if len(entries) > 0 {
		log.Info().Int("count", len(entries)).Msg("autoreply: recovered pending replies from journal")
	}
}

// Stop cancels all pending timers and waits for in-flight fires to
// finish. Cancelled timers stay journaled and fire after the next Start.
func (s *Scheduler) Stop() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	close(s.stopCh)

	s.mu.Lock()
	for id, timer := range s.timers {
		if timer.Stop() {
			// Timer never fired, so its callback will not run wg.Done.
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// PendingCount returns the number of timers currently armed.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stats returns scheduled/fired/failed counters.
func (s *Scheduler) Stats() (scheduled, fired, failed int64) {
	return s.scheduled.Load(), s.fired.Load(), s.failed.Load()
}

// CommentCreated schedules an auto-reply for the given comment if the
// parent post has one enabled. It never blocks the caller: eligibility is
// checked in a goroutine. Auto-reply comments themselves never trigger
// another reply.
func (s *Scheduler) CommentCreated(comment *models.Comment) {
	if comment.IsAutoReply() || s.stopped.Load() {
		return
	}
	commentID := comment.ID
	postID := comment.PostID

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.StoreTimeout)
		defer cancel()

		post, err := s.store.GetPostByID(ctx, postID)
		if err != nil {
			log.Error().Err(err).Int64("post_id", postID).Msg("autoreply: failed to fetch post at schedule time")
			return
		}
		if !post.AutoReplyEnabled {
			return
		}
		if s.journal != nil && s.journal.Fired(commentID) {
			return
		}

		delay := post.ReplyDelay()
		s.arm(commentID, postID, delay, time.Now().Add(delay))
	}()
}

// arm registers a timer for the comment unless one already exists.
func (s *Scheduler) arm(commentID, postID int64, delay time.Duration, fireAt time.Time) {
	s.mu.Lock()
	if s.stopped.Load() {
		s.mu.Unlock()
		return
	}
	if _, exists := s.timers[commentID]; exists {
		s.mu.Unlock()
		return
	}

	if s.journal != nil {
		if err := s.journal.AddPending(PendingReply{
			CommentID:   commentID,
			PostID:      postID,
			FireAt:      fireAt,
			ScheduledAt: time.Now().UTC(),
		}); err != nil {
			log.Warn().Err(err).Int64("comment_id", commentID).Msg("autoreply: failed to journal pending reply")
		}
	}

	s.wg.Add(1)
	s.timers[commentID] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.fire(commentID, postID)
	})
	s.mu.Unlock()

	s.scheduled.Add(1)
	metrics.AutoRepliesScheduledTotal.Inc()
	log.Debug().
		Int64("comment_id", commentID).
		Int64("post_id", postID).
		Dur("delay", delay).
		Msg("autoreply: scheduled")
}

// fire creates the reply comment. Failures are logged and counted but
// never propagated: the triggering request completed long ago.
func (s *Scheduler) fire(commentID, postID int64) {
	s.mu.Lock()
	delete(s.timers, commentID)
	s.mu.Unlock()

	select {
	case <-s.stopCh:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.StoreTimeout)
	defer cancel()

	ctx, span := tracing.ReplySpan(ctx, "fire", commentID)
	defer span.End()

	// Configuration is read at fire time: the post may have disabled
	// auto-reply or changed its text since the comment arrived.
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Post deleted since the comment arrived; nothing to reply to.
			if s.journal != nil {
				_ = s.journal.RemovePending(commentID)
			}
			log.Debug().Int64("comment_id", commentID).Msg("autoreply: post gone at fire time, skipping")
			return
		}
		tracing.EndWithError(span, err)
		s.fail(commentID, err, "failed to fetch post at fire time")
		return
	}
	if !post.AutoReplyEnabled || post.AutoReplyText == "" {
		if s.journal != nil {
			_ = s.journal.RemovePending(commentID)
		}
		log.Debug().Int64("comment_id", commentID).Msg("autoreply: disabled at fire time, skipping")
		return
	}

	if done, err := s.store.HasReplyTo(ctx, commentID); err == nil && done {
		// A reply already exists, likely journaled by a previous run.
		s.markFired(commentID)
		return
	}

	reply := &models.Comment{
		PostID:           post.ID,
		AuthorID:         post.AuthorID,
		Content:          post.AutoReplyText,
		ReplyToCommentID: &commentID,
	}
	if s.opts.ModerateReplies && s.gate != nil {
		reply.IsBlocked = s.gate.Classify(reply.Content).IsBlocked()
	}

	if _, err := s.store.CreateComment(ctx, reply); err != nil {
		if errors.Is(err, database.ErrDuplicateReply) {
			// A reply already exists for this comment; treat as done.
			s.markFired(commentID)
			return
		}
		tracing.EndWithError(span, err)
		s.fail(commentID, err, "failed to create reply")
		return
	}

	s.markFired(commentID)
	s.fired.Add(1)
	metrics.AutoRepliesFiredTotal.Inc()
	log.Info().
		Int64("comment_id", commentID).
		Int64("post_id", postID).
		Msg("autoreply: reply created")
}

func (s *Scheduler) markFired(commentID int64) {
	if s.journal == nil {
		return
	}
	if err := s.journal.MarkFired(commentID); err != nil {
		log.Warn().Err(err).Int64("comment_id", commentID).Msg("autoreply: failed to journal fired reply")
	}
}

func (s *Scheduler) fail(commentID int64, err error, msg string) {
	s.failed.Add(1)
	metrics.AutoReplyFailuresTotal.Inc()
	log.Error().Err(err).Int64("comment_id", commentID).Msg("autoreply: " + msg)
}
