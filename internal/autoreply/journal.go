package autoreply

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names for the auto-reply journal
var (
	// BucketPending stores replies waiting on their delay: {comment_id} -> {PendingReply JSON}
	BucketPending = []byte("pending")

	// BucketFired stores triggering comment IDs whose reply was created: {comment_id} -> {RFC3339 timestamp}
	BucketFired = []byte("fired")
)

// PendingReply is a journal entry for a reply that has been scheduled but
// not yet created. Only identifiers cross the delay; the post is
// re-fetched when the timer fires.
type PendingReply struct {
	CommentID   int64     `json:"comment_id"`
	PostID      int64     `json:"post_id"`
	FireAt      time.Time `json:"fire_at"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Journal persists scheduler state in BoltDB so pending replies survive a
// restart and fired ones are never repeated. Durability is best-effort:
// journal failures are reported, never fatal.
type Journal struct {
	db *bolt.DB
}

// JournalOptions configures the journal database.
type JournalOptions struct {
	// Path to the database file. Parent directories will be created if needed.
	Path string

	// Timeout for obtaining a file lock on the database.
	// If zero, a default of 5 seconds is used.
	Timeout time.Duration
}

// OpenJournal creates or opens the journal at the given path and ensures
// its buckets exist.
func OpenJournal(opts JournalOptions) (*Journal, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}

	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, 0600, &bolt.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{BucketPending, BucketFired} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal buckets: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func commentKey(commentID int64) []byte {
	return []byte(strconv.FormatInt(commentID, 10))
}

// AddPending records a scheduled reply. Overwrites an existing entry for
// the same comment, which is harmless: the payload is identical.
func (j *Journal) AddPending(entry PendingReply) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return tx.Bucket(BucketPending).Put(commentKey(entry.CommentID), data)
	})
}

// MarkFired moves a comment from pending to fired.
func (j *Journal) MarkFired(commentID int64) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		key := commentKey(commentID)
		if err := tx.Bucket(BucketPending).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(BucketFired).Put(key, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// RemovePending drops a pending entry without marking it fired, used when
// a fire attempt is abandoned (post deleted or auto-reply disabled).
func (j *Journal) RemovePending(commentID int64) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketPending).Delete(commentKey(commentID))
	})
}

// Fired reports whether a reply for the comment was already created.
func (j *Journal) Fired(commentID int64) bool {
	var fired bool
	_ = j.db.View(func(tx *bolt.Tx) error {
		fired = tx.Bucket(BucketFired).Get(commentKey(commentID)) != nil
		return nil
	})
	return fired
}

// Pending returns all journaled entries that have not fired yet.
func (j *Journal) Pending() ([]PendingReply, error) {
	var entries []PendingReply
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketPending).ForEach(func(k, v []byte) error {
			var entry PendingReply
			if err := json.Unmarshal(v, &entry); err != nil {
				// Skip corrupt entries rather than blocking recovery.
				return nil
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
