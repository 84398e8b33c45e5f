package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no comment exists for the requested id
var ErrNotFound = errors.New("store: comment not found")

// Store is the keyed comment record store. The scrape worker is the sole
// writer; concurrent readers (the dashboard) only read. All reconciliation
// writes for one content item go through a single InTx call so that readers
// never observe a half-updated item.
type Store interface {
	// Get returns the comment with the given id, or ErrNotFound
	Get(ctx context.Context, rpid int64) (Comment, error)

	// QueryTopLevelSince returns the persisted top-level comments of a
	// content item with ctime at or after since
	QueryTopLevelSince(ctx context.Context, oid int64, since time.Time) ([]Comment, error)

	// QuerySubReplies returns the persisted sub-replies of a thread head
	QuerySubReplies(ctx context.Context, root int64) ([]Comment, error)

	// RecentFirst returns one dashboard page of comments, newest first,
	// along with the total record count. Pages are 1-based.
	RecentFirst(ctx context.Context, page, perPage int) ([]Comment, int64, error)

	// BulkInsert inserts new comment records
	BulkInsert(ctx context.Context, comments []Comment) error

	// UpdateStatus sets the lifecycle status of one comment
	UpdateStatus(ctx context.Context, rpid int64, status Status) error

	// InTx runs fn inside one atomic commit
	InTx(ctx context.Context, fn func(tx Store) error) error
}
