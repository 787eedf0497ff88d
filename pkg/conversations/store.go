package conversations

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a conversation ID is unknown.
var ErrNotFound = errors.New("conversation not found")

// QueryOptions filters and pages conversation listings.
type QueryOptions struct {
	StartDate  *time.Time
	EndDate    *time.Time
	SearchTerm string // matched case-insensitively against the first message
	Limit      int
	Offset     int
	SortOrder  string // "asc" or "desc" by last update, default "desc"
}

// QueryResult is one page of summaries plus the unpaged total.
type QueryResult struct {
	Summaries []Summary
	Total     int
}

// Store persists conversations.
type Store interface {
	Save(ctx context.Context, record Record) error
	Load(ctx context.Context, id string) (Record, error)
	Query(ctx context.Context, options QueryOptions) (QueryResult, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
