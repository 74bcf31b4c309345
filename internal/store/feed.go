package store

import (
	"context"
	"errors"
	"time"

	"github.com/fluentwork/coach/internal/domain"
)

// ChangeType is the kind of row change carried by a notification.
type ChangeType string

// Row change kinds.
const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Valid reports whether t is a known change kind.
func (t ChangeType) Valid() bool {
	switch t {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
		return true
	default:
		return false
	}
}

// ProgressChange is one notification from the push channel. New is nil for
// deletes; Old may be nil when the store does not report prior values.
type ProgressChange struct {
	Type       ChangeType              `json:"event_type"`
	New        *domain.ProgressPayload `json:"new"`
	Old        *domain.ProgressPayload `json:"old"`
	ReceivedAt time.Time               `json:"-"`
}

// ErrFeedClosed reports a subscription that ended without being closed by
// its owner.
var ErrFeedClosed = errors.New("change feed closed")

// Subscription is a live registration on a ChangeFeed.
type Subscription interface {
	// Close releases the subscription. No handler call starts after Close
	// returns; a call already in progress may still finish. Close is safe to
	// call more than once, including from inside the handler.
	Close() error

	// Done is closed when the subscription has ended, whether through
	// Close, the subscribing context or a failure of the feed.
	Done() <-chan struct{}

	// Err returns the failure that ended the subscription. It is nil while
	// the subscription is live and after an orderly Close.
	Err() error
}

// ChangeFeed delivers progress changes for one user.
type ChangeFeed interface {
	// Subscribe registers handler for changes to userID's progress records.
	// Delivery is at least once and may repeat or reorder notifications.
	// handler is called from a single goroutine per subscription.
	Subscribe(ctx context.Context, userID string, handler func(ProgressChange)) (Subscription, error)
}
