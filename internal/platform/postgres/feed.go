package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProgressChannel is the NOTIFY channel written by the vocabulary_progress trigger.
const ProgressChannel = "vocabulary_progress_changes"

// listenConn is the part of *pgx.Conn the feed needs.
type listenConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// notification is the JSON document sent by the trigger.
type notification struct {
	store.ProgressChange
	UserID string `json:"user_id"`
}

// ChangeFeed implements store.ChangeFeed with LISTEN/NOTIFY. Each
// subscription holds its own connection.
type ChangeFeed struct {
	connect func(ctx context.Context) (listenConn, error)
	logger  *slog.Logger
	now     func() time.Time
}

var _ store.ChangeFeed = (*ChangeFeed)(nil)

// NewChangeFeed creates a feed that dials databaseURL for every subscription.
func NewChangeFeed(databaseURL string, logger *slog.Logger) *ChangeFeed {
	return newChangeFeed(func(ctx context.Context) (listenConn, error) {
		return pgx.Connect(ctx, databaseURL)
	}, logger)
}

func newChangeFeed(connect func(ctx context.Context) (listenConn, error), logger *slog.Logger) *ChangeFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeFeed{
		connect: connect,
		logger:  logger.With(slog.String("component", "change_feed")),
		now:     time.Now,
	}
}

// Subscribe implements store.ChangeFeed. The subscription lives until Close
// is called, ctx is cancelled, or the connection fails.
func (f *ChangeFeed) Subscribe(
	ctx context.Context,
	userID string,
	handler func(store.ProgressChange),
) (store.Subscription, error) {
	log := logger.FromContextOrDefault(ctx, f.logger).With(slog.String("user_id", userID))

	conn, err := f.connect(ctx)
	if err != nil {
		return nil, store.Unavailable("progress_feed", "subscribe", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ProgressChannel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, store.Unavailable("progress_feed", "subscribe", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer func() { _ = conn.Close(context.Background()) }()
		// Stop when the subscribing context ends as well.
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		for {
			n, err := conn.WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					log.Error("change feed connection lost", slog.String("error", err.Error()))
					sub.setErr(store.Unavailable("progress_feed", "listen", err))
				}
				return
			}
			if n.Channel != ProgressChannel {
				continue
			}
			change, owner, err := decodeNotification(n.Payload)
			if err != nil {
				log.Warn("dropping malformed change notification", slog.String("error", err.Error()))
				continue
			}
			if owner != userID {
				continue
			}
			change.ReceivedAt = f.now()
			if sub.isClosed() {
				return
			}
			handler(change)
		}
	}()

	log.Debug("subscribed to progress changes")
	return sub, nil
}

// decodeNotification parses a trigger payload and returns the change with the owning user id.
func decodeNotification(payload string) (store.ProgressChange, string, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return store.ProgressChange{}, "", fmt.Errorf("decode payload: %w", err)
	}
	if !n.Type.Valid() {
		return store.ProgressChange{}, "", fmt.Errorf("unknown event type %q", n.Type)
	}
	if n.UserID == "" {
		return store.ProgressChange{}, "", errors.New("payload has no user_id")
	}
	return n.ProgressChange, n.UserID, nil
}

// subscription is one LISTEN loop.
type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

// Close implements store.Subscription. It does not wait for an in-flight
// handler call.
func (s *subscription) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	return nil
}

// Done implements store.Subscription. It is closed once the listen loop has
// exited and the connection is released.
func (s *subscription) Done() <-chan struct{} {
	return s.done
}

// Err implements store.Subscription. It returns the connection error that
// ended the subscription, if any.
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
