package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/store"
)

// ProgressFeed turns outcome events that stored a progress record into
// store.ProgressChange notifications. It is the push channel for backends
// without one of their own, such as the local store.
//
// Register it on the emitter the service publishes on.
type ProgressFeed struct {
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	subs map[string]map[*feedSubscription]struct{}
}

var (
	_ store.ChangeFeed = (*ProgressFeed)(nil)
	_ EventHandler     = (*ProgressFeed)(nil)
)

// NewProgressFeed creates an empty feed.
func NewProgressFeed(log *slog.Logger) *ProgressFeed {
	if log == nil {
		log = slog.Default()
	}
	return &ProgressFeed{
		logger: log.With(slog.String("component", "progress_feed")),
		now:    time.Now,
		subs:   make(map[string]map[*feedSubscription]struct{}),
	}
}

// HandleEvent implements EventHandler. Events without a stored record are
// ignored.
func (f *ProgressFeed) HandleEvent(ctx context.Context, event *OutcomeEvent) error {
	if event == nil || event.Progress == nil {
		return nil
	}
	change := store.ProgressChange{
		Type:       store.ChangeUpdate,
		New:        payloadOf(*event.Progress),
		ReceivedAt: f.now(),
	}

	f.mu.Lock()
	targets := make([]*feedSubscription, 0, len(f.subs[event.UserID]))
	for sub := range f.subs[event.UserID] {
		targets = append(targets, sub)
	}
	f.mu.Unlock()

	for _, sub := range targets {
		sub.push(change)
	}
	if len(targets) > 0 {
		logger.FromContextOrDefault(ctx, f.logger).Debug("progress change published",
			slog.String("user_id", event.UserID),
			slog.String("vocabulary_item_id", event.Progress.VocabularyItemID),
			slog.Int("subscriber_count", len(targets)))
	}
	return nil
}

// Subscribe implements store.ChangeFeed. Each subscription delivers from its
// own goroutine, in publish order, until Close is called or ctx is done.
func (f *ProgressFeed) Subscribe(
	ctx context.Context,
	userID string,
	handler func(store.ProgressChange),
) (store.Subscription, error) {
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}
	sub := &feedSubscription{
		feed:    f,
		userID:  userID,
		handler: handler,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	f.mu.Lock()
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[*feedSubscription]struct{})
	}
	f.subs[userID][sub] = struct{}{}
	f.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = sub.Close() })
	go func() {
		defer stop()
		sub.run()
	}()
	return sub, nil
}

// Subscribers returns the number of open subscriptions for userID.
func (f *ProgressFeed) Subscribers(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[userID])
}

func (f *ProgressFeed) remove(sub *feedSubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[sub.userID], sub)
	if len(f.subs[sub.userID]) == 0 {
		delete(f.subs, sub.userID)
	}
}

// feedSubscription queues changes without bound so publishers never block
// on a slow handler.
type feedSubscription struct {
	feed    *ProgressFeed
	userID  string
	handler func(store.ProgressChange)
	wake    chan struct{}
	done    chan struct{}

	mu     sync.Mutex
	queue  []store.ProgressChange
	closed bool
}

func (s *feedSubscription) push(change store.ProgressChange) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, change)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *feedSubscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			change, ok := s.next()
			if !ok {
				break
			}
			s.handler(change)
		}
	}
}

func (s *feedSubscription) next() (store.ProgressChange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.queue) == 0 {
		return store.ProgressChange{}, false
	}
	change := s.queue[0]
	s.queue = s.queue[1:]
	return change, true
}

// Close implements store.Subscription. It does not wait for an in-flight
// handler call.
func (s *feedSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.queue = nil
	close(s.done)
	s.mu.Unlock()

	s.feed.remove(s)
	return nil
}

// Done implements store.Subscription.
func (s *feedSubscription) Done() <-chan struct{} {
	return s.done
}

// Err implements store.Subscription. An in-process subscription only ends
// through Close, so it never fails.
func (s *feedSubscription) Err() error {
	return nil
}

func payloadOf(rec domain.ProgressRecord) *domain.ProgressPayload {
	return &domain.ProgressPayload{
		UserID:           &rec.UserID,
		VocabularyItemID: &rec.VocabularyItemID,
		MasteryLevel:     &rec.MasteryLevel,
		NextReviewDate:   &rec.NextReviewDate,
		TimesReviewed:    &rec.TimesReviewed,
		TimesCorrect:     &rec.TimesCorrect,
		Learned:          &rec.Learned,
		UpdatedAt:        &rec.UpdatedAt,
	}
}
