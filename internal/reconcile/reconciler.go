package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/store"
)

// Reconciler starts reconciliation sessions.
type Reconciler struct {
	feed     store.ChangeFeed
	progress store.ProgressStore
	lookup   store.VocabularyLookup
	logger   *slog.Logger
}

// NewReconciler creates a Reconciler. If logger is nil, slog.Default() is used.
func NewReconciler(
	feed store.ChangeFeed,
	progress store.ProgressStore,
	lookup store.VocabularyLookup,
	logger *slog.Logger,
) *Reconciler {
	if feed == nil {
		panic("feed cannot be nil")
	}
	if progress == nil {
		panic("progress cannot be nil")
	}
	if lookup == nil {
		panic("lookup cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		feed:     feed,
		progress: progress,
		lookup:   lookup,
		logger:   logger.With(slog.String("component", "reconciler")),
	}
}

// Session is one user's reconciled progress view. It is owned by the caller
// of Start and must be released with Stop.
type Session struct {
	userID   string
	lookup   store.VocabularyLookup
	listener Listener
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards the view state below.
	mu         sync.Mutex
	records    map[string]domain.ProgressRecord
	items      map[string]*domain.VocabularyItem
	tombstones map[string]time.Time
	seeded     bool

	// deliverMu orders listener calls. It is acquired while mu is held and
	// released after the listener returns.
	deliverMu sync.Mutex

	stopped  atomic.Bool
	stopOnce sync.Once
	stopErr  error
	sub      store.Subscription

	// endErr is set under mu when the feed ends the session.
	endErr error
}

// Start subscribes to userID's changes, seeds the view with a full load and
// reports it through listener.Seeded. Changes that arrive while the load is
// in flight are merged into the seed. The session ends when Stop is called
// or ctx is done.
func (r *Reconciler) Start(ctx context.Context, userID string, listener Listener) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrEmptyUserID
	}
	if listener == nil {
		listener = ListenerFuncs{}
	}
	log := logger.FromContextOrDefault(ctx, r.logger).With(slog.String("user_id", userID))

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		userID:     userID,
		lookup:     r.lookup,
		listener:   listener,
		logger:     log,
		ctx:        sessCtx,
		cancel:     cancel,
		records:    make(map[string]domain.ProgressRecord),
		items:      make(map[string]*domain.VocabularyItem),
		tombstones: make(map[string]time.Time),
	}

	sub, err := r.feed.Subscribe(sessCtx, userID, s.handle)
	if err != nil {
		cancel()
		return nil, err
	}
	s.sub = sub

	loaded, err := r.progress.LoadAllProgress(sessCtx, userID)
	if err != nil {
		_ = s.Stop()
		return nil, err
	}
	s.seed(loaded)
	go s.watch()

	stopWithParent := context.AfterFunc(ctx, func() { _ = s.Stop() })
	context.AfterFunc(sessCtx, func() { stopWithParent() })

	log.Info("progress reconciliation started", slog.Int("record_count", len(loaded)))
	return s, nil
}

// Stop releases the subscription. It is safe to call more than once and
// from inside a Listener; only the first call closes the subscription.
// Once Stop returns the listener is not called again, apart from a call
// that was already being delivered.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		s.cancel()
		if s.sub != nil {
			s.stopErr = s.sub.Close()
		}
		s.logger.Info("progress reconciliation stopped")
	})
	return s.stopErr
}

// Err returns the feed failure that ended the session, or nil while the
// session is live or after it was stopped by its owner.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endErr
}

// watch ends the session when the subscription ends on its own. The
// listener learns about it through Ended before the session stops.
func (s *Session) watch() {
	select {
	case <-s.ctx.Done():
		return
	case <-s.sub.Done():
	}
	if s.stopped.Load() {
		return
	}
	err := s.sub.Err()
	if err == nil {
		err = store.Unavailable("progress_feed", "listen", store.ErrFeedClosed)
	}

	s.mu.Lock()
	s.endErr = err
	s.deliverMu.Lock()
	s.mu.Unlock()
	if !s.stopped.Load() {
		s.logger.Error("progress reconciliation ended by change feed", slog.String("error", err.Error()))
		s.listener.Ended(err)
	}
	s.deliverMu.Unlock()

	_ = s.Stop()
}

// Views returns the current view ordered by next review date, then item id.
func (s *Session) Views() []domain.ProgressView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewsLocked()
}

// View returns the current view of one item.
func (s *Session) View(itemID string) (domain.ProgressView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[itemID]
	if !ok {
		return domain.ProgressView{}, false
	}
	return domain.ProgressView{ProgressRecord: rec, Item: s.items[itemID]}, true
}

func (s *Session) viewsLocked() []domain.ProgressView {
	views := make([]domain.ProgressView, 0, len(s.records))
	for id, rec := range s.records {
		views = append(views, domain.ProgressView{ProgressRecord: rec, Item: s.items[id]})
	}
	slices.SortFunc(views, func(a, b domain.ProgressView) int {
		if c := a.NextReviewDate.Compare(b.NextReviewDate); c != 0 {
			return c
		}
		return strings.Compare(a.VocabularyItemID, b.VocabularyItemID)
	})
	return views
}

func (s *Session) seed(loaded []domain.ProgressRecord) {
	for i := range loaded {
		s.resolve(loaded[i].VocabularyItemID)
	}
	if s.stopped.Load() {
		return
	}

	s.mu.Lock()
	for _, rec := range loaded {
		if rec.UserID != s.userID {
			continue
		}
		s.upsertLocked(rec)
	}
	s.seeded = true
	views := s.viewsLocked()
	s.deliverMu.Lock()
	s.mu.Unlock()
	defer s.deliverMu.Unlock()

	if s.stopped.Load() {
		return
	}
	s.listener.Seeded(views)
}

// handle is the ChangeFeed callback.
func (s *Session) handle(change store.ProgressChange) {
	if s.stopped.Load() {
		return
	}
	log := s.logger.With(slog.String("event_type", string(change.Type)))

	switch change.Type {
	case store.ChangeInsert, store.ChangeUpdate:
		rec, err := change.New.Record()
		if err != nil {
			log.Warn("dropping malformed progress change", slog.String("error", err.Error()))
			return
		}
		if rec.UserID != s.userID {
			log.Warn("dropping progress change for another user", slog.String("change_user_id", rec.UserID))
			return
		}
		s.applyUpsert(rec)
	case store.ChangeDelete:
		itemID, deletedAt, ok := deletedKey(change, s.userID)
		if !ok {
			log.Warn("dropping malformed progress delete")
			return
		}
		s.applyDelete(itemID, deletedAt)
	default:
		log.Warn("dropping progress change of unknown type")
	}
}

func (s *Session) applyUpsert(rec domain.ProgressRecord) {
	s.mu.Lock()
	if s.staleLocked(rec) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// The lookup may block, so it runs without the lock and the record is
	// checked again afterwards.
	s.resolve(rec.VocabularyItemID)
	if s.stopped.Load() {
		return
	}

	s.mu.Lock()
	if s.stopped.Load() {
		s.mu.Unlock()
		return
	}
	_, existed := s.records[rec.VocabularyItemID]
	if !s.upsertLocked(rec) {
		s.mu.Unlock()
		return
	}
	evType := store.ChangeUpdate
	if !existed {
		evType = store.ChangeInsert
	}
	s.deliverLocked(Event{
		Type: evType,
		Key:  rec.Key(),
		View: &domain.ProgressView{ProgressRecord: rec, Item: s.items[rec.VocabularyItemID]},
	})
}

func (s *Session) applyDelete(itemID string, deletedAt time.Time) {
	s.mu.Lock()
	if s.stopped.Load() {
		s.mu.Unlock()
		return
	}
	held, ok := s.records[itemID]
	if !ok {
		if !deletedAt.IsZero() && deletedAt.After(s.tombstones[itemID]) {
			s.tombstones[itemID] = deletedAt
		}
		s.mu.Unlock()
		return
	}
	if !deletedAt.IsZero() && deletedAt.Before(held.UpdatedAt) {
		s.mu.Unlock()
		return
	}
	delete(s.records, itemID)
	tomb := held.UpdatedAt
	if deletedAt.After(tomb) {
		tomb = deletedAt
	}
	s.tombstones[itemID] = tomb
	s.deliverLocked(Event{
		Type: store.ChangeDelete,
		Key:  domain.ProgressKey{UserID: s.userID, VocabularyItemID: itemID},
	})
}

// staleLocked reports whether rec must not replace the held state: it is
// older than the held record, not newer than a delete, or identical to the
// held record.
func (s *Session) staleLocked(rec domain.ProgressRecord) bool {
	if tomb, ok := s.tombstones[rec.VocabularyItemID]; ok && !rec.UpdatedAt.After(tomb) {
		return true
	}
	held, ok := s.records[rec.VocabularyItemID]
	if !ok {
		return false
	}
	return rec.UpdatedAt.Before(held.UpdatedAt) || sameRecord(held, rec)
}

// upsertLocked stores rec unless it is stale and reports whether the view
// changed.
func (s *Session) upsertLocked(rec domain.ProgressRecord) bool {
	if s.staleLocked(rec) {
		return false
	}
	delete(s.tombstones, rec.VocabularyItemID)
	s.records[rec.VocabularyItemID] = rec
	return true
}

// deliverLocked releases mu and sends ev to the listener once the session
// is seeded. Must be called with mu held.
func (s *Session) deliverLocked(ev Event) {
	if !s.seeded {
		s.mu.Unlock()
		return
	}
	s.deliverMu.Lock()
	s.mu.Unlock()
	defer s.deliverMu.Unlock()

	if s.stopped.Load() {
		return
	}
	s.listener.Changed(ev)
}

// resolve caches the vocabulary item for itemID. Unknown items are left
// unresolved and the record is surfaced without them.
func (s *Session) resolve(itemID string) {
	s.mu.Lock()
	_, cached := s.items[itemID]
	s.mu.Unlock()
	if cached {
		return
	}

	item, err := s.lookup.GetVocabularyItem(s.ctx, s.userID, itemID)
	if err != nil {
		if !store.IsNotFoundError(err) && !errors.Is(err, context.Canceled) {
			s.logger.Warn("vocabulary lookup failed",
				slog.String("vocabulary_item_id", itemID),
				slog.String("error", err.Error()))
		}
		return
	}

	s.mu.Lock()
	s.items[itemID] = item
	s.mu.Unlock()
}

// deletedKey extracts the item id and last known updated_at of a deleted
// row. Old carries the deleted row; New is used when a feed reports it
// there instead.
func deletedKey(change store.ProgressChange, userID string) (string, time.Time, bool) {
	p := change.Old
	if p == nil {
		p = change.New
	}
	if p == nil || p.VocabularyItemID == nil || *p.VocabularyItemID == "" {
		return "", time.Time{}, false
	}
	if p.UserID != nil && *p.UserID != userID {
		return "", time.Time{}, false
	}
	var at time.Time
	if p.UpdatedAt != nil {
		at = p.UpdatedAt.UTC()
	}
	return *p.VocabularyItemID, at, true
}

func sameRecord(a, b domain.ProgressRecord) bool {
	return a.UserID == b.UserID &&
		a.VocabularyItemID == b.VocabularyItemID &&
		a.MasteryLevel == b.MasteryLevel &&
		a.NextReviewDate.Equal(b.NextReviewDate) &&
		a.TimesReviewed == b.TimesReviewed &&
		a.TimesCorrect == b.TimesCorrect &&
		a.Learned == b.Learned &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
