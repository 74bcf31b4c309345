package events

import (
	"context"
	"errors"
	"time"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/google/uuid"
)

// Outcome event types.
const (
	TypeFlashcardGraded = "flashcard_graded"
	TypePracticeJudged  = "practice_judged"
	TypeItemLearned     = "item_learned"
)

// ErrInvalidEvent is returned for events missing a user or a type.
var ErrInvalidEvent = errors.New("invalid outcome event")

// OutcomeEvent is one graded learner activity.
type OutcomeEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type   string `json:"type"`
	UserID string `json:"user_id"`

	// Entry is the history entry written for the activity.
	Entry domain.HistoryEntry `json:"entry"`

	// Progress is the record written by the activity, if any.
	Progress *domain.ProgressRecord `json:"progress,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewOutcomeEvent creates an OutcomeEvent stamped with a fresh id.
func NewOutcomeEvent(
	eventType, userID string,
	entry domain.HistoryEntry,
	progress *domain.ProgressRecord,
) (*OutcomeEvent, error) {
	if eventType == "" || userID == "" {
		return nil, ErrInvalidEvent
	}
	return &OutcomeEvent{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Entry:     entry,
		Progress:  progress,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *OutcomeEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *OutcomeEvent) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *OutcomeEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *OutcomeEvent) error
}
