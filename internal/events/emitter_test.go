package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	LastEvent    *OutcomeEvent
	HandlerError error
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(_ context.Context, event *OutcomeEvent) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func newEvent(t *testing.T) *OutcomeEvent {
	t.Helper()
	event, err := NewOutcomeEvent(TypePracticeJudged, "user-1", domain.HistoryEntry{Type: domain.HistoryTypePractice}, nil)
	require.NoError(t, err)
	return event
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t)))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := newEvent(t)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Same(t, event, handler1.LastEvent)
		assert.Same(t, event, handler2.LastEvent)
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEventEmitter(nil)
		first := errors.New("first")
		handler1 := &MockEventHandler{HandlerError: first}
		handler2 := &MockEventHandler{HandlerError: errors.New("second")}
		var order []string
		emitter.RegisterHandler(HandlerFunc(func(context.Context, *OutcomeEvent) error {
			order = append(order, "func")
			return nil
		}))
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		assert.ErrorIs(t, err, first)
		assert.Equal(t, []string{"func"}, order)
		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
	})
}
