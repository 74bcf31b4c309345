package reconcile

import (
	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/store"
)

// Event is one change to the reconciled view. View is nil for deletes.
type Event struct {
	Type store.ChangeType
	Key  domain.ProgressKey
	View *domain.ProgressView
}

// Listener receives the reconciled view. Calls are serialized and arrive in
// the order the view changed. Seeded is always the first call. Ended is
// called once, as the last call, when the change feed fails; it is not
// called after Stop. A Listener may call Session.Stop and Session.Views.
type Listener interface {
	Seeded(views []domain.ProgressView)
	Changed(ev Event)
	Ended(err error)
}

// ListenerFuncs adapts functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnSeeded  func(views []domain.ProgressView)
	OnChanged func(ev Event)
	OnEnded   func(err error)
}

// Seeded implements Listener.
func (f ListenerFuncs) Seeded(views []domain.ProgressView) {
	if f.OnSeeded != nil {
		f.OnSeeded(views)
	}
}

// Changed implements Listener.
func (f ListenerFuncs) Changed(ev Event) {
	if f.OnChanged != nil {
		f.OnChanged(ev)
	}
}

// Ended implements Listener.
func (f ListenerFuncs) Ended(err error) {
	if f.OnEnded != nil {
		f.OnEnded(err)
	}
}
