package runtime

import (
	"log/slog"
	"sync"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/pkg/domain"
)

// Triggers maps event kinds to host callbacks.
// At most one callback is kept per kind; the last registration wins.
type Triggers struct {
	mu        sync.RWMutex
	callbacks map[domain.EventKind]func(domain.Event)
	logger    *slog.Logger
}

// NewTriggers creates an empty registry.
func NewTriggers(logger *slog.Logger) *Triggers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Triggers{
		callbacks: make(map[domain.EventKind]func(domain.Event)),
		logger:    logger,
	}
}

// Attach registers fn for the named event.
//
// Accepted shapes are func(domain.Event) for any name, and the typed form
// matching the name (func(domain.DrillDownEvent) for "drillDown", and so on).
// Anything else is logged and ignored; Attach then returns false.
func (t *Triggers) Attach(name string, fn any) bool {
	kind := domain.EventKind(name)
	cb := adapt(kind, fn)
	if cb == nil {
		t.logger.Warn("trigger ignored: not a callable of an accepted shape", "trigger", name)
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks[kind] = cb
	return true
}

// Lookup returns the callback registered for kind.
func (t *Triggers) Lookup(kind domain.EventKind) (func(domain.Event), bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cb, ok := t.callbacks[kind]
	return cb, ok
}

// Fire invokes the callback registered for the event's kind, if any.
func (t *Triggers) Fire(ev domain.Event) {
	cb, ok := t.Lookup(ev.Kind())
	if !ok {
		return
	}
	cb(ev)
}

func adapt(kind domain.EventKind, fn any) func(domain.Event) {
	switch f := fn.(type) {
	case func(domain.Event):
		if f == nil {
			return nil
		}
		return f
	case func(domain.DrillDownEvent):
		if f == nil || kind != domain.EventDrillDown {
			return nil
		}
		return func(ev domain.Event) {
			if e, ok := ev.(domain.DrillDownEvent); ok {
				f(e)
			}
		}
	case func(domain.DrillThroughEvent):
		if f == nil || kind != domain.EventDrillThrough {
			return nil
		}
		return func(ev domain.Event) {
			if e, ok := ev.(domain.DrillThroughEvent); ok {
				f(e)
			}
		}
	case func(domain.BackEvent):
		if f == nil || kind != domain.EventBack {
			return nil
		}
		return func(ev domain.Event) {
			if e, ok := ev.(domain.BackEvent); ok {
				f(e)
			}
		}
	}
	return nil
}
