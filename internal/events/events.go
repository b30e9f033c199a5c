// Package events delivers contract notifications. Delivery is fire and
// forget: a Notifier never reports failure to the operation that emitted.
package events

import (
	"context"
	"sync"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/logger"
)

type Notifier interface {
	Emit(ctx context.Context, event domain.Event)
}

// LogNotifier writes every event to the global logger.
type LogNotifier struct{}

func (LogNotifier) Emit(ctx context.Context, event domain.Event) {
	args := []any{"event_id", event.ID, "event", string(event.Name)}
	for k, v := range event.Fields {
		args = append(args, k, v)
	}
	logger.InfoContext(ctx, "Contract event", args...)
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names lists the names of the recorded events in emission order.
func (r *Recorder) Names() []domain.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]domain.EventName, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.Name)
	}
	return names
}

// Multi fans an event out to every notifier. A panicking notifier is logged
// and does not stop delivery to the others.
type Multi []Notifier

func (m Multi) Emit(ctx context.Context, event domain.Event) {
	for _, n := range m {
		emitSafely(ctx, n, event)
	}
}

func emitSafely(ctx context.Context, n Notifier, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Notifier panicked", "event", string(event.Name), "panic", r)
		}
	}()
	n.Emit(ctx, event)
}
