package audit

import (
	"context"
	"time"
)

// Sink receives committed audit events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher decouples registries from sinks through a buffered inbox so a
// slow sink never blocks a ledger commit. Events are best-effort: when the
// inbox is full the event is dropped and counted.
type Publisher struct {
	inbox   chan Event
	dropped func()
}

// NewPublisher creates a publisher with the given inbox capacity. onDropped,
// if non-nil, is called once per dropped event.
func NewPublisher(capacity int, onDropped func()) *Publisher {
	if capacity <= 0 {
		capacity = 256
	}
	return &Publisher{inbox: make(chan Event, capacity), dropped: onDropped}
}

// Emit enqueues an event for the worker. Never blocks.
func (p *Publisher) Emit(_ context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		if p.dropped != nil {
			p.dropped()
		}
	}
}

// Inbox exposes the event channel for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker consumes audit events from the publisher's inbox and hands them to a
// sink. It keeps background processing testable without wiring queue
// implementations into services.
type Worker struct {
	sink  Sink
	inbox <-chan Event
}

func NewWorker(sink Sink, inbox <-chan Event) *Worker {
	return &Worker{sink: sink, inbox: inbox}
}

// Run drains the inbox until ctx is cancelled. Sink errors are returned to
// the caller so the process lifecycle can decide whether to restart.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Write(ctx, event); err != nil {
				return err
			}
		}
	}
}
