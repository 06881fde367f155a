package audit

import (
	"context"
	"log/slog"
	"time"

	"votilio/pkg/requestcontext"
)

// Recorder is the emitter side of the audit pipeline. Domain services call
// Record, which stamps the event and hands it to the worker's inbox without
// blocking the request path. A full inbox drops the event and logs it:
// audit is an operational trail, not a ledger the request depends on.
type Recorder struct {
	inbox  chan<- Event
	logger *slog.Logger
}

// NewRecorder creates a recorder feeding the given inbox.
func NewRecorder(inbox chan<- Event, logger *slog.Logger) *Recorder {
	return &Recorder{inbox: inbox, logger: logger}
}

// Record stamps and enqueues an event. Safe to call on a nil recorder.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.inbox == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.WarnContext(ctx, "audit inbox full, event dropped",
			"action", string(event.Action),
		)
	}
}

// Worker consumes audit events from the inbox and persists them.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker creates the consuming side of the audit pipeline.
func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Store failures are
// logged and retried once; the worker never stops over a single bad event.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("audit append failed, retrying once",
					"action", string(event.Action),
					"error", err,
				)
				time.Sleep(100 * time.Millisecond)
				if err := w.store.Append(ctx, event); err != nil {
					w.logger.Error("audit append failed, event lost",
						"action", string(event.Action),
						"error", err,
					)
				}
			}
		}
	}
}
