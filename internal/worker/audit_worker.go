// Package worker consumes audit events and records them in the history
// database.
package worker

import (
	"context"
	"fmt"

	"movimenti/internal/amqp"
	"movimenti/internal/history"
	"movimenti/internal/log"
)

// AuditWorker turns the AMQP audit stream into rows in the SQLite trail.
// Handling is idempotent (the repository ignores redelivered event ids),
// so requeue-on-error is safe.
type AuditWorker struct {
	repo   *history.Repository
	logger *log.Logger
}

func NewAuditWorker(repo *history.Repository, logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	}
	return &AuditWorker{repo: repo, logger: logger}
}

// HandleEvent records one audit event. A returned error makes the consumer
// nack the delivery, requeueing it unless the error wraps
// amqp.ErrMalformedEvent.
func (w *AuditWorker) HandleEvent(ev *amqp.AuditEvent) error {
	if ev.EventID == "" || ev.Kind == "" {
		// Malformed beyond repair; recording it would poison the trail and
		// requeueing it would redeliver it forever.
		return fmt.Errorf("%w: event missing id or kind", amqp.ErrMalformedEvent)
	}

	err := w.repo.RecordEvent(context.Background(), history.Event{
		EventID:    ev.EventID,
		Kind:       ev.Kind,
		AccountID:  ev.AccountID,
		Detail:     string(ev.Detail),
		OccurredAt: ev.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("record event %s: %w", ev.EventID, err)
	}

	w.logger.Info("Audit event archived",
		log.FieldEventID, ev.EventID,
		log.FieldEventKind, ev.Kind,
		log.FieldAccountID, ev.AccountID)
	return nil
}
