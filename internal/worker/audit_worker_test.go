package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"movimenti/internal/amqp"
	"movimenti/internal/core"
	"movimenti/internal/history"
	"movimenti/internal/log"
)

func newTestWorker(t *testing.T) (*AuditWorker, *history.Repository) {
	t.Helper()
	repo, err := history.NewRepository(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	return NewAuditWorker(repo, logger.WithComponent(log.ComponentWorker)), repo
}

func TestHandleEventRecords(t *testing.T) {
	w, repo := newTestWorker(t)

	id := core.NewTransactionID(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), 4250, "EUR", "Esselunga")
	ev, err := amqp.NewTransactionCreatedEvent("acc-1", id)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}

	if err := w.HandleEvent(ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	// Redelivery must be harmless.
	if err := w.HandleEvent(ev); err != nil {
		t.Fatalf("redelivered handle: %v", err)
	}

	got, err := repo.EventsForAccount(context.Background(), "acc-1", 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Kind != amqp.KindTransactionCreated {
		t.Fatalf("kind = %s", got[0].Kind)
	}
}

func TestHandleEventRejectsMalformed(t *testing.T) {
	w, _ := newTestWorker(t)
	err := w.HandleEvent(&amqp.AuditEvent{})
	if err == nil {
		t.Fatal("expected error for event without id and kind")
	}
	// The error must be recognizable as permanent so the consumer drops
	// the delivery instead of redelivering it forever.
	if !errors.Is(err, amqp.ErrMalformedEvent) {
		t.Fatalf("error %v does not wrap amqp.ErrMalformedEvent", err)
	}
}
