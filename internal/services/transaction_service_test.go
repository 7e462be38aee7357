package services

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
	"movimenti/internal/log"
	"movimenti/internal/store"
)

type capturingPublisher struct {
	events []*amqp.AuditEvent
	err    error
}

func (p *capturingPublisher) PublishAuditEvent(_ context.Context, ev *amqp.AuditEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func newTestService(t *testing.T, pub EventPublisher) *TransactionService {
	t.Helper()
	dir := t.TempDir()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	st := store.New(
		filepath.Join(dir, "current_transactions.json"),
		filepath.Join(dir, "all_transactions.json"),
		logger.WithComponent(log.ComponentStore),
	)
	return NewTransactionService(st, pub, logger.WithComponent(log.ComponentService))
}

func validCreate() core.CreateTransactionRequest {
	return core.CreateTransactionRequest{
		AccountID: "acc-1",
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Payee:     "Esselunga",
		Amount:    42.50,
		Currency:  "EUR",
	}
}

func TestCreatePublishesAuditEvent(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	tx, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.KindTransactionCreated {
		t.Fatalf("events = %+v", pub.events)
	}

	var detail amqp.TransactionDetail
	if err := pub.events[0].DetailAs(&detail); err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.ID != tx.ID {
		t.Fatalf("event id = %+v, want %+v", detail.ID, tx.ID)
	}
}

func TestCreateConflictPublishesNothing(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validCreate()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, validCreate()); !errors.Is(err, core.ErrTransactionExists) {
		t.Fatalf("err = %v, want ErrTransactionExists", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("conflict published an event: %+v", pub.events)
	}
}

func TestCreateInvalidRequest(t *testing.T) {
	svc := newTestService(t, nil)
	req := validCreate()
	req.Payee = ""
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, core.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)

	if _, err := svc.Create(context.Background(), validCreate()); err != nil {
		t.Fatalf("create failed because publish failed: %v", err)
	}
	if got := len(svc.CurrentTransactions(context.Background())); got != 1 {
		t.Fatalf("mutation lost: %d entries", got)
	}
}

func TestImportStatementMixedRows(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	body := []byte(`timestamp,payee,amount,currency
2024-03-01T09:30:00Z,Esselunga,42.50,EUR
garbage,Bar Centrale,3.50,EUR
2024-03-03T10:00:00Z,Trenitalia,45.90,EUR
`)
	res, err := svc.ImportStatement(ctx, "acc-1", body)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 2 || res.Duplicates != 0 || len(res.Errors) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if got := len(svc.CurrentTransactions(ctx)); got != 2 {
		t.Fatalf("current has %d entries, want 2", got)
	}
	if got := len(svc.AllTransactions(ctx)); got != 2 {
		t.Fatalf("history has %d entries, want 2", got)
	}

	if len(pub.events) != 1 || pub.events[0].Kind != amqp.KindStatementImported {
		t.Fatalf("events = %+v", pub.events)
	}
	var detail amqp.ImportDetail
	if err := pub.events[0].DetailAs(&detail); err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Imported != 2 || detail.RowErrors != 1 {
		t.Fatalf("detail = %+v", detail)
	}
}

func TestImportStatementAllRowsMalformed(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	body := []byte(`timestamp,payee,amount,currency
garbage,Esselunga,1.00,EUR
2024-03-01T00:00:00Z,Bar,xx,EUR
`)
	_, err := svc.ImportStatement(ctx, "acc-1", body)
	if !errors.Is(err, core.ErrEmptyImport) {
		t.Fatalf("err = %v, want ErrEmptyImport", err)
	}
	// No partial import, no mutation, no event.
	if got := len(svc.CurrentTransactions(ctx)); got != 0 {
		t.Fatalf("current mutated: %d entries", got)
	}
	if got := len(svc.AllTransactions(ctx)); got != 0 {
		t.Fatalf("history mutated: %d entries", got)
	}
	if len(pub.events) != 0 {
		t.Fatalf("events published: %+v", pub.events)
	}
}

func TestImportStatementMissingAccount(t *testing.T) {
	svc := newTestService(t, nil)
	if _, err := svc.ImportStatement(context.Background(), "  ", nil); !errors.Is(err, core.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestUpdateMemoPublishesAuditEvent(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	tx, err := svc.Create(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	memo := "spesa settimanale"
	if err := svc.UpdateMemo(ctx, "acc-1", tx.ID, &memo); err != nil {
		t.Fatalf("memo: %v", err)
	}
	if len(pub.events) != 2 || pub.events[1].Kind != amqp.KindMemoUpdated {
		t.Fatalf("events = %+v", pub.events)
	}

	if err := svc.UpdateMemo(ctx, "ghost", tx.ID, &memo); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}
