// Package services orchestrates the transaction store with the audit
// event stream.
package services

import (
	"context"
	"fmt"
	"strings"

	"movimenti/internal/amqp"
	"movimenti/internal/core"
	"movimenti/internal/csvimport"
	"movimenti/internal/log"
	"movimenti/internal/store"
)

// EventPublisher is satisfied by the AMQP client. A nil publisher disables
// the audit stream without changing any store behavior.
type EventPublisher interface {
	PublishAuditEvent(ctx context.Context, ev *amqp.AuditEvent) error
}

// TransactionService runs each operation against the store first (the
// store is the source of truth) and then best-effort publishes the audit
// event. A publish failure is logged and swallowed, same policy as the
// store's own persistence failures.
type TransactionService struct {
	store  *store.Store
	events EventPublisher
	logger *log.Logger
}

func NewTransactionService(st *store.Store, events EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentService)
	}
	return &TransactionService{store: st, events: events, logger: logger}
}

// CurrentTransactions returns the live snapshot across all accounts.
func (s *TransactionService) CurrentTransactions(_ context.Context) []core.CurrentTransaction {
	return s.store.Current()
}

// AllTransactions returns the historical record across all accounts.
func (s *TransactionService) AllTransactions(_ context.Context) []core.HistoricalTransaction {
	return s.store.All()
}

// Create records a manually entered transaction.
func (s *TransactionService) Create(ctx context.Context, req core.CreateTransactionRequest) (core.CurrentTransaction, error) {
	if err := req.Validate(); err != nil {
		return core.CurrentTransaction{}, err
	}

	tx, err := s.store.Create(req)
	if err != nil {
		return core.CurrentTransaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldAccountID, tx.AccountID,
		log.FieldPayee, tx.ID.Payee,
		log.FieldAmountCents, tx.ID.AmountCents,
		log.FieldCurrency, tx.ID.Currency)

	s.publish(ctx, func() (*amqp.AuditEvent, error) {
		return amqp.NewTransactionCreatedEvent(tx.AccountID, tx.ID)
	})
	return tx, nil
}

// ImportStatement decodes a CSV statement body and bulk-imports it into
// the account. Rows that fail to parse are reported in the result; when
// not a single row parses, nothing is mutated and the whole call fails
// with core.ErrEmptyImport.
func (s *TransactionService) ImportStatement(ctx context.Context, accountID string, body []byte) (core.ImportResult, error) {
	if strings.TrimSpace(accountID) == "" {
		return core.ImportResult{}, fmt.Errorf("%w: missing account id", core.ErrInvalidRequest)
	}

	ids, rowErrs, err := csvimport.Parse(body)
	if err != nil {
		return core.ImportResult{}, err
	}
	if len(ids) == 0 {
		// Covers both the empty statement and the everything-malformed
		// batch: nothing parsed means nothing mutated.
		return core.ImportResult{}, fmt.Errorf("%w (%d row errors)", core.ErrEmptyImport, len(rowErrs))
	}

	res := s.store.BulkImport(accountID, ids)
	res.Errors = append(res.Errors, rowErrs...)

	s.logger.InfoContext(ctx, "Statement imported",
		log.FieldAccountID, accountID,
		log.FieldImported, res.Imported,
		log.FieldRowErrors, len(rowErrs))

	s.publish(ctx, func() (*amqp.AuditEvent, error) {
		return amqp.NewStatementImportedEvent(accountID, res.Imported, len(rowErrs))
	})
	return res, nil
}

// UpdateMemo annotates a historical transaction.
func (s *TransactionService) UpdateMemo(ctx context.Context, accountID string, id core.TransactionID, memo *string) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("%w: missing account id", core.ErrInvalidRequest)
	}
	if err := id.Validate(); err != nil {
		return err
	}

	if err := s.store.UpdateMemo(accountID, id, memo); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Memo updated",
		log.FieldAccountID, accountID,
		log.FieldPayee, id.Payee)

	s.publish(ctx, func() (*amqp.AuditEvent, error) {
		return amqp.NewMemoUpdatedEvent(accountID, id, memo)
	})
	return nil
}

func (s *TransactionService) publish(ctx context.Context, build func() (*amqp.AuditEvent, error)) {
	if s.events == nil {
		return
	}
	ev, err := build()
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to build audit event", log.FieldError, err)
		return
	}
	if err := s.events.PublishAuditEvent(ctx, ev); err != nil {
		// The mutation already happened; losing the event must not fail
		// the request.
		s.logger.WarnContext(ctx, "Failed to publish audit event",
			log.FieldError, err,
			log.FieldEventID, ev.EventID,
			log.FieldEventKind, ev.Kind)
	}
}
