package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"movimenti/internal/core"
)

// Audit event kinds.
const (
	KindTransactionCreated = "transaction_created"
	KindStatementImported  = "statement_imported"
	KindMemoUpdated        = "memo_updated"
)

// ErrMalformedEvent marks an event that can never be handled successfully.
// The consumer rejects deliveries failing with it instead of requeueing.
var ErrMalformedEvent = errors.New("malformed audit event")

// AuditEvent is published after every successful store mutation. The store
// itself never blocks on the broker: publishing is best-effort and a lost
// event never rolls back the mutation it describes.
type AuditEvent struct {
	EventID   string          `json:"event_id"`
	Kind      string          `json:"kind"`
	AccountID string          `json:"account_id"`
	Detail    json.RawMessage `json:"detail"`
	Timestamp time.Time       `json:"timestamp"`
}

// TransactionDetail is the payload for created and memo-updated events.
type TransactionDetail struct {
	ID   core.TransactionID `json:"id"`
	Memo *string            `json:"memo,omitempty"`
}

// ImportDetail is the payload for statement-imported events.
type ImportDetail struct {
	Imported  int `json:"imported"`
	RowErrors int `json:"row_errors"`
}

func newEvent(kind, accountID string, detail any) (*AuditEvent, error) {
	payload, err := json.Marshal(detail)
	if err != nil {
		return nil, err
	}
	return &AuditEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		AccountID: accountID,
		Detail:    payload,
		Timestamp: time.Now().UTC(),
	}, nil
}

func NewTransactionCreatedEvent(accountID string, id core.TransactionID) (*AuditEvent, error) {
	return newEvent(KindTransactionCreated, accountID, TransactionDetail{ID: id})
}

func NewStatementImportedEvent(accountID string, imported, rowErrors int) (*AuditEvent, error) {
	return newEvent(KindStatementImported, accountID, ImportDetail{Imported: imported, RowErrors: rowErrors})
}

func NewMemoUpdatedEvent(accountID string, id core.TransactionID, memo *string) (*AuditEvent, error) {
	return newEvent(KindMemoUpdated, accountID, TransactionDetail{ID: id, Memo: memo})
}

// DetailAs decodes the kind-specific payload into out.
func (e *AuditEvent) DetailAs(out any) error {
	return json.Unmarshal(e.Detail, out)
}

// ToJSON converts the event to JSON bytes
func (e *AuditEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AuditEventFromJSON creates an event from JSON bytes
func AuditEventFromJSON(data []byte) (*AuditEvent, error) {
	var ev AuditEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
