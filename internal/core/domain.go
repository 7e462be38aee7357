package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrTransactionExists   = errors.New("transaction already exists")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrEmptyImport         = errors.New("no valid transactions to import")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidTimestamp    = errors.New("invalid timestamp format")
)

type (
	// TransactionID is the natural key of a transaction. Two transactions
	// with the same timestamp, amount in cents, currency and payee are the
	// same transaction. The amount is kept in integer cents so equality
	// never goes through floating point.
	//
	// Timestamps must be normalized (UTC, monotonic reading stripped) so
	// that ids compare with == and work as map keys; build ids through
	// NewTransactionID or Normalize rather than with a struct literal.
	TransactionID struct {
		Timestamp   time.Time `json:"timestamp"`
		AmountCents int64     `json:"amount_cents"`
		Currency    string    `json:"currency"`
		Payee       string    `json:"payee"`
	}

	// CurrentTransaction is the live snapshot entry for a transaction
	// within an account. At most one exists per (account, id) pair.
	CurrentTransaction struct {
		AccountID string        `json:"account_id"`
		ID        TransactionID `json:"id"`
	}

	// HistoricalTransaction is the append-only record of a transaction.
	// It survives range replacement during bulk imports and carries the
	// user-editable memo. Memo is null when unset.
	HistoricalTransaction struct {
		AccountID string        `json:"account_id"`
		ID        TransactionID `json:"id"`
		Memo      *string       `json:"memo"`
	}

	// CreateTransactionRequest carries the decoded fields for a manual
	// transaction entry. Amount is the decimal currency value as supplied
	// by the caller; conversion to cents happens in the store.
	CreateTransactionRequest struct {
		AccountID string    `json:"account_id"`
		Timestamp time.Time `json:"timestamp"`
		Payee     string    `json:"payee"`
		Amount    float64   `json:"amount"`
		Currency  string    `json:"currency"`
	}

	// ImportResult reports the outcome of a bulk statement import.
	// Duplicates is reserved and always zero; changing it would silently
	// change the public contract, so it stays.
	ImportResult struct {
		Imported   int      `json:"imported"`
		Duplicates int      `json:"duplicates"`
		Errors     []string `json:"errors"`
	}
)

// NewTransactionID builds a normalized transaction id.
func NewTransactionID(ts time.Time, amountCents int64, currency, payee string) TransactionID {
	return TransactionID{
		Timestamp:   ts.UTC().Round(0),
		AmountCents: amountCents,
		Currency:    currency,
		Payee:       payee,
	}
}

// Normalize returns the id with its timestamp in UTC and without a
// monotonic reading, the representation under which == is exact.
func (id TransactionID) Normalize() TransactionID {
	id.Timestamp = id.Timestamp.UTC().Round(0)
	return id
}

// Validate reports whether the id identifies a concrete transaction.
func (id TransactionID) Validate() error {
	if id.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if strings.TrimSpace(id.Currency) == "" || strings.TrimSpace(id.Payee) == "" {
		return ErrInvalidRequest
	}
	return nil
}

func (r CreateTransactionRequest) Validate() error {
	if strings.TrimSpace(r.AccountID) == "" {
		return ErrInvalidRequest
	}
	if r.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if strings.TrimSpace(r.Payee) == "" || strings.TrimSpace(r.Currency) == "" {
		return ErrInvalidRequest
	}
	return nil
}

// TransactionIDKey adapts TransactionID for use as a JSON object key in the
// persisted files: the key text is the canonical JSON rendering of the four
// id fields, which round-trips losslessly whatever the payee contains and
// keeps the pretty-printed files deterministic (map keys sort by this text).
type TransactionIDKey TransactionID

func (k TransactionIDKey) MarshalText() ([]byte, error) {
	return json.Marshal(TransactionID(k))
}

func (k *TransactionIDKey) UnmarshalText(b []byte) error {
	var id TransactionID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	*k = TransactionIDKey(id.Normalize())
	return nil
}
