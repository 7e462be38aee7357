package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"movimenti/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"channel closed", amqp091.ErrClosed, true},
		{"wrapped channel closed", fmt.Errorf("start consuming: %w", amqp091.ErrClosed), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5672: connect: connection refused"), true},
		{"delivery channel closed", errors.New("message channel closed"), true},
		{"handler failure", errors.New("record event: constraint violation"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestAuditEventRoundTrip(t *testing.T) {
	id := core.NewTransactionID(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), 4250, "EUR", "Esselunga")
	memo := "nota"
	ev, err := NewMemoUpdatedEvent("acc-1", id, &memo)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if ev.EventID == "" || ev.Kind != KindMemoUpdated || ev.AccountID != "acc-1" {
		t.Fatalf("event header wrong: %+v", ev)
	}

	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := AuditEventFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.EventID != ev.EventID || back.Kind != ev.Kind {
		t.Fatalf("header lost: %+v", back)
	}

	var detail TransactionDetail
	if err := back.DetailAs(&detail); err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.ID != id {
		t.Fatalf("detail id = %+v, want %+v", detail.ID, id)
	}
	if detail.Memo == nil || *detail.Memo != memo {
		t.Fatalf("memo lost: %v", detail.Memo)
	}
}

func TestNewStatementImportedEvent(t *testing.T) {
	ev, err := NewStatementImportedEvent("acc-1", 12, 3)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	var detail ImportDetail
	if err := ev.DetailAs(&detail); err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Imported != 12 || detail.RowErrors != 3 {
		t.Fatalf("detail = %+v", detail)
	}
}
