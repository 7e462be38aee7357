package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTransactionIDEquality(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	a := NewTransactionID(ts, 1234, "EUR", "Esselunga")
	// Same instant expressed in a different zone must produce an equal id.
	b := NewTransactionID(ts.In(time.FixedZone("CET", 3600)), 1234, "EUR", "Esselunga")
	if a != b {
		t.Fatalf("ids for the same instant differ: %+v vs %+v", a, b)
	}

	// Exact equality on every field, no tolerance.
	if a == NewTransactionID(ts, 1235, "EUR", "Esselunga") {
		t.Fatal("ids with different amounts compare equal")
	}
	if a == NewTransactionID(ts, 1234, "USD", "Esselunga") {
		t.Fatal("ids with different currencies compare equal")
	}
	if a == NewTransactionID(ts, 1234, "EUR", "esselunga") {
		t.Fatal("ids with different payees compare equal")
	}
	if a == NewTransactionID(ts.Add(time.Second), 1234, "EUR", "Esselunga") {
		t.Fatal("ids with different timestamps compare equal")
	}
}

func TestTransactionIDUsableAsMapKey(t *testing.T) {
	ts := time.Now() // carries a monotonic reading on purpose
	m := map[TransactionID]string{}
	m[NewTransactionID(ts, 500, "EUR", "Bar Centrale")] = "x"
	if _, ok := m[NewTransactionID(ts.UTC(), 500, "EUR", "Bar Centrale")]; !ok {
		t.Fatal("normalized id not found under an equivalent key")
	}
}

func TestTransactionIDKeyRoundTrip(t *testing.T) {
	id := NewTransactionID(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), -995, "EUR", `Caffè "da Mario", centro`)

	bucket := map[TransactionIDKey]CurrentTransaction{
		TransactionIDKey(id): {AccountID: "acc-1", ID: id},
	}
	data, err := json.Marshal(bucket)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back map[TransactionIDKey]CurrentTransaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, ok := back[TransactionIDKey(id)]
	if !ok {
		t.Fatalf("key lost in round trip: %s", data)
	}
	if got.AccountID != "acc-1" || got.ID != id {
		t.Fatalf("value mangled in round trip: %+v", got)
	}
}

func TestCreateTransactionRequestValidate(t *testing.T) {
	valid := CreateTransactionRequest{
		AccountID: "acc-1",
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Payee:     "Trenitalia",
		Amount:    45.90,
		Currency:  "EUR",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := map[string]func(r *CreateTransactionRequest){
		"missing account":  func(r *CreateTransactionRequest) { r.AccountID = " " },
		"zero timestamp":   func(r *CreateTransactionRequest) { r.Timestamp = time.Time{} },
		"missing payee":    func(r *CreateTransactionRequest) { r.Payee = "" },
		"missing currency": func(r *CreateTransactionRequest) { r.Currency = "" },
	}
	for name, mutate := range cases {
		r := valid
		mutate(&r)
		if err := r.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
