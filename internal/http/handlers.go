package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"movimenti/internal/core"
	"movimenti/internal/log"
)

func (s *Server) handleCurrentTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.CurrentTransactions(r.Context()))
}

func (s *Server) handleAllTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.AllTransactions(r.Context()))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req core.CreateTransactionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}

	tx, err := s.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
			return
		}
		writeError(w, r, fmt.Errorf("%w: reading statement body: %v", core.ErrInvalidRequest, err))
		return
	}

	res, err := s.svc.ImportStatement(r.Context(), account, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// memoBody is the PUT body for memo updates. A null or missing memo
// clears the annotation.
type memoBody struct {
	Memo *string `json:"memo"`
}

func (s *Server) handleUpdateMemo(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")

	id, err := transactionIDFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body memoBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}
	// An empty memo means "clear", same as null.
	if body.Memo != nil && strings.TrimSpace(*body.Memo) == "" {
		body.Memo = nil
	}

	if err := s.svc.UpdateMemo(r.Context(), account, id, body.Memo); err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Memo request served",
		log.FieldAccountID, account,
		log.FieldPayee, id.Payee)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// transactionIDFromQuery rebuilds the natural key from the timestamp,
// amount, currency and payee query parameters.
func transactionIDFromQuery(r *http.Request) (core.TransactionID, error) {
	q := r.URL.Query()

	for _, p := range []string{"timestamp", "amount", "currency", "payee"} {
		if q.Get(p) == "" {
			return core.TransactionID{}, fmt.Errorf("%w: missing query parameter %q", core.ErrInvalidRequest, p)
		}
	}

	ts, err := time.Parse(time.RFC3339, q.Get("timestamp"))
	if err != nil {
		return core.TransactionID{}, fmt.Errorf("%w: %v", core.ErrInvalidTimestamp, err)
	}
	cents, err := core.ParseAmountToCents(q.Get("amount"))
	if err != nil {
		return core.TransactionID{}, err
	}

	return core.NewTransactionID(ts, cents, q.Get("currency"), q.Get("payee")), nil
}
