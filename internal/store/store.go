// Package store owns all transaction state for every account.
//
// It maintains two synchronized views: a deduplicated current snapshot,
// keyed by transaction id and used to reconcile against bank statements,
// and an append-only historical record that survives imports and carries
// the user-editable memos. Both views persist to JSON files after every
// mutation; the files are a cache of in-memory truth, not the system of
// record while the process is serving requests.
package store

import (
	"sync"

	"movimenti/internal/core"
	"movimenti/internal/log"
)

type Store struct {
	currentFile string
	allFile     string
	logger      *log.Logger

	// One lock per view. Mutations that touch both views take the locks
	// one after the other, never nested, so there is no ordering to get
	// wrong. Lock scope covers only the in-memory change; persistence
	// happens afterwards.
	curMu   sync.Mutex
	current map[string]map[core.TransactionID]core.CurrentTransaction

	allMu sync.Mutex
	all   map[string][]core.HistoricalTransaction
}

// New creates an empty store persisting to the two given files.
func New(currentFile, allFile string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentStore)
	}
	return &Store{
		currentFile: currentFile,
		allFile:     allFile,
		logger:      logger,
		current:     make(map[string]map[core.TransactionID]core.CurrentTransaction),
		all:         make(map[string][]core.HistoricalTransaction),
	}
}

// Current returns every live snapshot entry across all accounts. Order is
// not meaningful; both levels come from maps.
func (s *Store) Current() []core.CurrentTransaction {
	s.curMu.Lock()
	defer s.curMu.Unlock()

	out := make([]core.CurrentTransaction, 0)
	for _, bucket := range s.current {
		for _, tx := range bucket {
			out = append(out, tx)
		}
	}
	return out
}

// All returns every historical entry across all accounts. Per-account
// insertion order is preserved; order across accounts is not defined.
func (s *Store) All() []core.HistoricalTransaction {
	s.allMu.Lock()
	defer s.allMu.Unlock()

	out := make([]core.HistoricalTransaction, 0)
	for _, entries := range s.all {
		out = append(out, entries...)
	}
	return out
}

// Create derives the transaction id from the request and inserts the
// transaction into both views, returning the new current entry. It fails
// with core.ErrTransactionExists when the account already has a live entry
// under the same id. The duplicate check and the insert happen under one
// lock: of two concurrent creates for the same id, exactly one wins.
func (s *Store) Create(req core.CreateTransactionRequest) (core.CurrentTransaction, error) {
	id := core.NewTransactionID(req.Timestamp, core.CentsFromFloat(req.Amount), req.Currency, req.Payee)
	tx := core.CurrentTransaction{AccountID: req.AccountID, ID: id}

	s.curMu.Lock()
	bucket := s.current[req.AccountID]
	if bucket == nil {
		bucket = make(map[core.TransactionID]core.CurrentTransaction)
		s.current[req.AccountID] = bucket
	}
	if _, exists := bucket[id]; exists {
		s.curMu.Unlock()
		return core.CurrentTransaction{}, core.ErrTransactionExists
	}
	bucket[id] = tx
	s.curMu.Unlock()

	s.allMu.Lock()
	s.all[req.AccountID] = append(s.all[req.AccountID], core.HistoricalTransaction{
		AccountID: req.AccountID,
		ID:        id,
	})
	s.allMu.Unlock()

	s.persist()
	return tx, nil
}

// BulkImport replaces the account's current snapshot for the date span
// covered by the batch and appends every record to the history.
//
// The eviction is a wholesale range replacement, not a per-id merge: every
// existing current entry whose timestamp falls inside [min, max] inclusive
// is removed, matching an imported id or not, on the assumption that a
// statement fully supersedes the bank feed for the dates it covers. This
// is intentional and load-bearing for reconciliation. Prior historical
// entries stay untouched. Within one batch a colliding id silently
// overwrites the earlier record (last-write-wins); Imported counts records
// processed, and Duplicates stays zero by contract.
//
// Callers are expected to reject empty batches (core.ErrEmptyImport)
// before reaching the store; an empty batch here is a no-op.
func (s *Store) BulkImport(accountID string, ids []core.TransactionID) core.ImportResult {
	res := core.ImportResult{Errors: []string{}}
	if len(ids) == 0 {
		return res
	}

	min, max := ids[0].Timestamp, ids[0].Timestamp
	for _, id := range ids[1:] {
		if id.Timestamp.Before(min) {
			min = id.Timestamp
		}
		if id.Timestamp.After(max) {
			max = id.Timestamp
		}
	}

	s.curMu.Lock()
	bucket := s.current[accountID]
	if bucket == nil {
		bucket = make(map[core.TransactionID]core.CurrentTransaction)
		s.current[accountID] = bucket
	}
	for id := range bucket {
		if !id.Timestamp.Before(min) && !id.Timestamp.After(max) {
			delete(bucket, id)
		}
	}
	for _, id := range ids {
		bucket[id] = core.CurrentTransaction{AccountID: accountID, ID: id}
		res.Imported++
	}
	s.curMu.Unlock()

	s.allMu.Lock()
	for _, id := range ids {
		s.all[accountID] = append(s.all[accountID], core.HistoricalTransaction{
			AccountID: accountID,
			ID:        id,
		})
	}
	s.allMu.Unlock()

	s.persist()
	return res
}

// UpdateMemo overwrites the memo on the historical entry matching the id
// by full equality, clearing it when memo is nil. The current snapshot is
// not touched. Returns core.ErrAccountNotFound when the account has no
// history at all, core.ErrTransactionNotFound when no entry matches.
func (s *Store) UpdateMemo(accountID string, id core.TransactionID, memo *string) error {
	id = id.Normalize()

	s.allMu.Lock()
	entries, ok := s.all[accountID]
	if !ok {
		s.allMu.Unlock()
		return core.ErrAccountNotFound
	}
	found := false
	for i := range entries {
		if entries[i].ID == id {
			entries[i].Memo = memo
			found = true
			break
		}
	}
	s.allMu.Unlock()

	if !found {
		return core.ErrTransactionNotFound
	}
	s.persist()
	return nil
}

// persist flushes both views after a mutation. Failures are logged and
// swallowed: an operation's success is defined by its in-memory effect,
// not by durability.
func (s *Store) persist() {
	if err := s.Save(); err != nil {
		s.logger.Warn("Failed to save transaction data", log.FieldError, err)
	}
}
