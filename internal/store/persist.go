package store

import (
	"encoding/json"
	"fmt"
	"os"

	"movimenti/internal/core"
)

// The persisted layout mirrors the in-memory one. The current file is a
// mapping account id -> (transaction id key -> current transaction), where
// the map key renders the id's four fields; the all file is a mapping
// account id -> ordered list of historical transactions. Both files are
// pretty-printed so they diff cleanly under version control.

// Load replaces the in-memory state with whatever the files contain. A
// missing file means "start empty" for that view and is not an error; a
// file that exists but does not parse is. Callers typically log the error
// and continue with whatever was loaded.
func (s *Store) Load() error {
	if data, err := os.ReadFile(s.currentFile); err == nil {
		var decoded map[string]map[core.TransactionIDKey]core.CurrentTransaction
		if err := json.Unmarshal(data, &decoded); err != nil {
			return fmt.Errorf("parse %s: %w", s.currentFile, err)
		}
		if decoded == nil {
			// A JSON null unmarshals into a nil map without error; installing
			// it would panic on the next insert.
			return fmt.Errorf("parse %s: document is null", s.currentFile)
		}
		current := make(map[string]map[core.TransactionID]core.CurrentTransaction, len(decoded))
		for account, bucket := range decoded {
			b := make(map[core.TransactionID]core.CurrentTransaction, len(bucket))
			for key, tx := range bucket {
				tx.ID = tx.ID.Normalize()
				b[core.TransactionID(key)] = tx
			}
			current[account] = b
		}
		s.curMu.Lock()
		s.current = current
		s.curMu.Unlock()
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", s.currentFile, err)
	}

	if data, err := os.ReadFile(s.allFile); err == nil {
		var all map[string][]core.HistoricalTransaction
		if err := json.Unmarshal(data, &all); err != nil {
			return fmt.Errorf("parse %s: %w", s.allFile, err)
		}
		if all == nil {
			return fmt.Errorf("parse %s: document is null", s.allFile)
		}
		for _, entries := range all {
			for i := range entries {
				entries[i].ID = entries[i].ID.Normalize()
			}
		}
		s.allMu.Lock()
		s.all = all
		s.allMu.Unlock()
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", s.allFile, err)
	}

	return nil
}

// Save serializes both views to their files. Encoding happens under each
// view's lock, the writes happen outside any lock. The two writes are
// independent and there is no temp-file-and-rename step: a crash between
// them can leave the files mutually inconsistent. Accepted limitation,
// the files are reread only at startup.
func (s *Store) Save() error {
	s.curMu.Lock()
	encoded := make(map[string]map[core.TransactionIDKey]core.CurrentTransaction, len(s.current))
	for account, bucket := range s.current {
		b := make(map[core.TransactionIDKey]core.CurrentTransaction, len(bucket))
		for id, tx := range bucket {
			b[core.TransactionIDKey(id)] = tx
		}
		encoded[account] = b
	}
	currentJSON, err := json.MarshalIndent(encoded, "", "  ")
	s.curMu.Unlock()
	if err != nil {
		return fmt.Errorf("encode current transactions: %w", err)
	}
	if err := os.WriteFile(s.currentFile, currentJSON, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.currentFile, err)
	}

	s.allMu.Lock()
	allJSON, err := json.MarshalIndent(s.all, "", "  ")
	s.allMu.Unlock()
	if err != nil {
		return fmt.Errorf("encode historical transactions: %w", err)
	}
	if err := os.WriteFile(s.allFile, allJSON, 0644); err != nil {
		return fmt.Errorf("write %s: %w", s.allFile, err)
	}

	return nil
}
