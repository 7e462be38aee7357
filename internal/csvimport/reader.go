// Package csvimport decodes bank statement CSVs into transaction ids.
//
// Statements carry a header row naming the timestamp, payee, amount and
// currency columns, in any order. Rows are decoded independently: a row
// that fails to parse becomes one error message and never aborts the
// batch. Deciding what to do with a batch where every row failed is the
// caller's business.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"movimenti/internal/core"
)

var requiredColumns = []string{"timestamp", "payee", "amount", "currency"}

// Parse decodes a statement body. It returns the parsed ids in row order
// together with one message per failed row, tagged with the source row
// number (data row index + 2, accounting for the header row and 1-based
// display). A missing or unreadable header is a request-level error, not a
// row error.
func Parse(data []byte) ([]core.TransactionID, []string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty statement", core.ErrInvalidRequest)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unreadable header: %v", core.ErrInvalidRequest, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", core.ErrInvalidRequest, name)
		}
	}

	var (
		ids     []core.TransactionID
		rowErrs []string
	)
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line := row + 2
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("Row %d: CSV parsing error - %v", line, err))
			if !errors.Is(err, csv.ErrFieldCount) {
				// The reader cannot resync after a bare-quote style error.
				break
			}
			continue
		}
		id, err := parseRow(record, cols)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("Row %d: %v", line, err))
			continue
		}
		ids = append(ids, id)
	}
	return ids, rowErrs, nil
}

func parseRow(record []string, cols map[string]int) (core.TransactionID, error) {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(record[cols["timestamp"]]))
	if err != nil {
		return core.TransactionID{}, fmt.Errorf("invalid timestamp format - %v", err)
	}
	cents, err := core.ParseAmountToCents(record[cols["amount"]])
	if err != nil {
		return core.TransactionID{}, fmt.Errorf("invalid amount %q", strings.TrimSpace(record[cols["amount"]]))
	}
	payee := strings.TrimSpace(record[cols["payee"]])
	currency := strings.TrimSpace(record[cols["currency"]])
	if payee == "" {
		return core.TransactionID{}, errors.New("missing payee")
	}
	if currency == "" {
		return core.TransactionID{}, errors.New("missing currency")
	}
	return core.NewTransactionID(ts, cents, currency, payee), nil
}
