// Package transfer brings entries into a household: normalizing
// externally supplied rows and copying entries between households.
package transfer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Row is one externally supplied record. All fields hold raw text as
// found in the source; Normalize interprets them.
type Row struct {
	Date       string `json:"date"`
	Venue      string `json:"venue"`
	Instrument string `json:"instrument"`
	Stake      string `json:"stake"`
	Payout     string `json:"payout"`
	// Balance is an optional precomputed payout - stake.
	Balance string `json:"balance,omitempty"`
	Note    string `json:"note,omitempty"`
}

// fieldAliases maps alternative column names to Row fields.
var fieldAliases = map[string]string{
	"date":         "date",
	"venue":        "venue",
	"shop":         "venue",
	"shop_name":    "venue",
	"instrument":   "instrument",
	"machine":      "instrument",
	"machine_name": "instrument",
	"stake":        "stake",
	"investment":   "stake",
	"payout":       "payout",
	"recovery":     "payout",
	"balance":      "balance",
	"amount":       "balance",
	"note":         "note",
	"memo":         "note",
}

// Batch is a decoded set of rows. Invalid holds the 1-based line numbers
// of records that could not be read; they count as skipped on import.
type Batch struct {
	Rows    []Row
	Invalid []int
}

// DecodeRows reads rows in JSONL form: one JSON object per line, blank
// lines ignored. Values may be JSON strings or numbers, so both
// {"stake":"1,000"} and {"stake":1000} are accepted. Unknown keys are
// ignored. A line that is not a flat JSON object is recorded in
// Batch.Invalid and reading goes on; only a read failure is an error.
func DecodeRows(r io.Reader) (Batch, error) {
	var batch Batch
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		row, err := decodeRow(data)
		if err != nil {
			batch.Invalid = append(batch.Invalid, line)
			continue
		}
		batch.Rows = append(batch.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return Batch{}, fmt.Errorf("cannot read rows: %w", err)
	}
	return batch, nil
}

func decodeRow(data []byte) (Row, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Row{}, err
	}

	var row Row
	for key, value := range raw {
		field, ok := fieldAliases[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		text, err := rawText(value)
		if err != nil {
			return Row{}, fmt.Errorf("field %q: %w", key, err)
		}
		switch field {
		case "date":
			row.Date = text
		case "venue":
			row.Venue = text
		case "instrument":
			row.Instrument = text
		case "stake":
			row.Stake = text
		case "payout":
			row.Payout = text
		case "balance":
			row.Balance = text
		case "note":
			row.Note = text
		}
	}
	return row, nil
}

// rawText renders a JSON scalar as text. null becomes "".
func rawText(value json.RawMessage) (string, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return "", nil
	}
	switch value[0] {
	case '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("expected a string or number")
	}
	return string(value), nil
}

// EncodeRows writes rows in the form DecodeRows reads.
func EncodeRows(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("cannot write row: %w", err)
		}
	}
	return nil
}
