// Package tabular turns uploaded CSV or JSON payloads into uniform records
// plus an ordered header list for the bulk fill pipeline.
//
// Expected outputs:
// - CSV: first row is the header (entries trimmed), every non-empty data
//   row becomes one record. Malformed rows fail the whole parse.
// - JSON: the root must be a non-empty array of flat objects; headers are
//   the keys of the first element in document order.
//
// No type coercion happens here; values stay as parsed (string for CSV,
// string/number/boolean for JSON). Coercion is the applicator's job.
package tabular

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FormatCSV and FormatJSON are the accepted format hints.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Up to this many offending row numbers are listed in a CSV parse error.
const maxReportedRows = 5

// Result holds parsed records in input order plus the ordered header list.
type Result struct {
	Records []map[string]any `json:"records"`
	Headers []string         `json:"headers"`
}

// Parse dispatches on the format hint. The hint may be a plain format name
// or a filename/content type containing one.
func Parse(raw []byte, formatHint string) (*Result, error) {
	hint := strings.ToLower(formatHint)
	switch {
	case strings.Contains(hint, FormatJSON):
		return ParseJSON(raw)
	case strings.Contains(hint, FormatCSV):
		return ParseCSV(raw)
	default:
		return nil, fmt.Errorf("unsupported data format %q (expected csv or json)", formatHint)
	}
}

// ParseCSV parses a CSV document whose first row is the header.
func ParseCSV(raw []byte) (*Result, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV header: %w", err)
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	var (
		records []map[string]any
		badRows []int
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			badRows = append(badRows, rowNumber(err, len(records)+2))
			// Field-count mismatches leave the reader usable; quoting
			// errors do not.
			if errors.Is(err, csv.ErrFieldCount) {
				continue
			}
			break
		}
		if isBlank(row) {
			continue
		}
		record := make(map[string]any, len(headers))
		for i, h := range headers {
			if i < len(row) {
				record[h] = row[i]
			}
		}
		records = append(records, record)
	}

	if len(badRows) > 0 {
		if len(badRows) > maxReportedRows {
			badRows = badRows[:maxReportedRows]
		}
		return nil, fmt.Errorf("malformed CSV rows: %s", joinRows(badRows))
	}
	return &Result{Records: records, Headers: headers}, nil
}

// ParseJSON parses a JSON array of flat objects.
func ParseJSON(raw []byte) (*Result, error) {
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errors.New("JSON data must be an array of objects")
		}
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("JSON data contains no records")
	}

	headers, err := firstObjectKeys(raw)
	if err != nil {
		return nil, err
	}
	return &Result{Records: records, Headers: headers}, nil
}

// firstObjectKeys walks the raw tokens of the first array element so the
// header order matches the document instead of Go map iteration.
func firstObjectKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // [
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}
	tok, err := dec.Token() // {
	if err != nil {
		return nil, fmt.Errorf("invalid JSON data: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("JSON data must be an array of objects")
	}

	var keys []string
	depth := 0
	expectKey := true
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON data: %w", err)
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return keys, nil
				}
				depth--
				if depth == 0 {
					expectKey = true
				}
			}
			continue
		}
		if depth == 0 && expectKey {
			if key, ok := tok.(string); ok {
				keys = append(keys, key)
			}
			expectKey = false
			continue
		}
		if depth == 0 {
			expectKey = true
		}
	}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func rowNumber(err error, fallback int) int {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Line
	}
	return fallback
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprint(r)
	}
	return strings.Join(parts, ", ")
}
