package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

const fence = "```"

// StripFencing removes a markdown code-fence wrapper from model output.
//
// A leading line of three backticks (optionally followed by a language tag
// such as "csv") and trailing three backticks, on their own line or at the
// end of the last row, are dropped along with surrounding whitespace. Stripping repeats until the
// text no longer changes, so the result is a fixpoint:
// StripFencing(StripFencing(x)) == StripFencing(x).
func StripFencing(text string) string {
	for {
		next := stripFenceOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func stripFenceOnce(text string) string {
	t := strings.TrimSpace(text)

	if strings.HasPrefix(t, fence) {
		if nl := strings.IndexByte(t, '\n'); nl >= 0 {
			tag := strings.TrimSpace(t[len(fence):nl])
			if !strings.Contains(tag, "`") {
				t = strings.TrimSpace(t[nl+1:])
			}
		}
	}

	if strings.HasSuffix(t, fence) {
		lastNL := strings.LastIndexByte(t, '\n')
		if strings.TrimSpace(t[lastNL+1:]) == fence {
			t = strings.TrimSpace(t[:lastNL+1])
		} else {
			// Closing fence glued to the last row.
			t = strings.TrimSpace(strings.TrimSuffix(t, fence))
		}
	}

	return t
}

// Parse splits CSV text into a header row and data rows.
//
// Standard CSV quoting applies: comma delimiter, doubled quotes inside quoted
// fields, and newlines inside quoted fields are preserved. A quote inside an
// unquoted field is kept as a literal character. Records whose
// cells are all blank are dropped; the first remaining record is the header.
// Rows may have any width here; Validate checks width.
func Parse(text string) ([]string, []Row, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrEmptyInput
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	// Photographed cells such as 27" screen carry bare quotes.
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &SyntaxError{Err: err}
		}
		if isBlankRecord(record) {
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, nil, ErrEmptyInput
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, Row(record))
	}
	return headers, rows, nil
}

// Format serializes headers and rows with standard CSV quoting.
func Format(headers []string, rows []Row) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
