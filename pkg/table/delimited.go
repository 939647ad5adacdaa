package table

import (
	"bytes"
	"encoding/csv"
	"io"
	"unicode/utf8"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// DefaultDelimiter separates exported fields unless told otherwise.
const DefaultDelimiter = ','

// SerializeToDelimited renders view as delimited text: a header line with the
// field names of the first row, then one line per row in the same order.
// An empty view yields the empty string.
func SerializeToDelimited[R domain.Row](view []R, delimiter rune) string {
	var buf bytes.Buffer
	// bytes.Buffer writes can not fail and every record has a valid delimiter.
	_ = WriteDelimited(&buf, view, delimiter, nil)
	return buf.String()
}

// WriteDelimited streams view to w. When columns is empty the header comes
// from the first row. Missing fields produce empty cells.
func WriteDelimited[R domain.Row](w io.Writer, view []R, delimiter rune, columns []string) error {
	if len(view) == 0 {
		return nil
	}
	if len(columns) == 0 {
		columns = view[0].Fields()
	}

	cw := csv.NewWriter(w)
	cw.Comma = validDelimiter(delimiter)

	if err := cw.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range view {
		for i, name := range columns {
			record[i] = ""
			if value, ok := row.Field(name); ok {
				record[i], _ = FormatValue(value)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// validDelimiter falls back to a comma for delimiters encoding/csv rejects.
func validDelimiter(r rune) rune {
	if r == 0 || r == '"' || r == '\r' || r == '\n' || !utf8.ValidRune(r) || r == utf8.RuneError {
		return DefaultDelimiter
	}
	return r
}
