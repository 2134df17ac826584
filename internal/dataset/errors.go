package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidValue  = errors.New("invalid value")
)

// MissingColumnError lists every required column absent from the header, in
// column contract order.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	if len(e.Columns) == 1 {
		return fmt.Sprintf("missing required column %q", e.Columns[0])
	}
	quoted := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "missing required columns " + strings.Join(quoted, ", ")
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// CellError reports a cell that does not hold its column's type. Row is the
// 1-based data row, header excluded.
type CellError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s (got %q)", e.Row, e.Column, e.Reason, e.Value)
}

func (e *CellError) Unwrap() error { return ErrInvalidValue }
