package ranges

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrMalformedASN  = errors.New("cell does not start with an AS<number> token")
)

// ParseError reports a source cell that could not be normalized.
// Table and Row are filled in by the Builder; the standalone helpers leave
// them empty.
type ParseError struct {
	Table string
	Row   uint64
	Cell  string
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %q: %v", e.Cell, e.Err)
	if e.Table == "" {
		return msg
	}
	return fmt.Sprintf("%s table row %d: %s", e.Table, e.Row, msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
