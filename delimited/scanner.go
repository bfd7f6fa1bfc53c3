// Package delimited reads and writes comma separated text.
//
// The reader is deliberately permissive: it never reports malformed quoting.
// A quote character opens a quoted region wherever it appears, and a region
// left open swallows the rest of the input (separators and newlines included)
// into the current field. Quote state is tracked across the whole input, so a
// quoted field may span several physical lines.
package delimited

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	// Separator divides fields within a row.
	Separator = ','

	// Quote opens and closes a quoted region. Two quotes inside a quoted
	// region stand for one literal quote.
	Quote = '"'

	// Newline terminates a row when it appears outside a quoted region.
	Newline = '\n'
)

// Scanner yields the rows of delimited text one at a time.
// A Scanner is single-pass; scan the same text again by creating a new Scanner.
type Scanner struct {
	r   *bufio.Reader
	row []string
	err error
	eof bool
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan advances to the next row, which is then available through Row.
// It returns false at the end of input or on a read error.
func (s *Scanner) Scan() bool {
	if s.eof || s.err != nil {
		return false
	}

	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		pending  bool // the current row has seen at least one byte
	)

	for {
		c, err := s.r.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
				return false
			}
			s.eof = true
			if !pending {
				s.row = nil
				return false
			}
			s.row = append(fields, field.String())
			return true
		}
		pending = true

		if inQuotes {
			if c != Quote {
				field.WriteByte(c)
				continue
			}
			next, err := s.r.Peek(1)
			if err == nil && next[0] == Quote {
				s.r.ReadByte()
				field.WriteByte(Quote)
				continue
			}
			inQuotes = false
			continue
		}

		switch c {
		case Quote:
			inQuotes = true
		case Separator:
			fields = append(fields, field.String())
			field.Reset()
		case '\r':
			next, err := s.r.Peek(1)
			if err == nil && next[0] == Newline {
				continue
			}
			field.WriteByte(c)
		case Newline:
			s.row = append(fields, field.String())
			return true
		default:
			field.WriteByte(c)
		}
	}
}

// Row returns the most recent row produced by Scan.
func (s *Scanner) Row() []string {
	return s.row
}

// Err returns the first non-EOF read error encountered.
func (s *Scanner) Err() error {
	return s.err
}

// ReadAll scans every row from r.
func ReadAll(r io.Reader) ([][]string, error) {
	var rows [][]string
	s := NewScanner(r)
	for s.Scan() {
		rows = append(rows, s.Row())
	}
	return rows, s.Err()
}

// Parse scans every row of text.
func Parse(text string) [][]string {
	rows, _ := ReadAll(strings.NewReader(text))
	return rows
}
