package delimited

import (
	"io"
	"strings"
)

// Writer writes rows in the dialect read by Scanner.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRow writes fields as one newline terminated row.
func (w *Writer) WriteRow(fields []string) error {
	_, err := io.WriteString(w.w, FormatRow(fields)+string(Newline))
	return err
}

// FormatRow joins fields with the separator, quoting fields that need it.
func FormatRow(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(Separator)
		}
		b.WriteString(QuoteField(f))
	}
	return b.String()
}

// QuoteField returns f quoted if it contains a separator, quote, or line break.
func QuoteField(f string) string {
	if !strings.ContainsAny(f, ",\"\n\r") {
		return f
	}
	return string(Quote) + strings.ReplaceAll(f, `"`, `""`) + string(Quote)
}
