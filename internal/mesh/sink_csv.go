package mesh

import (
	"encoding/csv"
	"io"

	"meshalias/internal"
)

type CSVSink struct {
	w *csv.Writer
}

func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

func (s *CSVSink) WriteHeader(fields []string) error {
	return s.w.Write(fields)
}

func (s *CSVSink) WriteRow(row internal.AliasRow) error {
	return s.w.Write([]string{row.Alias, row.Term})
}

// Flush pushes buffered rows to the underlying writer and reports any write error.
func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}
