package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"meshalias/internal"
)

const aliasSheet = "aliases"

// XLSXSink writes the alias relation to a single-sheet workbook through the
// excelize stream writer.
type XLSXSink struct {
	f   *excelize.File
	sw  *excelize.StreamWriter
	row int
}

func NewXLSXSink() (*XLSXSink, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), aliasSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	sw, err := f.NewStreamWriter(aliasSheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &XLSXSink{f: f, sw: sw}, nil
}

func (s *XLSXSink) WriteHeader(fields []string) error {
	values := make([]any, len(fields))
	for i, h := range fields {
		values[i] = h
	}
	return s.next(values)
}

func (s *XLSXSink) WriteRow(row internal.AliasRow) error {
	return s.next([]any{row.Alias, row.Term})
}

func (s *XLSXSink) next(values []any) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.sw.SetRow(cell, values)
}

// SaveAs flushes the stream and writes the workbook to outputPath.
func (s *XLSXSink) SaveAs(outputPath string) error {
	defer s.f.Close()
	if err := s.sw.Flush(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return s.f.SaveAs(outputPath)
}

func (s *XLSXSink) Discard() error {
	return s.f.Close()
}
