package export

import (
	"errors"
	"fmt"
)

// ErrExportFailed wraps every failure reported by a spreadsheet writer.
var ErrExportFailed = errors.New("export failed")

// Worksheet receives the content of one sheet. Rows and columns are
// 0-based.
type Worksheet interface {
	MergeRange(firstRow, firstCol, lastRow, lastCol int, value string, format Format) error
	WriteString(row, col int, value string, format Format) error
	WriteNumber(row, col int, value float64, format Format) error
}

// Workbook is a spreadsheet under construction. Close persists it.
type Workbook interface {
	AddWorksheet(name string) (Worksheet, error)
	Close() error
}

// Discarder is implemented by workbooks that can drop their content
// without persisting anything.
type Discarder interface {
	Discard() error
}

// WorkbookOpener creates a workbook that is persisted to path on Close.
type WorkbookOpener func(path string) (Workbook, error)

// Write emits both sheets of rep into wb and closes it. On failure the
// workbook is discarded when possible and the error wraps ErrExportFailed.
func Write(rep *Report, wb Workbook) error {
	for _, s := range []*Sheet{&rep.Conditions, &rep.Subprograms} {
		if err := writeSheet(wb, s); err != nil {
			discard(wb)
			return fmt.Errorf("%w: sheet %q: %w", ErrExportFailed, s.Name, err)
		}
	}
	if err := wb.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

func writeSheet(wb Workbook, s *Sheet) error {
	ws, err := wb.AddWorksheet(s.Name)
	if err != nil {
		return err
	}
	for _, m := range s.Merges {
		if err := ws.MergeRange(m.FirstRow, m.FirstCol, m.LastRow, m.LastCol, m.Text, m.Format); err != nil {
			return err
		}
	}
	for _, c := range s.Cells {
		var err error
		switch c.Kind {
		case KindNumber:
			err = ws.WriteNumber(c.Row, c.Col, c.Number, c.Format)
		default:
			err = ws.WriteString(c.Row, c.Col, c.Text, c.Format)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func discard(wb Workbook) {
	if d, ok := wb.(Discarder); ok {
		_ = d.Discard()
	}
}
