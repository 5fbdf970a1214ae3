// Package xlsx writes export reports as Office Open XML workbooks.
package xlsx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KevinKickass/OpenSequenceCore/internal/export"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"

	borderThin   = 1
	borderDouble = 6
)

// Workbook is an in-memory workbook persisted to its path on Close.
type Workbook struct {
	file   *excelize.File
	path   string
	styles map[export.Format]int
	sheets []string
}

// Open starts a workbook for path. Nothing touches the file system before
// Close.
func Open(path string) (export.Workbook, error) {
	return newWorkbook(path), nil
}

func newWorkbook(path string) *Workbook {
	return &Workbook{
		file:   excelize.NewFile(),
		path:   path,
		styles: map[export.Format]int{},
	}
}

func (w *Workbook) AddWorksheet(name string) (export.Worksheet, error) {
	idx, err := w.file.NewSheet(name)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet %q: %w", name, err)
	}
	if len(w.sheets) == 0 {
		w.file.SetActiveSheet(idx)
	}
	w.sheets = append(w.sheets, name)
	return &worksheet{book: w, name: name}, nil
}

// Close writes the workbook next to its destination and renames it into
// place, so a failed write never leaves a truncated file behind.
func (w *Workbook) Close() error {
	defer w.file.Close()

	if !w.hasSheet(defaultSheet) {
		if err := w.file.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := w.file.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}
	return nil
}

// Discard releases the workbook without writing anything.
func (w *Workbook) Discard() error {
	return w.file.Close()
}

func (w *Workbook) hasSheet(name string) bool {
	for _, s := range w.sheets {
		if s == name {
			return true
		}
	}
	return false
}

func (w *Workbook) style(f export.Format) (int, error) {
	if id, ok := w.styles[f]; ok {
		return id, nil
	}
	id, err := w.file.NewStyle(styleFor(f))
	if err != nil {
		return 0, fmt.Errorf("failed to create %s style: %w", f, err)
	}
	w.styles[f] = id
	return id, nil
}

func styleFor(f export.Format) *excelize.Style {
	borderStyle := borderThin
	align := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	switch f {
	case export.FormatDescription:
		borderStyle = borderDouble
	case export.FormatRotated:
		borderStyle = borderDouble
		align.TextRotation = 90
	}

	var borders []excelize.Border
	for _, side := range []string{"left", "top", "right", "bottom"} {
		borders = append(borders, excelize.Border{Type: side, Color: "000000", Style: borderStyle})
	}
	return &excelize.Style{Border: borders, Alignment: align}
}

type worksheet struct {
	book *Workbook
	name string
}

func cellName(row, col int) (string, error) {
	return excelize.CoordinatesToCellName(col+1, row+1)
}

func (ws *worksheet) MergeRange(firstRow, firstCol, lastRow, lastCol int, value string, format export.Format) error {
	if firstRow == lastRow && firstCol == lastCol {
		return ws.WriteString(firstRow, firstCol, value, format)
	}

	topLeft, err := cellName(firstRow, firstCol)
	if err != nil {
		return err
	}
	bottomRight, err := cellName(lastRow, lastCol)
	if err != nil {
		return err
	}

	f := ws.book.file
	if err := f.MergeCell(ws.name, topLeft, bottomRight); err != nil {
		return fmt.Errorf("failed to merge %s:%s: %w", topLeft, bottomRight, err)
	}
	if err := f.SetCellStr(ws.name, topLeft, value); err != nil {
		return err
	}
	return ws.applyStyle(topLeft, bottomRight, format)
}

func (ws *worksheet) WriteString(row, col int, value string, format export.Format) error {
	cell, err := cellName(row, col)
	if err != nil {
		return err
	}
	if err := ws.book.file.SetCellStr(ws.name, cell, value); err != nil {
		return err
	}
	return ws.applyStyle(cell, cell, format)
}

func (ws *worksheet) WriteNumber(row, col int, value float64, format export.Format) error {
	cell, err := cellName(row, col)
	if err != nil {
		return err
	}
	if err := ws.book.file.SetCellFloat(ws.name, cell, value, -1, 64); err != nil {
		return err
	}
	return ws.applyStyle(cell, cell, format)
}

func (ws *worksheet) applyStyle(from, to string, format export.Format) error {
	id, err := ws.book.style(format)
	if err != nil {
		return err
	}
	return ws.book.file.SetCellStyle(ws.name, from, to, id)
}
