package export

import "strconv"

// Format is the cosmetic style of a cell.
type Format string

const (
	FormatDefault     Format = "default"
	FormatDescription Format = "description"
	FormatRotated     Format = "rotated"
)

type CellKind string

const (
	KindString CellKind = "string"
	KindNumber CellKind = "number"
)

// Cell is a single written cell. Row and Col are 0-based.
type Cell struct {
	Row    int      `json:"row"`
	Col    int      `json:"col"`
	Kind   CellKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Number float64  `json:"number,omitempty"`
	Format Format   `json:"format"`
}

// Value renders the cell content as text.
func (c Cell) Value() string {
	if c.Kind == KindNumber {
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return c.Text
}

// Merge is a merged range carrying a string value. Bounds are inclusive.
type Merge struct {
	FirstRow int    `json:"first_row"`
	FirstCol int    `json:"first_col"`
	LastRow  int    `json:"last_row"`
	LastCol  int    `json:"last_col"`
	Text     string `json:"text"`
	Format   Format `json:"format"`
}

func (m Merge) Contains(row, col int) bool {
	return row >= m.FirstRow && row <= m.LastRow && col >= m.FirstCol && col <= m.LastCol
}

// Sheet is the layout of one worksheet, independent of any file format.
type Sheet struct {
	Name   string  `json:"name"`
	Merges []Merge `json:"merges"`
	Cells  []Cell  `json:"cells"`
}

func (s *Sheet) merge(firstRow, firstCol, lastRow, lastCol int, text string, f Format) {
	s.Merges = append(s.Merges, Merge{
		FirstRow: firstRow,
		FirstCol: firstCol,
		LastRow:  lastRow,
		LastCol:  lastCol,
		Text:     text,
		Format:   f,
	})
}

func (s *Sheet) str(row, col int, text string, f Format) {
	s.Cells = append(s.Cells, Cell{Row: row, Col: col, Kind: KindString, Text: text, Format: f})
}

func (s *Sheet) num(row, col int, v float64, f Format) {
	s.Cells = append(s.Cells, Cell{Row: row, Col: col, Kind: KindNumber, Number: v, Format: f})
}

// CellAt returns the last cell written at row, col.
func (s *Sheet) CellAt(row, col int) (Cell, bool) {
	for i := len(s.Cells) - 1; i >= 0; i-- {
		if s.Cells[i].Row == row && s.Cells[i].Col == col {
			return s.Cells[i], true
		}
	}
	return Cell{}, false
}

// MergeAt returns the merged range covering row, col.
func (s *Sheet) MergeAt(row, col int) (Merge, bool) {
	for _, m := range s.Merges {
		if m.Contains(row, col) {
			return m, true
		}
	}
	return Merge{}, false
}

// Value returns the visible text at row, col: a written cell, or the value
// of a merge whose top-left corner is row, col.
func (s *Sheet) Value(row, col int) (string, bool) {
	if c, ok := s.CellAt(row, col); ok {
		return c.Value(), true
	}
	if m, ok := s.MergeAt(row, col); ok && m.FirstRow == row && m.FirstCol == col {
		return m.Text, true
	}
	return "", false
}

// Rows is one past the last row in use.
func (s *Sheet) Rows() int {
	n := 0
	for _, c := range s.Cells {
		if c.Row+1 > n {
			n = c.Row + 1
		}
	}
	for _, m := range s.Merges {
		if m.LastRow+1 > n {
			n = m.LastRow + 1
		}
	}
	return n
}
