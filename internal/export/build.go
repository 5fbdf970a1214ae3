// Package export flattens a document into the two-sheet condition table and
// drives a spreadsheet writer with the result.
package export

import "github.com/KevinKickass/OpenSequenceCore/internal/document"

const (
	headerLastRow      = 2
	firstDataRow       = 3
	descriptionLastCol = 3

	// Subprograms sheet.
	addressCol  = 4
	operatorCol = 5
)

// Report is the complete table layout of a document.
type Report struct {
	Conditions  Sheet `json:"conditions"`
	Subprograms Sheet `json:"subprograms"`

	// Shadowed lists bindings that were not exported because an earlier
	// binding in the same bucket targets the same column.
	Shadowed []ShadowedBinding `json:"shadowed,omitempty"`
}

type ShadowedBinding struct {
	Sheet  string             `json:"sheet"`
	Row    int                `json:"row"`
	Col    int                `json:"col"`
	Target string             `json:"target"`
	Frame  document.FrameType `json:"frame"`
	Index  int                `json:"index"`
}

// columns are the IO elements of each frame in registry order.
type columns struct {
	state   []*document.IOElement
	control []*document.IOElement
}

func columnsOf(io *document.IORegistry) columns {
	return columns{
		state:   io.ByFrame(document.FrameState),
		control: io.ByFrame(document.FrameControl),
	}
}

// Build lays out doc. It does not modify doc.
func Build(doc *document.Document, labels Labels) *Report {
	rep := &Report{}
	cols := columnsOf(doc.IO)
	rep.Conditions = rep.buildConditions(doc, cols, labels)
	rep.Subprograms = rep.buildSubprograms(doc, cols, labels)
	return rep
}

func (rep *Report) buildConditions(doc *document.Document, cols columns, labels Labels) Sheet {
	s := Sheet{Name: labels.ConditionsSheet}

	stateFirst := descriptionLastCol + 1
	controlFirst := stateFirst + len(cols.state)
	blockedCol := controlFirst + len(cols.control)
	targetCol := blockedCol + 1
	criticalCol := targetCol + 1

	s.merge(0, 0, headerLastRow, descriptionLastCol, labels.Description, FormatDescription)
	s.groupHeader(stateFirst, cols.state, labels.SensorStates)
	s.groupHeader(controlFirst, cols.control, labels.ControlStates)
	s.merge(0, blockedCol, headerLastRow, blockedCol, labels.SignOfTransition, FormatRotated)
	s.merge(0, targetCol, headerLastRow, targetCol, labels.TransitionAddress, FormatRotated)
	s.merge(0, criticalCol, headerLastRow, criticalCol, labels.SignOfBlocking, FormatRotated)

	for i, rule := range doc.Rules.All() {
		row := firstDataRow + i
		s.merge(row, 0, row, descriptionLastCol, rule.Description(), FormatDescription)
		rep.conditionCells(&s, row, stateFirst, cols.state, rule.Conditions(document.FrameState))
		rep.conditionCells(&s, row, controlFirst, cols.control, rule.Conditions(document.FrameControl))
		s.str(row, blockedCol, EncodeFlag(rule.Blocked()), FormatDefault)
		s.num(row, targetCol, float64(rule.TargetAddress()), FormatDefault)
		s.str(row, criticalCol, EncodeFlag(rule.Critical()), FormatDefault)
	}
	return s
}

func (rep *Report) buildSubprograms(doc *document.Document, cols columns, labels Labels) Sheet {
	s := Sheet{Name: labels.SubprogramsSheet}

	stateFirst := operatorCol + 1
	controlFirst := stateFirst + len(cols.state)
	endCol := controlFirst + len(cols.control)

	s.merge(0, 0, headerLastRow, descriptionLastCol, labels.Description, FormatDescription)
	s.merge(0, addressCol, headerLastRow, addressCol, labels.Address, FormatRotated)
	s.merge(0, operatorCol, headerLastRow, operatorCol, labels.Operator, FormatDescription)
	s.groupHeader(stateFirst, cols.state, labels.SensorStates)
	s.groupHeader(controlFirst, cols.control, labels.ControlStates)
	s.merge(0, endCol, headerLastRow, endCol, labels.SignOfFinish, FormatRotated)

	// Initial pseudo-step.
	row := firstDataRow
	s.merge(row, 0, row, descriptionLastCol, labels.SubprogramInitial, FormatDescription)
	s.num(row, addressCol, 0, FormatDefault)
	s.str(row, operatorCol, SymbolAND, FormatDefault)
	for col := stateFirst; col < endCol; col++ {
		s.str(row, col, "", FormatDefault)
	}
	s.str(row, endCol, FlagSet, FormatDefault)
	row++

	for _, sp := range doc.Subprograms.All() {
		steps := sp.Steps()
		if len(steps) == 0 {
			continue
		}
		s.merge(row, 0, row+len(steps)-1, 0, sp.Name(), FormatRotated)
		for k, st := range steps {
			s.merge(row, 1, row, descriptionLastCol, st.Description(), FormatDefault)
			s.num(row, addressCol, float64(sp.Address()+k), FormatDefault)
			s.str(row, operatorCol, EncodeOperator(st.Operator()), FormatDefault)
			rep.conditionCells(&s, row, stateFirst, cols.state, st.Conditions(document.FrameState))
			rep.conditionCells(&s, row, controlFirst, cols.control, st.Conditions(document.FrameControl))
			if k == len(steps)-1 {
				s.str(row, endCol, FlagSet, FormatDefault)
			}
			row++
		}
	}
	return s
}

// groupHeader writes a column group: its title over the group in row 0,
// the element names in row 1 and 1-based ordinals in row 2.
func (s *Sheet) groupHeader(first int, elements []*document.IOElement, title string) {
	if len(elements) == 0 {
		return
	}
	s.merge(0, first, 0, first+len(elements)-1, title, FormatDescription)
	for j, e := range elements {
		s.str(1, first+j, e.Name, FormatRotated)
		s.num(2, first+j, float64(j+1), FormatDefault)
	}
}

// conditionCells writes one cell per column. A column takes the code of
// the first binding in bucket that targets it; later bindings for the same
// column are recorded as shadowed.
func (rep *Report) conditionCells(s *Sheet, row, first int, elements []*document.IOElement, bucket []*document.ConditionBinding) {
	for j, e := range elements {
		col := first + j
		value := ""
		matched := false
		for idx, b := range bucket {
			target, ok := b.Target()
			if !ok || target != e.Name {
				continue
			}
			if !matched {
				value = EncodeState(b.RequiredState())
				matched = true
				continue
			}
			rep.Shadowed = append(rep.Shadowed, ShadowedBinding{
				Sheet:  s.Name,
				Row:    row,
				Col:    col,
				Target: target,
				Frame:  b.Frame(),
				Index:  idx,
			})
		}
		s.str(row, col, value, FormatDefault)
	}
}
