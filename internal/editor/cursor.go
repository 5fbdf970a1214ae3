package editor

import (
	"errors"
	"fmt"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
)

// NoSelection marks an unset cursor index.
const NoSelection = -1

var ErrNoSelection = errors.New("nothing selected")

// Cursor is the editor's navigation state: which subprogram, step and rule
// are open, and which condition frame is being edited.
type Cursor struct {
	Subprogram int                `json:"subprogram"`
	Step       int                `json:"step"`
	Rule       int                `json:"rule"`
	Frame      document.FrameType `json:"frame"`
}

func NewCursor() Cursor {
	return Cursor{
		Subprogram: NoSelection,
		Step:       NoSelection,
		Rule:       NoSelection,
		Frame:      document.FrameState,
	}
}

// selection holds the entities a cursor points at, so the cursor can
// follow them across a mutation.
type selection struct {
	subprogram *document.Subprogram
	step       *document.Step
	rule       *document.ConditionRule
}

func (c Cursor) selected(doc *document.Document) selection {
	var sel selection
	if sp, err := doc.Subprograms.SubprogramAt(c.Subprogram); err == nil {
		sel.subprogram = sp
		if st, err := sp.StepAt(c.Step); err == nil {
			sel.step = st
		}
	}
	if r, err := doc.Rules.RuleAt(c.Rule); err == nil {
		sel.rule = r
	}
	return sel
}

// retarget moves the cursor to the current indices of sel. Selections whose
// entity was removed are cleared; removing an earlier sibling shifts the
// index down.
func (c *Cursor) retarget(doc *document.Document, sel selection) {
	c.Subprogram = indexOf(doc.Subprograms.All(), sel.subprogram)
	c.Step = NoSelection
	if c.Subprogram != NoSelection {
		c.Step = indexOf(sel.subprogram.Steps(), sel.step)
	}
	c.Rule = indexOf(doc.Rules.All(), sel.rule)
}

func indexOf[T comparable](list []T, item T) int {
	var zero T
	if item == zero {
		return NoSelection
	}
	for i, v := range list {
		if v == item {
			return i
		}
	}
	return NoSelection
}

func (w *Workspace) Cursor() Cursor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cursor
}

// EditSubprogram opens subprogram i and closes any open step.
func (w *Workspace) EditSubprogram(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.doc.Subprograms.SubprogramAt(i); err != nil {
		return err
	}
	w.cursor.Subprogram = i
	w.cursor.Step = NoSelection
	return nil
}

// EditStep opens step i of the open subprogram.
func (w *Workspace) EditStep(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cursor.Subprogram == NoSelection {
		return fmt.Errorf("edit step: %w", ErrNoSelection)
	}
	if _, err := w.doc.Subprograms.Step(w.cursor.Subprogram, i); err != nil {
		return err
	}
	w.cursor.Step = i
	return nil
}

func (w *Workspace) EditRule(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.doc.Rules.RuleAt(i); err != nil {
		return err
	}
	w.cursor.Rule = i
	return nil
}

func (w *Workspace) SetActiveFrame(f document.FrameType) error {
	if !f.Valid() {
		return fmt.Errorf("unknown frame %q", f)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursor.Frame = f
	return nil
}

// Back closes the innermost open selection: the step, else the
// subprogram, else the rule.
func (w *Workspace) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.cursor.Step != NoSelection:
		w.cursor.Step = NoSelection
	case w.cursor.Subprogram != NoSelection:
		w.cursor.Subprogram = NoSelection
	default:
		w.cursor.Rule = NoSelection
	}
}

// SetCursor applies c after checking every selection against the document.
func (w *Workspace) SetCursor(c Cursor) error {
	if !c.Frame.Valid() {
		return fmt.Errorf("unknown frame %q", c.Frame)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if c.Subprogram != NoSelection {
		if _, err := w.doc.Subprograms.SubprogramAt(c.Subprogram); err != nil {
			return err
		}
	}
	if c.Step != NoSelection {
		if c.Subprogram == NoSelection {
			return fmt.Errorf("step without subprogram: %w", ErrNoSelection)
		}
		if _, err := w.doc.Subprograms.Step(c.Subprogram, c.Step); err != nil {
			return err
		}
	}
	if c.Rule != NoSelection {
		if _, err := w.doc.Rules.RuleAt(c.Rule); err != nil {
			return err
		}
	}
	w.cursor = c
	return nil
}

// CurrentConditions returns the bindings of the open step, or of the open
// rule when no step is open, in the active frame. The bindings belong to the
// live document; use ViewCursor to read them safely.
func (w *Workspace) CurrentConditions() ([]*document.ConditionBinding, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return SelectedConditions(w.doc, w.cursor)
}

// ViewCursor runs fn with shared access to the document and the cursor.
func (w *Workspace) ViewCursor(fn func(doc *document.Document, c Cursor) error) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return fn(w.doc, w.cursor)
}

// SelectedConditions resolves the bindings c points at in doc.
func SelectedConditions(doc *document.Document, c Cursor) ([]*document.ConditionBinding, error) {
	if c.Step != NoSelection {
		st, err := doc.Subprograms.Step(c.Subprogram, c.Step)
		if err != nil {
			return nil, err
		}
		return st.Conditions(c.Frame), nil
	}
	if c.Rule != NoSelection {
		r, err := doc.Rules.RuleAt(c.Rule)
		if err != nil {
			return nil, err
		}
		return r.Conditions(c.Frame), nil
	}
	return nil, ErrNoSelection
}
