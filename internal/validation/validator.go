// Package validation reports non-fatal problems in a document: things the
// model accepts but that will export as empty or misleading cells.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
)

type Severity string

const (
	SevError   Severity = "error"
	SevWarning Severity = "warning"
)

type Issue struct {
	Code     string         `json:"code"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Field    string         `json:"field,omitempty"`
	Path     string         `json:"path,omitempty"` // JSON Pointer-ish ("/subprograms/0/steps/1")
	Hint     string         `json:"hint,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Validate checks doc. It never modifies it.
func Validate(doc *document.Document) Report {
	rep := Report{}
	validateIO(&rep, doc.IO)
	validateSubprograms(&rep, doc)
	validateRules(&rep, doc)
	rep.finalize()
	return rep
}

func validateIO(rep *Report, io *document.IORegistry) {
	seen := map[string][]int{}
	for i, e := range io.All() {
		path := fmt.Sprintf("/io/%d", i)
		if strings.TrimSpace(e.Name) == "" {
			rep.addError(Issue{
				Code:    "IO_001",
				Message: "IO element name is required",
				Field:   "name",
				Path:    path + "/name",
				Hint:    "Conditions can only reference named elements",
			})
			continue
		}
		seen[e.Name] = append(seen[e.Name], i)
	}

	for name, idx := range seen {
		if len(idx) < 2 {
			continue
		}
		rep.addWarning(Issue{
			Code:    "IO_002",
			Message: fmt.Sprintf("IO element name %q is used %d times", name, len(idx)),
			Field:   "name",
			Path:    fmt.Sprintf("/io/%d/name", idx[len(idx)-1]),
			Hint:    "Lookups by name resolve to the last element; rename the others",
			Meta:    map[string]any{"indices": idx},
		})
	}
}

func validateSubprograms(rep *Report, doc *document.Document) {
	for i, sp := range doc.Subprograms.All() {
		base := fmt.Sprintf("/subprograms/%d", i)
		if strings.TrimSpace(sp.Name()) == "" {
			rep.addWarning(Issue{
				Code:    "SUBPROGRAM_001",
				Message: "Subprogram has no name",
				Field:   "name",
				Path:    base + "/name",
			})
		}
		if sp.StepCount() == 0 {
			rep.addWarning(Issue{
				Code:    "SUBPROGRAM_002",
				Message: "Subprogram has no steps and will not appear in the table",
				Path:    base + "/steps",
			})
		}
		for j, st := range sp.Steps() {
			stepPath := fmt.Sprintf("%s/steps/%d", base, j)
			if strings.TrimSpace(st.Description()) == "" {
				rep.addWarning(Issue{
					Code:    "STEP_001",
					Message: "Step has no description",
					Field:   "description",
					Path:    stepPath + "/description",
					Meta:    map[string]any{"address": sp.Address() + j},
				})
			}
			validateBindings(rep, doc.IO, stepPath, st.Conditions(document.FrameState), st.Conditions(document.FrameControl))
		}
	}
}

func validateRules(rep *Report, doc *document.Document) {
	last := doc.Subprograms.LastAddress()
	for i, rule := range doc.Rules.All() {
		base := fmt.Sprintf("/rules/%d", i)
		if !doc.AddressInRange(rule.TargetAddress()) {
			rep.addError(Issue{
				Code:    "RULE_001",
				Message: fmt.Sprintf("Target address %d does not exist", rule.TargetAddress()),
				Field:   "target_address",
				Path:    base + "/target_address",
				Hint:    fmt.Sprintf("Valid addresses are 1..%d", last-1),
				Meta:    map[string]any{"target_address": rule.TargetAddress(), "last_address": last},
			})
		}
		if strings.TrimSpace(rule.Description()) == "" {
			rep.addWarning(Issue{
				Code:    "RULE_002",
				Message: "Condition rule has no description",
				Field:   "description",
				Path:    base + "/description",
			})
		}
		validateBindings(rep, doc.IO, base, rule.Conditions(document.FrameState), rule.Conditions(document.FrameControl))
	}
}

func validateBindings(rep *Report, io *document.IORegistry, base string, state, control []*document.ConditionBinding) {
	buckets := []struct {
		key      string
		bindings []*document.ConditionBinding
	}{
		{"state_conditions", state},
		{"control_conditions", control},
	}

	for _, bucket := range buckets {
		first := map[string]int{}
		for k, b := range bucket.bindings {
			path := fmt.Sprintf("%s/%s/%d", base, bucket.key, k)
			target, ok := b.Target()
			if !ok {
				rep.addWarning(Issue{
					Code:    "BINDING_001",
					Message: "Condition has no target element",
					Field:   "target",
					Path:    path,
					Hint:    "The condition exports as an empty cell",
				})
				continue
			}
			if _, found := b.Resolve(io); !found {
				rep.addWarning(Issue{
					Code:    "BINDING_001",
					Message: fmt.Sprintf("Condition target %q no longer exists", target),
					Field:   "target",
					Path:    path,
					Hint:    "The condition exports as an empty cell",
					Meta:    map[string]any{"target": target},
				})
				continue
			}
			if prev, dup := first[target]; dup {
				rep.addWarning(Issue{
					Code:    "BINDING_002",
					Message: fmt.Sprintf("Condition on %q is shadowed by condition %d", target, prev),
					Field:   "target",
					Path:    path,
					Hint:    "Only the first condition per element is exported",
					Meta:    map[string]any{"target": target, "shadowed_by": prev},
				})
				continue
			}
			first[target] = k
		}
	}
}

func (r *Report) addError(i Issue) {
	if i.Severity == "" {
		i.Severity = SevError
	}
	r.Errors = append(r.Errors, i)
}

func (r *Report) addWarning(i Issue) {
	if i.Severity == "" {
		i.Severity = SevWarning
	}
	r.Warnings = append(r.Warnings, i)
}

func (r *Report) finalize() {
	sortIssues(r.Errors)
	sortIssues(r.Warnings)
	r.Valid = len(r.Errors) == 0
}

func sortIssues(list []Issue) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}
