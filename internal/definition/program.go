// Package definition is the on-disk form of a sequence program. A Program
// round-trips through JSON, YAML and HCL and converts to and from
// document.Document.
package definition

import (
	"fmt"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
)

const CurrentVersion = "1"

type Program struct {
	Name        string       `json:"name,omitempty" yaml:"name,omitempty" hcl:"name,optional"`
	Version     string       `json:"version,omitempty" yaml:"version,omitempty" hcl:"version,optional"`
	IO          []IOElement  `json:"io,omitempty" yaml:"io,omitempty" hcl:"io,block"`
	Subprograms []Subprogram `json:"subprograms,omitempty" yaml:"subprograms,omitempty" hcl:"subprogram,block"`
	Rules       []Rule       `json:"rules,omitempty" yaml:"rules,omitempty" hcl:"rule,block"`
}

type IOElement struct {
	Name      string `json:"name" yaml:"name" hcl:"name,label"`
	Frame     string `json:"frame,omitempty" yaml:"frame,omitempty" hcl:"frame,optional"`
	Signal    string `json:"signal,omitempty" yaml:"signal,omitempty" hcl:"signal,optional"`
	HWAddress int    `json:"hw_address,omitempty" yaml:"hw_address,omitempty" hcl:"hw_address,optional"`
}

type Subprogram struct {
	Name     string `json:"name" yaml:"name" hcl:"name,label"`
	Priority string `json:"priority,omitempty" yaml:"priority,omitempty" hcl:"priority,optional"`
	Steps    []Step `json:"steps,omitempty" yaml:"steps,omitempty" hcl:"step,block"`
}

type Step struct {
	Description string      `json:"description,omitempty" yaml:"description,omitempty" hcl:"description,optional"`
	Operator    string      `json:"operator,omitempty" yaml:"operator,omitempty" hcl:"operator,optional"`
	State       []Condition `json:"state_conditions,omitempty" yaml:"state_conditions,omitempty" hcl:"state,block"`
	Control     []Condition `json:"control_conditions,omitempty" yaml:"control_conditions,omitempty" hcl:"control,block"`
}

// Condition names its target element. An empty target is an unresolved
// condition.
type Condition struct {
	Target  string `json:"target,omitempty" yaml:"target,omitempty" hcl:"target,optional"`
	Require string `json:"require,omitempty" yaml:"require,omitempty" hcl:"require,optional"`
}

type Rule struct {
	Description   string      `json:"description,omitempty" yaml:"description,omitempty" hcl:"description,optional"`
	Blocked       bool        `json:"blocked,omitempty" yaml:"blocked,omitempty" hcl:"blocked,optional"`
	Critical      bool        `json:"critical,omitempty" yaml:"critical,omitempty" hcl:"critical,optional"`
	TargetAddress int         `json:"target_address" yaml:"target_address" hcl:"target_address,optional"`
	State         []Condition `json:"state_conditions,omitempty" yaml:"state_conditions,omitempty" hcl:"state,block"`
	Control       []Condition `json:"control_conditions,omitempty" yaml:"control_conditions,omitempty" hcl:"control,block"`
}

// FromDocument captures doc. A condition whose element was removed keeps
// the stale target name.
func FromDocument(name string, doc *document.Document) *Program {
	p := &Program{Name: name, Version: CurrentVersion}

	for _, e := range doc.IO.All() {
		p.IO = append(p.IO, IOElement{
			Name:      e.Name,
			Frame:     string(e.Frame),
			Signal:    string(e.Signal),
			HWAddress: int(e.HWAddress),
		})
	}

	for _, sp := range doc.Subprograms.All() {
		out := Subprogram{Name: sp.Name(), Priority: string(sp.Priority())}
		for _, st := range sp.Steps() {
			out.Steps = append(out.Steps, Step{
				Description: st.Description(),
				Operator:    string(st.Operator()),
				State:       conditionsOf(st.Conditions(document.FrameState)),
				Control:     conditionsOf(st.Conditions(document.FrameControl)),
			})
		}
		p.Subprograms = append(p.Subprograms, out)
	}

	for _, r := range doc.Rules.All() {
		p.Rules = append(p.Rules, Rule{
			Description:   r.Description(),
			Blocked:       r.Blocked(),
			Critical:      r.Critical(),
			TargetAddress: r.TargetAddress(),
			State:         conditionsOf(r.Conditions(document.FrameState)),
			Control:       conditionsOf(r.Conditions(document.FrameControl)),
		})
	}
	return p
}

func conditionsOf(bindings []*document.ConditionBinding) []Condition {
	var out []Condition
	for _, b := range bindings {
		target, state, _ := b.Data()
		out = append(out, Condition{Target: target, Require: string(state)})
	}
	return out
}

// ToDocument builds a document from p. Empty enum fields take their
// defaults. Conditions whose target does not exist in the condition's
// frame load unresolved.
func (p *Program) ToDocument() (*document.Document, error) {
	doc := document.New()

	for i, in := range p.IO {
		e, err := in.toElement()
		if err != nil {
			return nil, fmt.Errorf("io[%d] %q: %w", i, in.Name, err)
		}
		doc.IO.Add(e)
	}

	for i, in := range p.Subprograms {
		sp := doc.Subprograms.AddSubprogram()
		sp.SetName(in.Name)
		if in.Priority != "" {
			prio, err := document.ParsePriority(in.Priority)
			if err != nil {
				return nil, fmt.Errorf("subprograms[%d]: %w", i, err)
			}
			sp.SetPriority(prio)
		}
		for j, sin := range in.Steps {
			st := sp.AddStep()
			st.SetDescription(sin.Description)
			if sin.Operator != "" {
				op, err := document.ParseOperator(sin.Operator)
				if err != nil {
					return nil, fmt.Errorf("subprograms[%d].steps[%d]: %w", i, j, err)
				}
				st.SetOperator(op)
			}
			if err := addConditions(doc, st, sin.State, sin.Control); err != nil {
				return nil, fmt.Errorf("subprograms[%d].steps[%d]: %w", i, j, err)
			}
		}
	}

	for i, in := range p.Rules {
		r := doc.Rules.AddRule()
		r.SetDescription(in.Description)
		r.SetBlocked(in.Blocked)
		r.SetCritical(in.Critical)
		r.SetTargetAddress(in.TargetAddress)
		if err := addConditions(doc, r, in.State, in.Control); err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
	}
	return doc, nil
}

func (in IOElement) toElement() (document.IOElement, error) {
	e := document.NewIOElement()
	e.Name = in.Name
	if in.Frame != "" {
		f, err := document.ParseFrame(in.Frame)
		if err != nil {
			return e, err
		}
		e.Frame = f
	}
	if in.Signal != "" {
		s, err := document.ParseSignal(in.Signal)
		if err != nil {
			return e, err
		}
		e.Signal = s
	}
	if in.HWAddress < 0 || in.HWAddress > 255 {
		return e, fmt.Errorf("hw_address %d outside 0..255", in.HWAddress)
	}
	e.HWAddress = uint8(in.HWAddress)
	return e, nil
}

type conditionAdder interface {
	NewCondition(frame document.FrameType) *document.ConditionBinding
}

func addConditions(doc *document.Document, dst conditionAdder, state, control []Condition) error {
	for _, group := range []struct {
		frame document.FrameType
		conds []Condition
	}{
		{document.FrameState, state},
		{document.FrameControl, control},
	} {
		for k, c := range group.conds {
			b := dst.NewCondition(group.frame)
			if c.Require != "" {
				st, err := document.ParseElementState(c.Require)
				if err != nil {
					return fmt.Errorf("%s condition %d: %w", group.frame, k, err)
				}
				b.SetRequiredState(st)
			}
			if c.Target != "" {
				b.SelectTarget(doc.IO, c.Target)
			}
		}
	}
	return nil
}
