package rest

import "github.com/KevinKickass/OpenSequenceCore/internal/document"

type ioView struct {
	Index int `json:"index"`
	document.IOElement
}

type conditionView struct {
	Target   string                `json:"target"`
	Require  document.ElementState `json:"require"`
	Resolved bool                  `json:"resolved"`
}

type stepView struct {
	SequenceID  int               `json:"sequence_id"`
	Address     int               `json:"address"`
	Description string            `json:"description"`
	Operator    document.Operator `json:"operator"`
	State       []conditionView   `json:"state_conditions"`
	Control     []conditionView   `json:"control_conditions"`
}

type subprogramView struct {
	Index    int                   `json:"index"`
	Address  int                   `json:"address"`
	Name     string                `json:"name"`
	Priority document.PriorityType `json:"priority"`
	Steps    []stepView            `json:"steps"`
}

type ruleView struct {
	Index         int             `json:"index"`
	Description   string          `json:"description"`
	Blocked       bool            `json:"blocked"`
	Critical      bool            `json:"critical"`
	TargetAddress int             `json:"target_address"`
	State         []conditionView `json:"state_conditions"`
	Control       []conditionView `json:"control_conditions"`
}

func viewConditions(io *document.IORegistry, bindings []*document.ConditionBinding) []conditionView {
	out := make([]conditionView, 0, len(bindings))
	for _, b := range bindings {
		target, _ := b.Target()
		_, resolved := b.Resolve(io)
		out = append(out, conditionView{
			Target:   target,
			Require:  b.RequiredState(),
			Resolved: resolved,
		})
	}
	return out
}

func viewCondition(io *document.IORegistry, b *document.ConditionBinding) conditionView {
	return viewConditions(io, []*document.ConditionBinding{b})[0]
}

func viewSubprogram(doc *document.Document, i int, sp *document.Subprogram) subprogramView {
	v := subprogramView{
		Index:    i,
		Address:  sp.Address(),
		Name:     sp.Name(),
		Priority: sp.Priority(),
		Steps:    make([]stepView, 0, sp.StepCount()),
	}
	for j, st := range sp.Steps() {
		v.Steps = append(v.Steps, viewStep(doc, sp.Address()+j, st))
	}
	return v
}

func viewStep(doc *document.Document, address int, st *document.Step) stepView {
	return stepView{
		SequenceID:  st.SequenceID(),
		Address:     address,
		Description: st.Description(),
		Operator:    st.Operator(),
		State:       viewConditions(doc.IO, st.Conditions(document.FrameState)),
		Control:     viewConditions(doc.IO, st.Conditions(document.FrameControl)),
	}
}

func viewRule(doc *document.Document, i int, r *document.ConditionRule) ruleView {
	return ruleView{
		Index:         i,
		Description:   r.Description(),
		Blocked:       r.Blocked(),
		Critical:      r.Critical(),
		TargetAddress: r.TargetAddress(),
		State:         viewConditions(doc.IO, r.Conditions(document.FrameState)),
		Control:       viewConditions(doc.IO, r.Conditions(document.FrameControl)),
	}
}
