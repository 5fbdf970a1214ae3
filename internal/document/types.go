package document

import "fmt"

// FrameType partitions IO elements and condition bindings into two groups:
// sensor states and control states.
type FrameType string

const (
	FrameState   FrameType = "state"
	FrameControl FrameType = "control"
)

// Frames lists the frames in export column order.
var Frames = []FrameType{FrameState, FrameControl}

func (f FrameType) Valid() bool {
	return f == FrameState || f == FrameControl
}

func ParseFrame(s string) (FrameType, error) {
	f := FrameType(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown frame %q", s)
	}
	return f, nil
}

type SignalType string

const (
	SignalInput  SignalType = "input"
	SignalOutput SignalType = "output"
)

func (s SignalType) Valid() bool {
	return s == SignalInput || s == SignalOutput
}

func ParseSignal(s string) (SignalType, error) {
	st := SignalType(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown signal type %q", s)
	}
	return st, nil
}

// ElementState is the value a condition binding requires of its IO element.
type ElementState string

const (
	StateActive   ElementState = "active"
	StateInactive ElementState = "inactive"
	StateAny      ElementState = "any"
)

func (s ElementState) Valid() bool {
	switch s {
	case StateActive, StateInactive, StateAny:
		return true
	}
	return false
}

func ParseElementState(s string) (ElementState, error) {
	st := ElementState(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown element state %q", s)
	}
	return st, nil
}

// Operator merges the conditions of a step.
type Operator string

const (
	OperatorAND Operator = "and"
	OperatorOR  Operator = "or"
)

func (o Operator) Valid() bool {
	return o == OperatorAND || o == OperatorOR
}

func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operator %q", s)
	}
	return op, nil
}

type PriorityType string

const (
	PriorityDefault  PriorityType = "default"
	PriorityCritical PriorityType = "critical"
	PriorityBlocked  PriorityType = "blocked"
)

func (p PriorityType) Valid() bool {
	switch p {
	case PriorityDefault, PriorityCritical, PriorityBlocked:
		return true
	}
	return false
}

func ParsePriority(s string) (PriorityType, error) {
	p := PriorityType(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}
