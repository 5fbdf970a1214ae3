package document

import "fmt"

// ConditionBinding requires an IO element, referenced by name, to be in a
// given state. The frame is fixed at creation. A binding whose element was
// deleted or renamed simply stops resolving.
type ConditionBinding struct {
	target string
	state  ElementState
	frame  FrameType
}

// NewConditionBinding returns an unresolved binding requiring StateAny.
func NewConditionBinding(frame FrameType) *ConditionBinding {
	return &ConditionBinding{
		state: StateAny,
		frame: frame,
	}
}

func (b *ConditionBinding) Frame() FrameType {
	return b.frame
}

func (b *ConditionBinding) RequiredState() ElementState {
	return b.state
}

func (b *ConditionBinding) SetRequiredState(state ElementState) {
	b.state = state
}

// SelectTarget points the binding at the element called name within the
// binding's frame. On a miss the previous target is dropped and false is
// returned. An empty name never resolves.
func (b *ConditionBinding) SelectTarget(io *IORegistry, name string) bool {
	if name == "" {
		b.target = ""
		return false
	}
	if _, ok := io.ByNameInFrame(name, b.frame); ok {
		b.target = name
		return true
	}
	b.target = ""
	return false
}

// ClearTarget leaves the binding unresolved.
func (b *ConditionBinding) ClearTarget() {
	b.target = ""
}

// Target returns the referenced element name, or false when unresolved.
func (b *ConditionBinding) Target() (string, bool) {
	return b.target, b.target != ""
}

// Resolve looks the target up in io. It fails when the binding is
// unresolved or the element no longer exists in the binding's frame.
func (b *ConditionBinding) Resolve(io *IORegistry) (*IOElement, bool) {
	if b.target == "" {
		return nil, false
	}
	return io.ByNameInFrame(b.target, b.frame)
}

// Data returns the binding's full state.
func (b *ConditionBinding) Data() (target string, state ElementState, frame FrameType) {
	return b.target, b.state, b.frame
}

func (b *ConditionBinding) clone() *ConditionBinding {
	c := *b
	return &c
}

// conditionSet holds the state and control bindings shared by steps and
// condition rules.
type conditionSet struct {
	state   []*ConditionBinding
	control []*ConditionBinding
}

func (cs *conditionSet) bucket(frame FrameType) *[]*ConditionBinding {
	if frame == FrameControl {
		return &cs.control
	}
	return &cs.state
}

// AddCondition appends b to the bucket of its frame.
func (cs *conditionSet) AddCondition(b *ConditionBinding) {
	bucket := cs.bucket(b.Frame())
	*bucket = append(*bucket, b)
}

// NewCondition creates an unresolved binding in frame, appends it and
// returns it.
func (cs *conditionSet) NewCondition(frame FrameType) *ConditionBinding {
	b := NewConditionBinding(frame)
	cs.AddCondition(b)
	return b
}

// Conditions returns the bindings of one frame in insertion order.
func (cs *conditionSet) Conditions(frame FrameType) []*ConditionBinding {
	bucket := *cs.bucket(frame)
	out := make([]*ConditionBinding, len(bucket))
	copy(out, bucket)
	return out
}

func (cs *conditionSet) Condition(frame FrameType, i int) (*ConditionBinding, error) {
	bucket := *cs.bucket(frame)
	if i < 0 || i >= len(bucket) {
		return nil, fmt.Errorf("%s condition %d: %w", frame, i, ErrIndexOutOfRange)
	}
	return bucket[i], nil
}

func (cs *conditionSet) LastCondition(frame FrameType) (*ConditionBinding, error) {
	bucket := *cs.bucket(frame)
	if len(bucket) == 0 {
		return nil, fmt.Errorf("%s conditions: %w", frame, ErrEmptyBucket)
	}
	return bucket[len(bucket)-1], nil
}

func (cs *conditionSet) RemoveConditionAt(frame FrameType, i int) error {
	bucket := cs.bucket(frame)
	if i < 0 || i >= len(*bucket) {
		return fmt.Errorf("%s condition %d: %w", frame, i, ErrIndexOutOfRange)
	}
	*bucket = append((*bucket)[:i], (*bucket)[i+1:]...)
	return nil
}

func (cs *conditionSet) cloneConditions() conditionSet {
	out := conditionSet{
		state:   make([]*ConditionBinding, len(cs.state)),
		control: make([]*ConditionBinding, len(cs.control)),
	}
	for i, b := range cs.state {
		out.state[i] = b.clone()
	}
	for i, b := range cs.control {
		out.control[i] = b.clone()
	}
	return out
}
