package document

import "fmt"

// Subprogram is a named, ordered chain of steps. Its address is assigned by
// the owning SubprogramRegistry.
type Subprogram struct {
	address  int
	name     string
	priority PriorityType
	steps    []*Step

	// changed is set by the owning registry and fires after every change
	// to the number of steps.
	changed func()
}

func NewSubprogram() *Subprogram {
	return &Subprogram{priority: PriorityDefault}
}

// Address is the absolute address of the first step. It is 0 for a
// subprogram that is not owned by a registry.
func (sp *Subprogram) Address() int {
	return sp.address
}

func (sp *Subprogram) Name() string {
	return sp.name
}

func (sp *Subprogram) SetName(name string) {
	sp.name = name
}

func (sp *Subprogram) Priority() PriorityType {
	return sp.priority
}

func (sp *Subprogram) SetPriority(p PriorityType) {
	sp.priority = p
}

func (sp *Subprogram) StepCount() int {
	return len(sp.steps)
}

// AddStep appends an empty step numbered StepCount().
func (sp *Subprogram) AddStep() *Step {
	st := newStep(len(sp.steps) + 1)
	sp.steps = append(sp.steps, st)
	sp.notify()
	return st
}

// RemoveStepAt removes the step at i and renumbers the remaining steps
// 1..StepCount().
func (sp *Subprogram) RemoveStepAt(i int) error {
	if i < 0 || i >= len(sp.steps) {
		return fmt.Errorf("step %d: %w", i, ErrIndexOutOfRange)
	}
	sp.steps = append(sp.steps[:i], sp.steps[i+1:]...)
	for n, st := range sp.steps {
		st.setSequenceID(n + 1)
	}
	sp.notify()
	return nil
}

func (sp *Subprogram) StepAt(i int) (*Step, error) {
	if i < 0 || i >= len(sp.steps) {
		return nil, fmt.Errorf("step %d: %w", i, ErrIndexOutOfRange)
	}
	return sp.steps[i], nil
}

// Steps returns the steps in sequence order.
func (sp *Subprogram) Steps() []*Step {
	out := make([]*Step, len(sp.steps))
	copy(out, sp.steps)
	return out
}

func (sp *Subprogram) notify() {
	if sp.changed != nil {
		sp.changed()
	}
}

func (sp *Subprogram) clone() *Subprogram {
	out := &Subprogram{
		address:  sp.address,
		name:     sp.name,
		priority: sp.priority,
		steps:    make([]*Step, len(sp.steps)),
	}
	for i, st := range sp.steps {
		out.steps[i] = st.clone()
	}
	return out
}

// SubprogramRegistry owns the ordered subprograms and keeps their
// addresses contiguous: the first subprogram starts at 1 and every
// following one starts where the previous one's steps end.
type SubprogramRegistry struct {
	subprograms []*Subprogram
	lastAddress int
}

func NewSubprogramRegistry() *SubprogramRegistry {
	return &SubprogramRegistry{lastAddress: 1}
}

// AddSubprogram appends an empty subprogram and returns it.
func (r *SubprogramRegistry) AddSubprogram() *Subprogram {
	return r.Adopt(NewSubprogram())
}

// Adopt appends sp, taking ownership of its address.
func (r *SubprogramRegistry) Adopt(sp *Subprogram) *Subprogram {
	sp.changed = r.RecomputeAddresses
	r.subprograms = append(r.subprograms, sp)
	r.RecomputeAddresses()
	return sp
}

func (r *SubprogramRegistry) RemoveAt(i int) error {
	if i < 0 || i >= len(r.subprograms) {
		return fmt.Errorf("subprogram %d: %w", i, ErrIndexOutOfRange)
	}
	removed := r.subprograms[i]
	r.subprograms = append(r.subprograms[:i], r.subprograms[i+1:]...)
	removed.changed = nil
	removed.address = 0
	r.RecomputeAddresses()
	return nil
}

// RecomputeAddresses reassigns every address and the last address.
func (r *SubprogramRegistry) RecomputeAddresses() {
	next := 1
	for _, sp := range r.subprograms {
		sp.address = next
		next += sp.StepCount()
	}
	r.lastAddress = next
}

// LastAddress is one past the address of the final step, 1 when there
// are no steps at all.
func (r *SubprogramRegistry) LastAddress() int {
	if r.lastAddress == 0 {
		return 1
	}
	return r.lastAddress
}

func (r *SubprogramRegistry) SubprogramAt(i int) (*Subprogram, error) {
	if i < 0 || i >= len(r.subprograms) {
		return nil, fmt.Errorf("subprogram %d: %w", i, ErrIndexOutOfRange)
	}
	return r.subprograms[i], nil
}

// Step resolves a step by subprogram and step index.
func (r *SubprogramRegistry) Step(sp, step int) (*Step, error) {
	s, err := r.SubprogramAt(sp)
	if err != nil {
		return nil, err
	}
	return s.StepAt(step)
}

func (r *SubprogramRegistry) Len() int {
	return len(r.subprograms)
}

func (r *SubprogramRegistry) All() []*Subprogram {
	out := make([]*Subprogram, len(r.subprograms))
	copy(out, r.subprograms)
	return out
}

// ValidAddresses lists the addresses a condition rule may target.
func (r *SubprogramRegistry) ValidAddresses() []int {
	last := r.LastAddress()
	out := make([]int, 0, last-1)
	for a := 1; a < last; a++ {
		out = append(out, a)
	}
	return out
}

// Locate maps an absolute step address back to its subprogram and step
// indices.
func (r *SubprogramRegistry) Locate(address int) (sp, step int, ok bool) {
	for i, s := range r.subprograms {
		if address >= s.address && address < s.address+s.StepCount() {
			return i, address - s.address, true
		}
	}
	return -1, -1, false
}

func (r *SubprogramRegistry) clone() *SubprogramRegistry {
	out := &SubprogramRegistry{
		subprograms: make([]*Subprogram, 0, len(r.subprograms)),
	}
	for _, sp := range r.subprograms {
		c := sp.clone()
		c.changed = out.RecomputeAddresses
		out.subprograms = append(out.subprograms, c)
	}
	out.RecomputeAddresses()
	return out
}
