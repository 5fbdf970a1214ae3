package document

import "fmt"

// IOElement is a named binary signal of the controlled machine.
type IOElement struct {
	Name      string     `json:"name"`
	Frame     FrameType  `json:"frame"`
	Signal    SignalType `json:"signal"`
	HWAddress uint8      `json:"hw_address"`
}

// NewIOElement returns an unnamed sensor input on hardware address 0.
func NewIOElement() IOElement {
	return IOElement{
		Frame:  FrameState,
		Signal: SignalInput,
	}
}

// IORegistry is the ordered list of IO elements of a document. Names are
// not required to be unique.
type IORegistry struct {
	elements []*IOElement
}

func NewIORegistry() *IORegistry {
	return &IORegistry{}
}

// Add appends a copy of e and returns its index.
func (r *IORegistry) Add(e IOElement) int {
	el := e
	r.elements = append(r.elements, &el)
	return len(r.elements) - 1
}

func (r *IORegistry) RemoveAt(i int) error {
	if i < 0 || i >= len(r.elements) {
		return fmt.Errorf("io element %d: %w", i, ErrIndexOutOfRange)
	}
	r.elements = append(r.elements[:i], r.elements[i+1:]...)
	return nil
}

// At returns the element at index i. Changes made through the returned
// pointer are visible to every other holder.
func (r *IORegistry) At(i int) (*IOElement, error) {
	if i < 0 || i >= len(r.elements) {
		return nil, fmt.Errorf("io element %d: %w", i, ErrIndexOutOfRange)
	}
	return r.elements[i], nil
}

func (r *IORegistry) Len() int {
	return len(r.elements)
}

// All returns the elements in insertion order.
func (r *IORegistry) All() []*IOElement {
	out := make([]*IOElement, len(r.elements))
	copy(out, r.elements)
	return out
}

// ByFrame returns the elements of one frame in insertion order.
func (r *IORegistry) ByFrame(frame FrameType) []*IOElement {
	var out []*IOElement
	for _, e := range r.elements {
		if e.Frame == frame {
			out = append(out, e)
		}
	}
	return out
}

func (r *IORegistry) BySignal(signal SignalType) []*IOElement {
	var out []*IOElement
	for _, e := range r.elements {
		if e.Signal == signal {
			out = append(out, e)
		}
	}
	return out
}

// ByName returns the last element carrying name.
func (r *IORegistry) ByName(name string) (*IOElement, bool) {
	var found *IOElement
	for _, e := range r.elements {
		if e.Name == name {
			found = e
		}
	}
	return found, found != nil
}

// ByNameInFrame is ByName restricted to one frame.
func (r *IORegistry) ByNameInFrame(name string, frame FrameType) (*IOElement, bool) {
	var found *IOElement
	for _, e := range r.elements {
		if e.Frame == frame && e.Name == name {
			found = e
		}
	}
	return found, found != nil
}

func (r *IORegistry) clone() *IORegistry {
	out := &IORegistry{elements: make([]*IOElement, len(r.elements))}
	for i, e := range r.elements {
		el := *e
		out.elements[i] = &el
	}
	return out
}
