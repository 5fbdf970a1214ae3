package document

// Step is one link of a subprogram's chain. Its sequence id is owned by the
// parent subprogram.
type Step struct {
	conditionSet

	sequenceID  int
	description string
	operator    Operator
}

func newStep(sequenceID int) *Step {
	return &Step{
		sequenceID: sequenceID,
		operator:   OperatorAND,
	}
}

// SequenceID is the 1-based position of the step within its subprogram.
func (s *Step) SequenceID() int {
	return s.sequenceID
}

func (s *Step) setSequenceID(id int) {
	s.sequenceID = id
}

func (s *Step) Description() string {
	return s.description
}

func (s *Step) SetDescription(description string) {
	s.description = description
}

func (s *Step) Operator() Operator {
	return s.operator
}

func (s *Step) SetOperator(op Operator) {
	s.operator = op
}

func (s *Step) clone() *Step {
	return &Step{
		conditionSet: s.cloneConditions(),
		sequenceID:   s.sequenceID,
		description:  s.description,
		operator:     s.operator,
	}
}
