// Package document holds the in-memory model of a sequence program: its IO
// elements, subprograms with their steps, and the condition rules guarding
// step transitions.
package document

import "fmt"

// Document owns the three registries of a program. It is not safe for
// concurrent use; see editor.Workspace.
type Document struct {
	IO          *IORegistry
	Subprograms *SubprogramRegistry
	Rules       *ConditionRuleRegistry
}

func New() *Document {
	return &Document{
		IO:          NewIORegistry(),
		Subprograms: NewSubprogramRegistry(),
		Rules:       NewConditionRuleRegistry(),
	}
}

// SetRuleTarget points rule i at address, which must lie in
// 1..Subprograms.LastAddress()-1.
func (d *Document) SetRuleTarget(i, address int) error {
	rule, err := d.Rules.RuleAt(i)
	if err != nil {
		return err
	}
	if !d.AddressInRange(address) {
		return fmt.Errorf("rule %d target %d (valid 1..%d): %w",
			i, address, d.Subprograms.LastAddress()-1, ErrAddressOutOfRange)
	}
	rule.SetTargetAddress(address)
	return nil
}

func (d *Document) AddressInRange(address int) bool {
	return address >= 1 && address < d.Subprograms.LastAddress()
}

// Clone returns a deep copy sharing no mutable state with d.
func (d *Document) Clone() *Document {
	return &Document{
		IO:          d.IO.clone(),
		Subprograms: d.Subprograms.clone(),
		Rules:       d.Rules.clone(),
	}
}
