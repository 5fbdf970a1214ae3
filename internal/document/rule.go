package document

import (
	"fmt"
	"sort"
)

// ConditionRule is a cross-cutting guard tied to a step address.
type ConditionRule struct {
	conditionSet

	description   string
	blocked       bool
	critical      bool
	targetAddress int
}

func NewConditionRule() *ConditionRule {
	return &ConditionRule{targetAddress: 1}
}

func (r *ConditionRule) Description() string {
	return r.description
}

func (r *ConditionRule) SetDescription(description string) {
	r.description = description
}

func (r *ConditionRule) Blocked() bool {
	return r.blocked
}

func (r *ConditionRule) SetBlocked(blocked bool) {
	r.blocked = blocked
}

func (r *ConditionRule) Critical() bool {
	return r.critical
}

func (r *ConditionRule) SetCritical(critical bool) {
	r.critical = critical
}

// TargetAddress is a plain step address. It is not kept in sync with
// later subprogram edits.
func (r *ConditionRule) TargetAddress() int {
	return r.targetAddress
}

func (r *ConditionRule) SetTargetAddress(address int) {
	r.targetAddress = address
}

func (r *ConditionRule) clone() *ConditionRule {
	return &ConditionRule{
		conditionSet:  r.cloneConditions(),
		description:   r.description,
		blocked:       r.blocked,
		critical:      r.critical,
		targetAddress: r.targetAddress,
	}
}

type ConditionRuleRegistry struct {
	rules []*ConditionRule
}

func NewConditionRuleRegistry() *ConditionRuleRegistry {
	return &ConditionRuleRegistry{}
}

// AddRule appends an empty rule targeting address 1.
func (r *ConditionRuleRegistry) AddRule() *ConditionRule {
	return r.Adopt(NewConditionRule())
}

func (r *ConditionRuleRegistry) Adopt(rule *ConditionRule) *ConditionRule {
	r.rules = append(r.rules, rule)
	return rule
}

func (r *ConditionRuleRegistry) RemoveAt(i int) error {
	if i < 0 || i >= len(r.rules) {
		return fmt.Errorf("rule %d: %w", i, ErrIndexOutOfRange)
	}
	r.rules = append(r.rules[:i], r.rules[i+1:]...)
	return nil
}

func (r *ConditionRuleRegistry) RuleAt(i int) (*ConditionRule, error) {
	if i < 0 || i >= len(r.rules) {
		return nil, fmt.Errorf("rule %d: %w", i, ErrIndexOutOfRange)
	}
	return r.rules[i], nil
}

// SortByAddress orders the rules by ascending target address. Rules with
// equal addresses keep their relative order.
func (r *ConditionRuleRegistry) SortByAddress() {
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].targetAddress < r.rules[j].targetAddress
	})
}

func (r *ConditionRuleRegistry) Len() int {
	return len(r.rules)
}

func (r *ConditionRuleRegistry) All() []*ConditionRule {
	out := make([]*ConditionRule, len(r.rules))
	copy(out, r.rules)
	return out
}

func (r *ConditionRuleRegistry) clone() *ConditionRuleRegistry {
	out := &ConditionRuleRegistry{rules: make([]*ConditionRule, len(r.rules))}
	for i, rule := range r.rules {
		out.rules[i] = rule.clone()
	}
	return out
}
