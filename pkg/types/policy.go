package types

import (
	"fmt"
)

// ErrTypeChangeNotAllowed reports that the requested field type is not
// reachable from the current type according to configured policies.
var ErrTypeChangeNotAllowed = fmt.Errorf("go-fields: field type change not allowed")

// TypeChangePolicy validates field type changes on schema updates.
type TypeChangePolicy interface {
	Validate(current, target FieldType) error
	AllowedTargets(current FieldType) []FieldType
}

// StaticTypeChangePolicy enforces a fixed change graph.
type StaticTypeChangePolicy struct {
	graph map[FieldType]map[FieldType]struct{}
}

// NewStaticTypeChangePolicy creates a policy from a change graph.
func NewStaticTypeChangePolicy(graph map[FieldType][]FieldType) *StaticTypeChangePolicy {
	internal := make(map[FieldType]map[FieldType]struct{}, len(graph))
	for from, targets := range graph {
		targetSet := make(map[FieldType]struct{}, len(targets))
		for _, to := range targets {
			if to == "" {
				continue
			}
			targetSet[to] = struct{}{}
		}
		internal[from] = targetSet
	}
	return &StaticTypeChangePolicy{graph: internal}
}

// DefaultTypeChangePolicy returns the conservative default: the two
// option-backed types convert into each other (the option list survives) and
// a number field may widen into text. Every other change would orphan or
// corrupt stored raw values and is rejected.
func DefaultTypeChangePolicy() *StaticTypeChangePolicy {
	return NewStaticTypeChangePolicy(map[FieldType][]FieldType{
		FieldTypeMultiChoice:      {FieldTypeMultiChoiceRadio},
		FieldTypeMultiChoiceRadio: {FieldTypeMultiChoice},
		FieldTypeNumber:           {FieldTypeText},
	})
}

// Validate ensures the target type is allowed from the current type. A
// same-type "change" is always allowed.
func (p *StaticTypeChangePolicy) Validate(current, target FieldType) error {
	if current == "" || target == "" {
		return ErrTypeChangeNotAllowed
	}
	if current == target {
		return nil
	}
	targets, ok := p.graph[current]
	if !ok {
		return ErrTypeChangeNotAllowed
	}
	if _, ok := targets[target]; !ok {
		return ErrTypeChangeNotAllowed
	}
	return nil
}

// AllowedTargets returns the slice of valid targets from the provided type.
func (p *StaticTypeChangePolicy) AllowedTargets(current FieldType) []FieldType {
	targets := p.graph[current]
	if len(targets) == 0 {
		return nil
	}
	out := make([]FieldType, 0, len(targets))
	for target := range targets {
		out = append(out, target)
	}
	return out
}
