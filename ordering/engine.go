// Package ordering maintains the user-customizable display order of field
// definitions, independent of schema-creation order, per display group and
// per consumer context. Rule sets are persisted as one document per
// (user, context) with the synced/unsynced groups under named keys so sibling
// groups merge non-destructively.
package ordering

import (
	"sort"

	"github.com/goliatone/go-fields/pkg/types"
)

// OrderedField pairs a definition with its resolved display rank and the
// per-group visibility toggle.
type OrderedField struct {
	types.FieldDefinition
	Order   int
	Enabled bool
}

// ApplyOrder resolves the display order for the definitions. With a non-empty
// rule set, ruled fields sort ascending by rule rank and fields without a
// matching rule append after them in schema order (stable; ties broken by the
// original schema position). Rule entries referencing ids absent from defs
// are ignored. With an empty rule set, schema order applies and ranks are
// assigned by index.
func ApplyOrder(defs []types.FieldDefinition, rules []types.OrderRule) []OrderedField {
	if len(rules) == 0 {
		return defaultOrder(defs)
	}

	byField := make(map[string]types.OrderRule, len(rules))
	for _, rule := range rules {
		byField[rule.FieldID.String()] = rule
	}

	type slot struct {
		field    OrderedField
		ruled    bool
		rank     int
		position int
	}
	slots := make([]slot, 0, len(defs))
	for i, def := range defs {
		entry := slot{
			field:    OrderedField{FieldDefinition: def, Enabled: true},
			position: i,
		}
		if rule, ok := byField[def.ID.String()]; ok {
			entry.ruled = true
			entry.rank = rule.Order
			entry.field.Order = rule.Order
			entry.field.Enabled = rule.Enabled
		}
		slots = append(slots, entry)
	}
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		switch {
		case a.ruled && b.ruled:
			if a.rank != b.rank {
				return a.rank < b.rank
			}
			return a.position < b.position
		case a.ruled:
			return true
		case b.ruled:
			return false
		default:
			return a.position < b.position
		}
	})

	out := make([]OrderedField, 0, len(slots))
	for i, entry := range slots {
		entry.field.Order = i
		out = append(out, entry.field)
	}
	return out
}

// Reorder moves the entry at fromIndex to toIndex, reassigning ranks to match
// the new positions. Out-of-range indexes return the input unchanged. The
// result is a new slice; callers persist it via RulesFrom.
func Reorder(fields []OrderedField, fromIndex, toIndex int) []OrderedField {
	if fromIndex < 0 || fromIndex >= len(fields) || toIndex < 0 || toIndex >= len(fields) {
		return fields
	}
	out := make([]OrderedField, 0, len(fields))
	out = append(out, fields...)
	moved := out[fromIndex]
	out = append(out[:fromIndex], out[fromIndex+1:]...)
	out = append(out[:toIndex], append([]OrderedField{moved}, out[toIndex:]...)...)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// RulesFrom converts resolved fields back into a persistable rule set.
func RulesFrom(fields []OrderedField) []types.OrderRule {
	if len(fields) == 0 {
		return nil
	}
	rules := make([]types.OrderRule, 0, len(fields))
	for i, field := range fields {
		rules = append(rules, types.OrderRule{
			FieldID: field.ID,
			Order:   i,
			Enabled: field.Enabled,
		})
	}
	return rules
}

// DefaultRules produces the schema-order rule set for the definitions.
func DefaultRules(defs []types.FieldDefinition) []types.OrderRule {
	if len(defs) == 0 {
		return nil
	}
	rules := make([]types.OrderRule, 0, len(defs))
	for i, def := range defs {
		rules = append(rules, types.OrderRule{FieldID: def.ID, Order: i, Enabled: true})
	}
	return rules
}

// MatchesDefault reports whether the rule set is structurally equal to the
// schema-order default once both are normalized to (id, order) pairs sorted by
// id. An empty rule set counts as default. Drives the "custom order" badge on
// every render, so it must stay a pure function.
func MatchesDefault(defs []types.FieldDefinition, rules []types.OrderRule) bool {
	if len(rules) == 0 {
		return true
	}
	if len(rules) != len(defs) {
		return false
	}
	normalized := normalizeRules(rules)
	expected := normalizeRules(DefaultRules(defs))
	for i := range expected {
		if normalized[i] != expected[i] {
			return false
		}
	}
	return true
}

// ResetToDefault re-applies schema order, equivalent to ApplyOrder with no
// rules. Callers persist the reset through the settings store afterwards.
func ResetToDefault(defs []types.FieldDefinition) []OrderedField {
	return ApplyOrder(defs, nil)
}

type idOrder struct {
	id    string
	order int
}

func normalizeRules(rules []types.OrderRule) []idOrder {
	out := make([]idOrder, 0, len(rules))
	for _, rule := range rules {
		out = append(out, idOrder{id: rule.FieldID.String(), order: rule.Order})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func defaultOrder(defs []types.FieldDefinition) []OrderedField {
	out := make([]OrderedField, 0, len(defs))
	for i, def := range defs {
		out = append(out, OrderedField{FieldDefinition: def, Order: i, Enabled: true})
	}
	return out
}
