// Package access resolves per-field and per-option permissions from a flat
// permission map supplied by the host session. The map is sparse by design:
// most fields carry no entry, and absent keys resolve through the gate's
// default policy (fail-open unless configured otherwise). Treating "absent"
// as denied would force every new field onto an allow-list everywhere, which
// source systems do not do.
package access

import (
	"strings"

	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
)

// DefaultPermission selects how the gate resolves keys missing from the map.
type DefaultPermission string

const (
	// DefaultAllow grants access when no explicit entry exists (fail-open).
	DefaultAllow DefaultPermission = "allow"
	// DefaultDeny blocks access when no explicit entry exists.
	DefaultDeny DefaultPermission = "deny"
)

const (
	prefixView = "view"
	prefixEdit = "edit"
)

// Gate answers view/edit questions for fields and, for choice fields, for
// individual options. It is cheap to construct per request.
type Gate struct {
	permissions types.PermissionMap
	fallback    DefaultPermission
}

// GateConfig wires the permission source and default policy.
type GateConfig struct {
	Permissions types.PermissionMap
	// Default resolves keys absent from the map. Empty means DefaultAllow.
	Default DefaultPermission
}

// NewGate constructs a gate over the supplied permission map.
func NewGate(cfg GateConfig) Gate {
	fallback := cfg.Default
	if fallback == "" {
		fallback = DefaultAllow
	}
	return Gate{
		permissions: cfg.Permissions,
		fallback:    fallback,
	}
}

// CanView reports whether the field is visible. Key shape: "view:<fieldID>".
func (g Gate) CanView(fieldID uuid.UUID) bool {
	return g.resolve(fieldKey(prefixView, fieldID))
}

// CanEdit reports whether the field is editable. Key shape: "edit:<fieldID>".
func (g Gate) CanEdit(fieldID uuid.UUID) bool {
	return g.resolve(fieldKey(prefixEdit, fieldID))
}

// CanViewOption reports whether a single option of a choice field is
// selectable. Key shape: "view:<fieldID>:<label>" with spaces replaced by
// underscores. A hidden option suppresses the dropdown entry without hiding
// the whole field.
func (g Gate) CanViewOption(fieldID uuid.UUID, optionLabel string) bool {
	return g.resolve(optionKey(fieldID, optionLabel))
}

// VisibleFields filters definitions down to those the gate allows viewing,
// preserving order.
func (g Gate) VisibleFields(defs []types.FieldDefinition) []types.FieldDefinition {
	out := make([]types.FieldDefinition, 0, len(defs))
	for _, def := range defs {
		if g.CanView(def.ID) {
			out = append(out, def)
		}
	}
	return out
}

// VisibleOptions filters a definition's options down to those the gate allows,
// preserving order.
func (g Gate) VisibleOptions(def types.FieldDefinition) []types.Option {
	if len(def.Options) == 0 {
		return nil
	}
	out := make([]types.Option, 0, len(def.Options))
	for _, opt := range def.Options {
		if g.CanViewOption(def.ID, opt.Label) {
			out = append(out, opt)
		}
	}
	return out
}

func (g Gate) resolve(key string) bool {
	if allowed, ok := g.permissions[key]; ok {
		return allowed
	}
	return g.fallback == DefaultAllow
}

func fieldKey(prefix string, fieldID uuid.UUID) string {
	return prefix + ":" + fieldID.String()
}

func optionKey(fieldID uuid.UUID, label string) string {
	return fieldKey(prefixView, fieldID) + ":" + strings.ReplaceAll(label, " ", "_")
}
