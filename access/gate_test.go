package access

import (
	"testing"

	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGateFailOpen(t *testing.T) {
	fieldID := uuid.New()
	gate := NewGate(GateConfig{})

	// No entry at all: viewable and editable.
	require.True(t, gate.CanView(fieldID))
	require.True(t, gate.CanEdit(fieldID))
	require.True(t, gate.CanViewOption(fieldID, "Gold"))
}

func TestGateExplicitDeny(t *testing.T) {
	fieldID := uuid.New()
	gate := NewGate(GateConfig{
		Permissions: types.PermissionMap{
			"view:" + fieldID.String(): false,
		},
	})

	require.False(t, gate.CanView(fieldID))
	// Edit key is independent and still fail-open.
	require.True(t, gate.CanEdit(fieldID))
}

func TestGateExplicitAllowUnderDenyDefault(t *testing.T) {
	fieldID := uuid.New()
	gate := NewGate(GateConfig{
		Permissions: types.PermissionMap{
			"edit:" + fieldID.String(): true,
		},
		Default: DefaultDeny,
	})

	require.True(t, gate.CanEdit(fieldID))
	require.False(t, gate.CanView(fieldID))
	require.False(t, gate.CanView(uuid.New()))
}

func TestGateOptionKeysReplaceSpaces(t *testing.T) {
	fieldID := uuid.New()
	gate := NewGate(GateConfig{
		Permissions: types.PermissionMap{
			"view:" + fieldID.String() + ":Very_Important": false,
		},
	})

	require.False(t, gate.CanViewOption(fieldID, "Very Important"))
	require.True(t, gate.CanViewOption(fieldID, "Regular"))
	// The field itself stays visible even when an option is suppressed.
	require.True(t, gate.CanView(fieldID))
}

func TestVisibleFieldsAndOptions(t *testing.T) {
	hidden := uuid.New()
	shown := uuid.New()
	defs := []types.FieldDefinition{
		{ID: shown, FieldType: types.FieldTypeMultiChoice, Options: []types.Option{
			{Label: "Public"},
			{Label: "Staff Only"},
		}},
		{ID: hidden, FieldType: types.FieldTypeText},
	}
	gate := NewGate(GateConfig{
		Permissions: types.PermissionMap{
			"view:" + hidden.String():                false,
			"view:" + shown.String() + ":Staff_Only": false,
		},
	})

	visible := gate.VisibleFields(defs)
	require.Len(t, visible, 1)
	require.Equal(t, shown, visible[0].ID)

	options := gate.VisibleOptions(visible[0])
	require.Len(t, options, 1)
	require.Equal(t, "Public", options[0].Label)
}
