package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-fields/access"
	"github.com/goliatone/go-fields/codec"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/scope"
	"github.com/google/uuid"
)

// EntityValuesInput scopes a decoded value lookup for one record.
type EntityValuesInput struct {
	EntityID uuid.UUID
	FieldIDs []uuid.UUID
	Scope    types.ScopeFilter
	Actor    types.ActorRef
}

// DecodedValue pairs a definition with its stored raw value and typed form.
// Options are pre-filtered to those the actor may see. Editable reflects the
// gate's edit key so renderers can disable inputs without a second lookup.
type DecodedValue struct {
	Definition types.FieldDefinition
	Options    []types.Option
	RawValue   string
	Value      codec.Value
	Editable   bool
}

// EntityValuesResult is the decoded, access-filtered value view for a record.
type EntityValuesResult struct {
	EntityID uuid.UUID
	Values   []DecodedValue
}

// EntityValuesQueryConfig wires dependencies for the value view.
type EntityValuesQueryConfig struct {
	Schema            types.SchemaRepository
	Values            types.ValueRepository
	Permissions       types.PermissionProvider
	DefaultPermission access.DefaultPermission
	ScopeGuard        scope.Guard
}

// EntityValuesQuery resolves the decoded field values for one record.
type EntityValuesQuery struct {
	schema      types.SchemaRepository
	values      types.ValueRepository
	permissions types.PermissionProvider
	fallback    access.DefaultPermission
	guard       scope.Guard
}

// NewEntityValuesQuery constructs the query helper.
func NewEntityValuesQuery(cfg EntityValuesQueryConfig) *EntityValuesQuery {
	return &EntityValuesQuery{
		schema:      cfg.Schema,
		values:      cfg.Values,
		permissions: cfg.Permissions,
		fallback:    cfg.DefaultPermission,
		guard:       safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Querier[EntityValuesInput, EntityValuesResult] = (*EntityValuesQuery)(nil)

// Query loads definitions and stored values, decodes them, and filters to
// what the actor may see. Fields with no stored row decode from the empty
// raw value. Values whose definition was deleted are dropped.
func (q *EntityValuesQuery) Query(ctx context.Context, input EntityValuesInput) (EntityValuesResult, error) {
	if q.schema == nil {
		return EntityValuesResult{}, types.ErrMissingSchemaRepository
	}
	if q.values == nil {
		return EntityValuesResult{}, types.ErrMissingValueRepository
	}
	if input.EntityID == uuid.Nil {
		return EntityValuesResult{}, types.ErrEntityIDRequired
	}
	scopeFilter, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionValuesRead, input.EntityID)
	if err != nil {
		return EntityValuesResult{}, err
	}

	defs, err := q.schema.ListFields(ctx, types.SchemaFilter{
		Scope:    scopeFilter,
		FieldIDs: input.FieldIDs,
	})
	if err != nil {
		return EntityValuesResult{}, err
	}

	stored, err := q.values.ListValues(ctx, types.ValueFilter{
		EntityID: input.EntityID,
		FieldIDs: input.FieldIDs,
		Scope:    scopeFilter,
	})
	if err != nil {
		return EntityValuesResult{}, err
	}
	rawByField := make(map[uuid.UUID]string, len(stored))
	for _, value := range stored {
		rawByField[value.FieldID] = value.RawValue
	}

	gate, err := buildGate(ctx, q.permissions, input.Actor, q.fallback)
	if err != nil {
		return EntityValuesResult{}, err
	}

	result := EntityValuesResult{EntityID: input.EntityID}
	for _, def := range defs {
		if !gate.CanView(def.ID) {
			continue
		}
		raw := rawByField[def.ID]
		result.Values = append(result.Values, DecodedValue{
			Definition: def,
			Options:    gate.VisibleOptions(def),
			RawValue:   raw,
			Value:      codec.Decode(def.FieldType, raw, def.Options),
			Editable:   gate.CanEdit(def.ID),
		})
	}
	return result, nil
}
