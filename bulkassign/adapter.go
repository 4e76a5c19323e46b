// Package bulkassign stages field values for multi-record assignment and
// hands them to the value repository in a single operation. The downstream
// bulk endpoint addresses fields by internal name, not definition id, so the
// adapter translates before submitting.
package bulkassign

import (
	"context"

	"github.com/goliatone/go-fields/access"
	"github.com/goliatone/go-fields/codec"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
)

// AdapterConfig wires the bulk assignment adapter.
type AdapterConfig struct {
	Repository types.ValueRepository
	// Gate filters which staged fields may be written. Nil disables gating.
	Gate   *access.Gate
	Clock  types.Clock
	Logger types.Logger
	Hooks  types.Hooks
}

// Adapter collects staged values and applies them across record selections.
type Adapter struct {
	repo   types.ValueRepository
	gate   *access.Gate
	clock  types.Clock
	logger types.Logger
	hooks  types.Hooks
}

// NewAdapter constructs the adapter.
func NewAdapter(cfg AdapterConfig) (*Adapter, error) {
	if cfg.Repository == nil {
		return nil, types.ErrMissingValueRepository
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Adapter{
		repo:   cfg.Repository,
		gate:   cfg.Gate,
		clock:  clock,
		logger: logger,
		hooks:  cfg.Hooks,
	}, nil
}

// CollectChanges builds the write payload from staged typed values. Only
// fields with a non-empty encoded value survive: an untouched or cleared
// field in the staging form means "leave that field alone on the targets",
// not "blank it out". Fields hidden from editing by the gate are dropped.
// Output follows definition order.
func (a *Adapter) CollectChanges(defs []types.FieldDefinition, staged map[uuid.UUID]codec.Value) []types.ValueWrite {
	writes := make([]types.ValueWrite, 0, len(staged))
	for _, def := range defs {
		value, ok := staged[def.ID]
		if !ok {
			continue
		}
		if a.gate != nil && !a.gate.CanEdit(def.ID) {
			continue
		}
		value.Type = def.FieldType
		raw := codec.Normalize(def.FieldType, codec.Encode(value), def.Options)
		if raw == "" {
			continue
		}
		writes = append(writes, types.ValueWrite{
			FieldID:   def.ID,
			FieldName: def.InternalName,
			RawValue:  raw,
		})
	}
	return writes
}

// Apply submits the collected writes against the target selection in one
// repository call. Empty selections and empty payloads are no-ops.
func (a *Adapter) Apply(ctx context.Context, targets types.BulkTargets, writes []types.ValueWrite, scope types.ScopeFilter, actor types.ActorRef) error {
	if targets.IsEmpty() || len(writes) == 0 {
		return nil
	}
	if err := a.repo.BulkAssign(ctx, targets, writes, scope, actor.ID); err != nil {
		a.logger.Error("bulk assign failed", err, "targets", len(targets.EntityIDs), "select_all", targets.SelectAll)
		return err
	}
	a.emit(ctx, targets, writes, scope, actor)
	return nil
}

func (a *Adapter) emit(ctx context.Context, targets types.BulkTargets, writes []types.ValueWrite, scope types.ScopeFilter, actor types.ActorRef) {
	if a.hooks.AfterBulkAssign == nil {
		return
	}
	names := make([]string, 0, len(writes))
	for _, write := range writes {
		names = append(names, write.FieldName)
	}
	a.hooks.AfterBulkAssign(ctx, types.BulkAssignEvent{
		TargetCount: len(targets.EntityIDs),
		SelectAll:   targets.SelectAll,
		FieldNames:  names,
		ActorID:     actor.ID,
		Scope:       scope,
		OccurredAt:  a.clock.Now(),
	})
}
