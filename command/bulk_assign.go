package command

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/scope"
	"github.com/google/uuid"
)

// BulkAssignCommandConfig wires dependencies for bulk assignment.
type BulkAssignCommandConfig struct {
	Repository  types.ValueRepository
	Activity    types.ActivitySink
	Hooks       types.Hooks
	Clock       types.Clock
	ScopeGuard  scope.Guard
	FeatureGate featuregate.FeatureGate
}

// BulkAssignInput applies encoded writes across a record selection in one
// operation. Targets either name explicit entity ids or select everything
// minus exclusions.
type BulkAssignInput struct {
	Targets types.BulkTargets
	Writes  []types.ValueWrite
	Scope   types.ScopeFilter
	Actor   types.ActorRef
}

// Type implements gocommand.Message.
func (BulkAssignInput) Type() string {
	return "command.value.bulk_assign"
}

// Validate implements gocommand.Message.
func (input BulkAssignInput) Validate() error {
	switch {
	case input.Targets.IsEmpty():
		return ErrBulkTargetsRequired
	case len(input.Writes) == 0:
		return ErrBulkWritesRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// BulkAssignCommand submits a multi-record assignment.
type BulkAssignCommand struct {
	repo  types.ValueRepository
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
	guard scope.Guard
	gate  featuregate.FeatureGate
}

// NewBulkAssignCommand constructs the handler.
func NewBulkAssignCommand(cfg BulkAssignCommandConfig) *BulkAssignCommand {
	return &BulkAssignCommand{
		repo:  cfg.Repository,
		sink:  cfg.Activity,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		guard: safeScopeGuard(cfg.ScopeGuard),
		gate:  cfg.FeatureGate,
	}
}

var _ gocommand.Commander[BulkAssignInput] = (*BulkAssignCommand)(nil)

// Execute validates, authorizes, and submits the assignment.
func (c *BulkAssignCommand) Execute(ctx context.Context, input BulkAssignInput) error {
	if c.repo == nil {
		return types.ErrMissingValueRepository
	}
	if err := input.Validate(); err != nil {
		return bulkAssignError(err, bulkAssignMetadata(input))
	}
	enabled, err := featureEnabled(ctx, c.gate, featureFieldsBulkAssign, input.Scope, input.Actor.ID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrBulkAssignDisabled
	}

	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionBulkWrite, uuid.Nil)
	if err != nil {
		return bulkAssignError(err, bulkAssignMetadata(input))
	}

	if err := c.repo.BulkAssign(ctx, input.Targets, input.Writes, scopeFilter, input.Actor.ID); err != nil {
		return bulkAssignError(err, bulkAssignMetadata(input))
	}

	names := make([]string, 0, len(input.Writes))
	for _, write := range input.Writes {
		names = append(names, write.FieldName)
	}
	record := types.ActivityRecord{
		ActorID:    input.Actor.ID,
		Verb:       "value.bulk_assigned",
		ObjectType: objectTypeValue,
		TenantID:   scopeFilter.TenantID,
		OrgID:      scopeFilter.OrgID,
		Data: map[string]any{
			"target_count": len(input.Targets.EntityIDs),
			"select_all":   input.Targets.SelectAll,
			"field_names":  names,
		},
		OccurredAt: now(c.clock),
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitBulkHook(ctx, c.hooks, types.BulkAssignEvent{
		TargetCount: len(input.Targets.EntityIDs),
		SelectAll:   input.Targets.SelectAll,
		FieldNames:  names,
		ActorID:     input.Actor.ID,
		Scope:       scopeFilter,
		OccurredAt:  now(c.clock),
	})
	return nil
}

func bulkAssignMetadata(input BulkAssignInput) map[string]any {
	metadata := map[string]any{
		"target_count": len(input.Targets.EntityIDs),
		"select_all":   input.Targets.SelectAll,
	}
	if len(input.Writes) > 0 {
		names := make([]string, 0, len(input.Writes))
		for _, write := range input.Writes {
			names = append(names, write.FieldName)
		}
		metadata["field_names"] = names
	}
	return metadata
}

func bulkAssignError(err error, metadata map[string]any) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.WithMetadata(metadata)
	}

	category := goerrors.CategoryInternal
	code := goerrors.CodeInternal
	switch {
	case errors.Is(err, ErrBulkTargetsRequired),
		errors.Is(err, ErrBulkWritesRequired),
		errors.Is(err, ErrActorRequired):
		category = goerrors.CategoryValidation
		code = goerrors.CodeBadRequest
	case errors.Is(err, types.ErrUnauthorizedScope):
		category = goerrors.CategoryAuthz
		code = goerrors.CodeForbidden
	}

	return goerrors.Wrap(err, category, "go-fields: bulk assign failed").
		WithCode(code).
		WithMetadata(metadata)
}
