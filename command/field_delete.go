package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/scope"
	"github.com/google/uuid"
)

// FieldDeleteInput identifies the definition to remove. Stored values are left
// in place; they become orphaned and are ignored by value listings that join
// against live definitions.
type FieldDeleteInput struct {
	FieldID uuid.UUID
	Scope   types.ScopeFilter
	Actor   types.ActorRef
}

// Type implements gocommand.Message.
func (FieldDeleteInput) Type() string {
	return "command.field.delete"
}

// Validate implements gocommand.Message.
func (input FieldDeleteInput) Validate() error {
	switch {
	case input.FieldID == uuid.Nil:
		return ErrFieldIDRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// FieldDeleteCommand removes field definitions.
type FieldDeleteCommand struct {
	repo  types.SchemaRepository
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
	guard scope.Guard
	gate  featuregate.FeatureGate
}

// NewFieldDeleteCommand constructs the handler.
func NewFieldDeleteCommand(cfg FieldCommandConfig) *FieldDeleteCommand {
	return &FieldDeleteCommand{
		repo:  cfg.Repository,
		sink:  cfg.Activity,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		guard: safeScopeGuard(cfg.ScopeGuard),
		gate:  cfg.FeatureGate,
	}
}

var _ gocommand.Commander[FieldDeleteInput] = (*FieldDeleteCommand)(nil)

// Execute validates and deletes the definition.
func (c *FieldDeleteCommand) Execute(ctx context.Context, input FieldDeleteInput) error {
	if c.repo == nil {
		return types.ErrMissingSchemaRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	enabled, err := featureEnabled(ctx, c.gate, featureFieldsSchemaAdmin, input.Scope, input.Actor.ID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrSchemaAdminDisabled
	}

	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionFieldsWrite, input.FieldID)
	if err != nil {
		return err
	}

	existing, err := c.repo.GetField(ctx, input.FieldID, scopeFilter)
	if err != nil {
		return err
	}
	if err := c.repo.DeleteField(ctx, input.FieldID, scopeFilter); err != nil {
		return err
	}

	record := buildFieldActivityRecord("field.deleted", existing, input.Actor, scopeFilter, c.clock)
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitFieldHook(ctx, c.hooks, types.FieldEvent{
		FieldID:    input.FieldID,
		Action:     "field.deleted",
		ActorID:    input.Actor.ID,
		Scope:      scopeFilter,
		OccurredAt: now(c.clock),
		Definition: *existing,
	})
	return nil
}
