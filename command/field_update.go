package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/scope"
	"github.com/google/uuid"
)

// FieldUpdateInput carries a partial definition mutation. The internal name is
// deliberately not patchable; stored values and permission keys reference it.
type FieldUpdateInput struct {
	FieldID      uuid.UUID
	FriendlyName *string
	FieldType    *types.FieldType
	Options      []types.Option
	SyncLead     *bool
	Scope        types.ScopeFilter
	Actor        types.ActorRef
	Result       *types.FieldDefinition
}

// Type implements gocommand.Message.
func (FieldUpdateInput) Type() string {
	return "command.field.update"
}

// Validate implements gocommand.Message.
func (input FieldUpdateInput) Validate() error {
	switch {
	case input.FieldID == uuid.Nil:
		return ErrFieldIDRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	case input.FriendlyName != nil && strings.TrimSpace(*input.FriendlyName) == "":
		return ErrFieldNameRequired
	case input.FieldType != nil && !input.FieldType.Valid():
		return ErrFieldTypeInvalid
	default:
		return nil
	}
}

// FieldUpdateCommand applies partial updates to field definitions.
type FieldUpdateCommand struct {
	repo  types.SchemaRepository
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
	guard scope.Guard
	gate  featuregate.FeatureGate
}

// NewFieldUpdateCommand constructs the handler.
func NewFieldUpdateCommand(cfg FieldCommandConfig) *FieldUpdateCommand {
	return &FieldUpdateCommand{
		repo:  cfg.Repository,
		sink:  cfg.Activity,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		guard: safeScopeGuard(cfg.ScopeGuard),
		gate:  cfg.FeatureGate,
	}
}

var _ gocommand.Commander[FieldUpdateInput] = (*FieldUpdateCommand)(nil)

// Execute validates and applies the patch.
func (c *FieldUpdateCommand) Execute(ctx context.Context, input FieldUpdateInput) error {
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

	patch := types.FieldPatch{
		FieldType: input.FieldType,
		Options:   input.Options,
		SyncLead:  input.SyncLead,
	}
	if input.FriendlyName != nil {
		trimmed := strings.TrimSpace(*input.FriendlyName)
		patch.FriendlyName = &trimmed
	}

	updated, err := c.repo.UpdateField(ctx, input.FieldID, patch, scopeFilter, input.Actor.ID)
	if err != nil {
		return err
	}
	if input.Result != nil && updated != nil {
		*input.Result = *updated
	}

	record := buildFieldActivityRecord("field.updated", updated, input.Actor, scopeFilter, c.clock)
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitFieldHook(ctx, c.hooks, types.FieldEvent{
		FieldID:    updated.ID,
		Action:     "field.updated",
		ActorID:    input.Actor.ID,
		Scope:      scopeFilter,
		OccurredAt: now(c.clock),
		Definition: *updated,
	})
	return nil
}
