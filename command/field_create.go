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

// FieldCommandConfig wires shared dependencies for field definition commands.
type FieldCommandConfig struct {
	Repository  types.SchemaRepository
	Activity    types.ActivitySink
	Hooks       types.Hooks
	Clock       types.Clock
	ScopeGuard  scope.Guard
	FeatureGate featuregate.FeatureGate
}

// FieldCreateInput carries data for creating a field definition.
type FieldCreateInput struct {
	FriendlyName string
	FieldType    types.FieldType
	Options      []types.Option
	SyncLead     bool
	Scope        types.ScopeFilter
	Actor        types.ActorRef
	Result       *types.FieldDefinition
}

// Type implements gocommand.Message.
func (FieldCreateInput) Type() string {
	return "command.field.create"
}

// Validate implements gocommand.Message.
func (input FieldCreateInput) Validate() error {
	switch {
	case strings.TrimSpace(input.FriendlyName) == "":
		return ErrFieldNameRequired
	case input.FieldType == "":
		return ErrFieldTypeRequired
	case !input.FieldType.Valid():
		return ErrFieldTypeInvalid
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// FieldCreateCommand persists new field definitions.
type FieldCreateCommand struct {
	repo  types.SchemaRepository
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
	guard scope.Guard
	gate  featuregate.FeatureGate
}

// NewFieldCreateCommand constructs the handler.
func NewFieldCreateCommand(cfg FieldCommandConfig) *FieldCreateCommand {
	return &FieldCreateCommand{
		repo:  cfg.Repository,
		sink:  cfg.Activity,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		guard: safeScopeGuard(cfg.ScopeGuard),
		gate:  cfg.FeatureGate,
	}
}

var _ gocommand.Commander[FieldCreateInput] = (*FieldCreateCommand)(nil)

// Execute validates and persists the new definition.
func (c *FieldCreateCommand) Execute(ctx context.Context, input FieldCreateInput) error {
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

	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionFieldsWrite, uuid.Nil)
	if err != nil {
		return err
	}

	created, err := c.repo.CreateField(ctx, types.FieldDefinition{
		FriendlyName: strings.TrimSpace(input.FriendlyName),
		FieldType:    input.FieldType,
		Options:      input.Options,
		SyncLead:     input.SyncLead,
		Scope:        scopeFilter,
		CreatedBy:    input.Actor.ID,
		UpdatedBy:    input.Actor.ID,
	})
	if err != nil {
		return err
	}
	if input.Result != nil && created != nil {
		*input.Result = *created
	}

	record := buildFieldActivityRecord("field.created", created, input.Actor, scopeFilter, c.clock)
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitFieldHook(ctx, c.hooks, types.FieldEvent{
		FieldID:    created.ID,
		Action:     "field.created",
		ActorID:    input.Actor.ID,
		Scope:      scopeFilter,
		OccurredAt: now(c.clock),
		Definition: *created,
	})
	return nil
}
