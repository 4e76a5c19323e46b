package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/scope"
	"github.com/google/uuid"
)

// ValueCommandConfig wires dependencies for value commands.
type ValueCommandConfig struct {
	Repository types.ValueRepository
	Activity   types.ActivitySink
	Hooks      types.Hooks
	Clock      types.Clock
	ScopeGuard scope.Guard
}

// ValueUpdateInput applies encoded writes to a single record. Interactive
// editing goes through the value store's debounce path instead; this command
// serves programmatic writes (imports, integrations).
type ValueUpdateInput struct {
	EntityID uuid.UUID
	Writes   []types.ValueWrite
	Scope    types.ScopeFilter
	Actor    types.ActorRef
}

// Type implements gocommand.Message.
func (ValueUpdateInput) Type() string {
	return "command.value.update"
}

// Validate implements gocommand.Message.
func (input ValueUpdateInput) Validate() error {
	switch {
	case input.EntityID == uuid.Nil:
		return ErrEntityIDRequired
	case len(input.Writes) == 0:
		return ErrValueWritesRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// ValueUpdateCommand persists encoded values for one record.
type ValueUpdateCommand struct {
	repo  types.ValueRepository
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
	guard scope.Guard
}

// NewValueUpdateCommand constructs the handler.
func NewValueUpdateCommand(cfg ValueCommandConfig) *ValueUpdateCommand {
	return &ValueUpdateCommand{
		repo:  cfg.Repository,
		sink:  cfg.Activity,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ValueUpdateInput] = (*ValueUpdateCommand)(nil)

// Execute validates and persists the writes.
func (c *ValueUpdateCommand) Execute(ctx context.Context, input ValueUpdateInput) error {
	if c.repo == nil {
		return types.ErrMissingValueRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionValuesWrite, input.EntityID)
	if err != nil {
		return err
	}

	if err := c.repo.UpdateValues(ctx, []uuid.UUID{input.EntityID}, input.Writes, scopeFilter, input.Actor.ID); err != nil {
		return err
	}

	record := buildValueActivityRecord("value.updated", input.EntityID, input.Writes, input.Actor, scopeFilter, c.clock)
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)

	fieldIDs := make([]uuid.UUID, 0, len(input.Writes))
	for _, write := range input.Writes {
		fieldIDs = append(fieldIDs, write.FieldID)
	}
	emitValueHook(ctx, c.hooks, types.ValueEvent{
		EntityID:   input.EntityID,
		FieldIDs:   fieldIDs,
		Action:     "value.updated",
		ActorID:    input.Actor.ID,
		Scope:      scopeFilter,
		OccurredAt: now(c.clock),
	})
	return nil
}
