package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/scope"
	"github.com/google/uuid"
)

// OrderCommandConfig wires dependencies for ordering commands.
type OrderCommandConfig struct {
	Repository types.SettingsRepository
	Activity   types.ActivitySink
	Hooks      types.Hooks
	Clock      types.Clock
	ScopeGuard scope.Guard
}

// OrderPersistInput saves one display group's rules for a user and context.
// The sibling group in the stored document is never touched.
type OrderPersistInput struct {
	UserID  uuid.UUID
	Context string
	Group   types.OrderGroup
	Rules   []types.OrderRule
	Scope   types.ScopeFilter
	Actor   types.ActorRef
	Result  *types.OrderRuleSet
}

// Type implements gocommand.Message.
func (OrderPersistInput) Type() string {
	return "command.order.persist"
}

// Validate implements gocommand.Message.
func (input OrderPersistInput) Validate() error {
	switch {
	case input.UserID == uuid.Nil:
		return ErrOrderUserRequired
	case strings.TrimSpace(input.Context) == "":
		return ErrOrderContextRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// OrderPersistCommand writes ordering rules for one display group.
type OrderPersistCommand struct {
	repo  types.SettingsRepository
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
	guard scope.Guard
}

// NewOrderPersistCommand constructs the handler.
func NewOrderPersistCommand(cfg OrderCommandConfig) *OrderPersistCommand {
	return &OrderPersistCommand{
		repo:  cfg.Repository,
		sink:  cfg.Activity,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[OrderPersistInput] = (*OrderPersistCommand)(nil)

// Execute persists the group rules, merging with the stored sibling group.
func (c *OrderPersistCommand) Execute(ctx context.Context, input OrderPersistInput) error {
	if c.repo == nil {
		return types.ErrMissingSettingsRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionOrderWrite, input.UserID)
	if err != nil {
		return err
	}

	set := types.OrderRuleSet{Context: strings.TrimSpace(input.Context)}
	set = set.WithGroup(input.Group, input.Rules)

	saved, err := c.repo.SaveRuleSet(ctx, input.UserID, scopeFilter, set)
	if err != nil {
		return err
	}
	if input.Result != nil && saved != nil {
		*input.Result = *saved
	}

	record := buildOrderActivityRecord("order.persisted", input.UserID, set.Context, input.Group, input.Actor, scopeFilter, c.clock)
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitOrderHook(ctx, c.hooks, types.OrderEvent{
		UserID:     input.UserID,
		Context:    set.Context,
		Group:      input.Group,
		Action:     "order.persisted",
		ActorID:    input.Actor.ID,
		OccurredAt: now(c.clock),
	})
	return nil
}

// OrderResetInput drops the stored rules for a user and context so display
// order falls back to schema-creation order.
type OrderResetInput struct {
	UserID  uuid.UUID
	Context string
	Scope   types.ScopeFilter
	Actor   types.ActorRef
}

// Type implements gocommand.Message.
func (OrderResetInput) Type() string {
	return "command.order.reset"
}

// Validate implements gocommand.Message.
func (input OrderResetInput) Validate() error {
	switch {
	case input.UserID == uuid.Nil:
		return ErrOrderUserRequired
	case strings.TrimSpace(input.Context) == "":
		return ErrOrderContextRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// OrderResetCommand removes a stored rule set.
type OrderResetCommand struct {
	repo  types.SettingsRepository
	sink  types.ActivitySink
	hooks types.Hooks
	clock types.Clock
	guard scope.Guard
}

// NewOrderResetCommand constructs the handler.
func NewOrderResetCommand(cfg OrderCommandConfig) *OrderResetCommand {
	return &OrderResetCommand{
		repo:  cfg.Repository,
		sink:  cfg.Activity,
		hooks: safeHooks(cfg.Hooks),
		clock: safeClock(cfg.Clock),
		guard: safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[OrderResetInput] = (*OrderResetCommand)(nil)

// Execute deletes the stored document for the user and context.
func (c *OrderResetCommand) Execute(ctx context.Context, input OrderResetInput) error {
	if c.repo == nil {
		return types.ErrMissingSettingsRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionOrderWrite, input.UserID)
	if err != nil {
		return err
	}

	contextKey := strings.TrimSpace(input.Context)
	if err := c.repo.DeleteRuleSet(ctx, input.UserID, scopeFilter, contextKey); err != nil {
		return err
	}

	record := buildOrderActivityRecord("order.reset", input.UserID, contextKey, "", input.Actor, scopeFilter, c.clock)
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitOrderHook(ctx, c.hooks, types.OrderEvent{
		UserID:     input.UserID,
		Context:    contextKey,
		Action:     "order.reset",
		ActorID:    input.Actor.ID,
		OccurredAt: now(c.clock),
	})
	return nil
}
