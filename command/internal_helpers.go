package command

import (
	"context"
	"time"

	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/scope"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeHooks(hooks types.Hooks) types.Hooks {
	return hooks
}

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func logActivity(ctx context.Context, sink types.ActivitySink, record types.ActivityRecord) {
	if sink == nil {
		return
	}
	_ = sink.Log(ctx, record)
}

func emitActivityHook(ctx context.Context, hooks types.Hooks, record types.ActivityRecord) {
	if hooks.AfterActivity == nil {
		return
	}
	hooks.AfterActivity(ctx, record)
}

func emitFieldHook(ctx context.Context, hooks types.Hooks, event types.FieldEvent) {
	if hooks.AfterFieldChange == nil {
		return
	}
	hooks.AfterFieldChange(ctx, event)
}

func emitValueHook(ctx context.Context, hooks types.Hooks, event types.ValueEvent) {
	if hooks.AfterValueFlush == nil {
		return
	}
	hooks.AfterValueFlush(ctx, event)
}

func emitOrderHook(ctx context.Context, hooks types.Hooks, event types.OrderEvent) {
	if hooks.AfterOrderChange == nil {
		return
	}
	hooks.AfterOrderChange(ctx, event)
}

func emitBulkHook(ctx context.Context, hooks types.Hooks, event types.BulkAssignEvent) {
	if hooks.AfterBulkAssign == nil {
		return
	}
	hooks.AfterBulkAssign(ctx, event)
}
