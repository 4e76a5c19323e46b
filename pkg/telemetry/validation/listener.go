// Package validation bridges JWT token validation events into the go-fields
// audit trail so sign-ins appear alongside field and value activity.
package validation

import (
	"context"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-auth/middleware/jwtware"
	"github.com/goliatone/go-fields/pkg/authctx"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// SchemaNotifier receives callbacks whenever an authenticated actor is
// validated so schema exporters can refresh per-actor caches.
type SchemaNotifier interface {
	Notify(ctx context.Context, actorID uuid.UUID, metadata map[string]any)
}

// ListenerOptions customize the validation listener behaviour.
type ListenerOptions struct {
	ActivitySink   types.ActivitySink
	Logger         types.Logger
	SchemaNotifier SchemaNotifier
	// ResolveActor overrides how the actor payload is pulled from the
	// request. Defaults to authctx.ResolveActorContextFromRouter.
	ResolveActor func(router.Context) (*auth.ActorContext, error)
}

// NewListener returns a jwtware.ValidationListener that emits an audit record
// and notifies schema observers whenever a token is validated. Resolution
// failures are logged and swallowed so authentication never fails on
// telemetry.
func NewListener(opts ListenerOptions) jwtware.ValidationListener {
	logger := opts.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	resolve := opts.ResolveActor
	if resolve == nil {
		resolve = authctx.ResolveActorContextFromRouter
	}
	return func(ctx router.Context, claims jwtware.AuthClaims) error {
		actorCtx, err := resolve(ctx)
		if err != nil {
			logger.Error("validation listener failed to resolve actor", err)
			return nil
		}
		ref, err := authctx.ActorRefFromActorContext(actorCtx)
		if err != nil {
			logger.Error("validation listener got invalid actor", err)
			return nil
		}
		tenancy := authctx.ScopeFromActorContext(actorCtx)
		if opts.ActivitySink != nil {
			record := types.ActivityRecord{
				ActorID:    ref.ID,
				Verb:       "auth.validated",
				ObjectType: "auth",
				ObjectID:   claims.Subject(),
				TenantID:   tenancy.TenantID,
				OrgID:      tenancy.OrgID,
				Data: map[string]any{
					"role": actorCtx.Role,
				},
			}
			if err := opts.ActivitySink.Log(ctx.Context(), record); err != nil {
				logger.Error("validation activity sink failed", err)
			}
		}
		if opts.SchemaNotifier != nil {
			opts.SchemaNotifier.Notify(ctx.Context(), ref.ID, actorCtx.Metadata)
		}
		return nil
	}
}
