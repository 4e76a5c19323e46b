package scope

import (
	"context"

	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
)

// Guard resolves the tenant scope an actor may operate in and authorizes
// field policy actions (fields:write, values:write, order:write, bulk:write
// and their read counterparts) before commands and queries touch the
// repositories. It is intentionally small so tests can swap in custom guards.
type Guard interface {
	Enforce(ctx context.Context, actor types.ActorRef, requested types.ScopeFilter, action types.PolicyAction, target uuid.UUID) (types.ScopeFilter, error)
}

type guard struct {
	resolver types.ScopeResolver
	policy   types.AuthorizationPolicy
}

// NewGuard builds a Guard from a scope resolver and an authorization policy.
// A nil resolver keeps the requested scope as-is; a nil policy skips the
// authorization check.
func NewGuard(resolver types.ScopeResolver, policy types.AuthorizationPolicy) Guard {
	return guard{
		resolver: resolver,
		policy:   policy,
	}
}

// Ensure returns a usable guard even when callers pass nil, which field
// command and query constructors do when tests instantiate them directly.
func Ensure(g Guard) Guard {
	if g == nil {
		return guard{}
	}
	return g
}

// NopGuard returns a guard that passes requested scopes through untouched and
// authorizes every field action.
func NopGuard() Guard {
	return guard{}
}

// Enforce resolves the requested scope for the actor and checks the policy
// action against it. Callers persist with the returned scope so writes land
// in the tenant the guard approved, not the one the transport requested.
func (g guard) Enforce(ctx context.Context, actor types.ActorRef, requested types.ScopeFilter, action types.PolicyAction, target uuid.UUID) (types.ScopeFilter, error) {
	scope := requested
	if g.resolver != nil {
		resolved, err := g.resolver.ResolveScope(ctx, actor, requested)
		if err != nil {
			return types.ScopeFilter{}, err
		}
		scope = resolved
	}
	if g.policy != nil && action != "" {
		check := types.PolicyCheck{
			Actor:    actor,
			Scope:    scope,
			Action:   action,
			TargetID: target,
		}
		if err := g.policy.Authorize(ctx, check); err != nil {
			return types.ScopeFilter{}, err
		}
	}
	return scope, nil
}
