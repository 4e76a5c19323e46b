// Package query exposes go-command compatible read models: ordered, access
// filtered field listings and decoded value views. Queries never mutate state
// and can be invoked by any transport.
package query

import (
	"context"

	"github.com/goliatone/go-fields/access"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/scope"
)

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}

// buildGate resolves the actor's permission map into an access gate. A nil
// provider yields a fail-open gate.
func buildGate(ctx context.Context, provider types.PermissionProvider, actor types.ActorRef, fallback access.DefaultPermission) (access.Gate, error) {
	var permissions types.PermissionMap
	if provider != nil {
		resolved, err := provider.Permissions(ctx, actor)
		if err != nil {
			return access.Gate{}, err
		}
		permissions = resolved
	}
	return access.NewGate(access.GateConfig{
		Permissions: permissions,
		Default:     fallback,
	}), nil
}
