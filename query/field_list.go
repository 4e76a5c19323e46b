package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-fields/access"
	"github.com/goliatone/go-fields/ordering"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/schema"
	"github.com/goliatone/go-fields/scope"
	"github.com/google/uuid"
)

// FieldListInput scopes an ordered field listing. Context selects which
// stored ordering document applies (e.g. "customer_table").
type FieldListInput struct {
	UserID     uuid.UUID
	Context    string
	Keyword    string
	Pagination types.Pagination
	Scope      types.ScopeFilter
	Actor      types.ActorRef
}

// FieldListResult is the effective admin view: both display groups in their
// resolved order, already filtered to what the actor may see, plus the
// dirty-state flags for the reset-to-default affordance.
type FieldListResult struct {
	Synced                 []ordering.OrderedField
	Unsynced               []ordering.OrderedField
	SyncedMatchesDefault   bool
	UnsyncedMatchesDefault bool
}

// FieldListQueryConfig wires dependencies for the field listing.
type FieldListQueryConfig struct {
	Repository  types.SchemaRepository
	Resolver    *ordering.Resolver
	Permissions types.PermissionProvider
	// DefaultPermission resolves fields absent from the permission map.
	// Empty means fail-open.
	DefaultPermission access.DefaultPermission
	ScopeGuard        scope.Guard
}

// FieldListQuery lists definitions partitioned by sync group, ordered per the
// user's stored rules, and filtered by the access gate.
type FieldListQuery struct {
	repo        types.SchemaRepository
	resolver    *ordering.Resolver
	permissions types.PermissionProvider
	fallback    access.DefaultPermission
	guard       scope.Guard
}

// NewFieldListQuery constructs the query helper.
func NewFieldListQuery(cfg FieldListQueryConfig) *FieldListQuery {
	return &FieldListQuery{
		repo:        cfg.Repository,
		resolver:    cfg.Resolver,
		permissions: cfg.Permissions,
		fallback:    cfg.DefaultPermission,
		guard:       safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Querier[FieldListInput, FieldListResult] = (*FieldListQuery)(nil)

// Query resolves the ordered, access-filtered listing.
func (q *FieldListQuery) Query(ctx context.Context, input FieldListInput) (FieldListResult, error) {
	if q.repo == nil {
		return FieldListResult{}, types.ErrMissingSchemaRepository
	}
	scopeFilter, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionFieldsRead, uuid.Nil)
	if err != nil {
		return FieldListResult{}, err
	}

	defs, err := q.repo.ListFields(ctx, types.SchemaFilter{
		Scope:      scopeFilter,
		Keyword:    input.Keyword,
		Pagination: input.Pagination,
	})
	if err != nil {
		return FieldListResult{}, err
	}

	gate, err := buildGate(ctx, q.permissions, input.Actor, q.fallback)
	if err != nil {
		return FieldListResult{}, err
	}
	visible := gate.VisibleFields(defs)
	partition := schema.PartitionBySync(visible)

	if q.resolver == nil || input.UserID == uuid.Nil {
		return FieldListResult{
			Synced:                 ordering.ApplyOrder(partition.Synced, nil),
			Unsynced:               ordering.ApplyOrder(partition.Unsynced, nil),
			SyncedMatchesDefault:   true,
			UnsyncedMatchesDefault: true,
		}, nil
	}

	snapshot, err := q.resolver.Resolve(ctx, ordering.ResolveInput{
		UserID:   input.UserID,
		Scope:    scopeFilter,
		Context:  input.Context,
		Synced:   partition.Synced,
		Unsynced: partition.Unsynced,
	})
	if err != nil {
		return FieldListResult{}, err
	}
	return FieldListResult{
		Synced:                 snapshot.Synced,
		Unsynced:               snapshot.Unsynced,
		SyncedMatchesDefault:   snapshot.SyncedMatchesDefault,
		UnsyncedMatchesDefault: snapshot.UnsyncedMatchesDefault,
	}, nil
}
