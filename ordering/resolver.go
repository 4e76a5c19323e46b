package ordering

import (
	"context"
	"fmt"

	"github.com/goliatone/go-fields/pkg/types"
	opts "github.com/goliatone/go-options"
	"github.com/google/uuid"
)

const (
	keySynced   = "synced"
	keyUnsynced = "unsynced"
)

// ResolverConfig wires dependencies for the order resolver.
type ResolverConfig struct {
	Repository types.SettingsRepository
}

// Resolver merges the schema-order default layer with the user's stored rule
// set via go-options, then applies the winning rules per display group.
type Resolver struct {
	repo types.SettingsRepository
}

// ResolveInput carries the definitions per display group and the settings
// lookup coordinates.
type ResolveInput struct {
	UserID   uuid.UUID
	Scope    types.ScopeFilter
	Context  string
	Synced   []types.FieldDefinition
	Unsynced []types.FieldDefinition
}

// Snapshot is the effective, ordered view per display group plus the
// matches-default flags that drive the dirty-state badge.
type Snapshot struct {
	Synced                 []OrderedField
	Unsynced               []OrderedField
	SyncedMatchesDefault   bool
	UnsyncedMatchesDefault bool
}

// NewResolver constructs an order resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Repository == nil {
		return nil, fmt.Errorf("ordering: repository required")
	}
	return &Resolver{repo: cfg.Repository}, nil
}

// Resolve loads the stored rule set and merges it over the schema-order
// default. Groups the user never reordered fall through to the default layer.
func (r *Resolver) Resolve(ctx context.Context, input ResolveInput) (Snapshot, error) {
	stored, err := r.repo.GetRuleSet(ctx, input.UserID, input.Scope, input.Context)
	if err != nil {
		return Snapshot{}, err
	}

	defaults := map[string]any{
		keySynced:   DefaultRules(input.Synced),
		keyUnsynced: DefaultRules(input.Unsynced),
	}
	user := make(map[string]any)
	if stored != nil {
		if stored.Synced != nil {
			user[keySynced] = stored.Synced
		}
		if stored.Unsynced != nil {
			user[keyUnsynced] = stored.Unsynced
		}
	}

	systemScope := opts.NewScope("schema_default", opts.ScopePrioritySystem,
		opts.WithScopeLabel("Schema Order"))
	userScope := opts.NewScope("user_rules", opts.ScopePriorityUser,
		opts.WithScopeLabel("User Order"))
	stack, err := opts.NewStack(
		opts.NewLayer(systemScope, defaults, opts.WithSnapshotID[map[string]any](systemScope.Name)),
		opts.NewLayer(userScope, user, opts.WithSnapshotID[map[string]any](userScope.Name)),
	)
	if err != nil {
		return Snapshot{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return Snapshot{}, err
	}

	syncedRules := rulesFromPayload(merged.Value[keySynced])
	unsyncedRules := rulesFromPayload(merged.Value[keyUnsynced])

	return Snapshot{
		Synced:                 ApplyOrder(input.Synced, syncedRules),
		Unsynced:               ApplyOrder(input.Unsynced, unsyncedRules),
		SyncedMatchesDefault:   matchesStored(input.Synced, stored, types.OrderGroupSynced),
		UnsyncedMatchesDefault: matchesStored(input.Unsynced, stored, types.OrderGroupUnsynced),
	}, nil
}

// matchesStored evaluates the dirty-state badge against the stored rules
// only: the merged defaults always match themselves.
func matchesStored(defs []types.FieldDefinition, stored *types.OrderRuleSet, group types.OrderGroup) bool {
	if stored == nil {
		return true
	}
	return MatchesDefault(defs, stored.Group(group))
}

func rulesFromPayload(value any) []types.OrderRule {
	rules, ok := value.([]types.OrderRule)
	if !ok {
		return nil
	}
	return rules
}
