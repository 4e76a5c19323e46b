package service

import (
	"context"

	"github.com/goliatone/go-auth/middleware/jwtware"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-fields/access"
	"github.com/goliatone/go-fields/command"
	"github.com/goliatone/go-fields/ordering"
	"github.com/goliatone/go-fields/pkg/schema"
	"github.com/goliatone/go-fields/pkg/telemetry/validation"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/query"
	"github.com/goliatone/go-fields/scope"
)

// Service is the entry point for go-fields. It wires repositories, the access
// gate inputs, hooks, and command/query facades supplied by the host
// application.
type Service struct {
	cfg      Config
	commands Commands
	queries  Queries
	resolver *ordering.Resolver

	scopeGuard scope.Guard
}

// Commands exposes the service command handlers.
type Commands struct {
	FieldCreate  *command.FieldCreateCommand
	FieldUpdate  *command.FieldUpdateCommand
	FieldDelete  *command.FieldDeleteCommand
	OrderPersist *command.OrderPersistCommand
	OrderReset   *command.OrderResetCommand
	ValueUpdate  *command.ValueUpdateCommand
	BulkAssign   *command.BulkAssignCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	FieldList    *query.FieldListQuery
	EntityValues *query.EntityValuesQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun.DB, cached repositories, hooks, etc.).
type Config struct {
	SchemaRepository    types.SchemaRepository
	ValueRepository     types.ValueRepository
	SettingsRepository  types.SettingsRepository
	PermissionProvider  types.PermissionProvider
	ActivitySink        types.ActivitySink
	Hooks               types.Hooks
	Clock               types.Clock
	IDGenerator         types.IDGenerator
	Logger              types.Logger
	FeatureGate         featuregate.FeatureGate
	ScopeResolver       types.ScopeResolver
	AuthorizationPolicy types.AuthorizationPolicy
	// DefaultPermission resolves fields absent from the permission map.
	// Empty means fail-open.
	DefaultPermission access.DefaultPermission
	// SchemaRegistry, when set, is re-registered with the current definition
	// set after every field mutation so aggregated schema documents pick up
	// new columns without a restart.
	SchemaRegistry *schema.Registry
	// SchemaResource names the resource whose schema carries the dynamic
	// columns. Empty defaults to "records"; the plural route segment appends
	// an "s".
	SchemaResource string
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	norm.Hooks.AfterFieldChange = chainSchemaRefresh(norm)

	var resolver *ordering.Resolver
	if norm.SettingsRepository != nil {
		if r, err := ordering.NewResolver(ordering.ResolverConfig{
			Repository: norm.SettingsRepository,
		}); err == nil {
			resolver = r
		} else if norm.Logger != nil {
			norm.Logger.Error("go-fields: ordering resolver initialization failed", err)
		}
	}

	scopeGuard := scope.Ensure(scope.NewGuard(norm.ScopeResolver, norm.AuthorizationPolicy))

	s := &Service{
		cfg:        norm,
		resolver:   resolver,
		scopeGuard: scopeGuard,
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	return cfg
}

// chainSchemaRefresh composes the configured AfterFieldChange hook with a
// registry refresh when a SchemaRegistry is wired. The host hook runs first so
// schema consumers observe the same ordering as other listeners.
func chainSchemaRefresh(cfg Config) func(context.Context, types.FieldEvent) {
	if cfg.SchemaRegistry == nil || cfg.SchemaRepository == nil {
		return cfg.Hooks.AfterFieldChange
	}
	resource := cfg.SchemaResource
	if resource == "" {
		resource = "records"
	}
	refresh := schema.RefreshOnFieldChange(cfg.SchemaRegistry, resource, resource+"s", func(ctx context.Context, filter types.ScopeFilter) []types.FieldDefinition {
		defs, err := cfg.SchemaRepository.ListFields(ctx, types.SchemaFilter{Scope: filter})
		if err != nil {
			cfg.Logger.Error("go-fields: schema refresh listing failed", err)
			return nil
		}
		return defs
	})
	host := cfg.Hooks.AfterFieldChange
	return func(ctx context.Context, event types.FieldEvent) {
		if host != nil {
			host(ctx, event)
		}
		refresh(ctx, event)
	}
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Resolver exposes the ordering resolver so hosts can build interactive value
// stores and list views that share the same stored rule sets.
func (s *Service) Resolver() *ordering.Resolver {
	if s == nil {
		return nil
	}
	return s.resolver
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.SchemaRepository != nil &&
		s.cfg.ValueRepository != nil &&
		s.cfg.SettingsRepository != nil &&
		s.cfg.PermissionProvider != nil &&
		s.resolver != nil
}

// HealthCheck exercises the registered dependencies to ensure the service can
// be used by upstream transports (REST/gRPC/jobs). Future implementations will
// ping the repositories/hooks; for now we just surface missing config.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Ready() {
		return types.ErrServiceNotReady
	}
	if s.cfg.SchemaRepository == nil {
		return types.ErrMissingSchemaRepository
	}
	if s.cfg.ValueRepository == nil {
		return types.ErrMissingValueRepository
	}
	if s.cfg.SettingsRepository == nil {
		return types.ErrMissingSettingsRepository
	}
	if s.cfg.PermissionProvider == nil {
		return types.ErrMissingPermissionProvider
	}
	return nil
}

// ScopeGuard exposes the guard instance used internally so transports can reuse
// the same resolver/policy combination for HTTP adapters.
func (s *Service) ScopeGuard() scope.Guard {
	if s == nil {
		return scope.NopGuard()
	}
	return scope.Ensure(s.scopeGuard)
}

// ActivitySink returns the configured sink so transports can emit activity
// records for auxiliary workflows (e.g. CRUD controllers).
func (s *Service) ActivitySink() types.ActivitySink {
	if s == nil {
		return nil
	}
	return s.cfg.ActivitySink
}

// ValidationListener adapts the configured activity sink and logger into a
// token validation hook for JWT middleware. Caller-supplied options win; the
// sink and logger default to the service configuration so sign-ins land in
// the same audit trail as field activity.
func (s *Service) ValidationListener(opts validation.ListenerOptions) jwtware.ValidationListener {
	if s != nil {
		if opts.ActivitySink == nil {
			opts.ActivitySink = s.cfg.ActivitySink
		}
		if opts.Logger == nil {
			opts.Logger = s.cfg.Logger
		}
	}
	return validation.NewListener(opts)
}

func (s *Service) buildCommands() Commands {
	fieldCfg := command.FieldCommandConfig{
		Repository:  s.cfg.SchemaRepository,
		Activity:    s.cfg.ActivitySink,
		Hooks:       s.cfg.Hooks,
		Clock:       s.cfg.Clock,
		ScopeGuard:  s.scopeGuard,
		FeatureGate: s.cfg.FeatureGate,
	}
	orderCfg := command.OrderCommandConfig{
		Repository: s.cfg.SettingsRepository,
		Activity:   s.cfg.ActivitySink,
		Hooks:      s.cfg.Hooks,
		Clock:      s.cfg.Clock,
		ScopeGuard: s.scopeGuard,
	}
	return Commands{
		FieldCreate:  command.NewFieldCreateCommand(fieldCfg),
		FieldUpdate:  command.NewFieldUpdateCommand(fieldCfg),
		FieldDelete:  command.NewFieldDeleteCommand(fieldCfg),
		OrderPersist: command.NewOrderPersistCommand(orderCfg),
		OrderReset:   command.NewOrderResetCommand(orderCfg),
		ValueUpdate: command.NewValueUpdateCommand(command.ValueCommandConfig{
			Repository: s.cfg.ValueRepository,
			Activity:   s.cfg.ActivitySink,
			Hooks:      s.cfg.Hooks,
			Clock:      s.cfg.Clock,
			ScopeGuard: s.scopeGuard,
		}),
		BulkAssign: command.NewBulkAssignCommand(command.BulkAssignCommandConfig{
			Repository:  s.cfg.ValueRepository,
			Activity:    s.cfg.ActivitySink,
			Hooks:       s.cfg.Hooks,
			Clock:       s.cfg.Clock,
			ScopeGuard:  s.scopeGuard,
			FeatureGate: s.cfg.FeatureGate,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		FieldList: query.NewFieldListQuery(query.FieldListQueryConfig{
			Repository:        s.cfg.SchemaRepository,
			Resolver:          s.resolver,
			Permissions:       s.cfg.PermissionProvider,
			DefaultPermission: s.cfg.DefaultPermission,
			ScopeGuard:        s.scopeGuard,
		}),
		EntityValues: query.NewEntityValuesQuery(query.EntityValuesQueryConfig{
			Schema:            s.cfg.SchemaRepository,
			Values:            s.cfg.ValueRepository,
			Permissions:       s.cfg.PermissionProvider,
			DefaultPermission: s.cfg.DefaultPermission,
			ScopeGuard:        s.scopeGuard,
		}),
	}
}
