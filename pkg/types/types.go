package types

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScopeFilter carries tenant/org scoping fields used by commands/queries.
type ScopeFilter struct {
	TenantID uuid.UUID
	OrgID    uuid.UUID
	Labels   map[string]uuid.UUID
}

// Clone returns a copy of the scope filter with labels detached from the
// original map reference so callers can mutate safely.
func (s ScopeFilter) Clone() ScopeFilter {
	clone := ScopeFilter{
		TenantID: s.TenantID,
		OrgID:    s.OrgID,
	}
	if len(s.Labels) > 0 {
		clone.Labels = make(map[string]uuid.UUID, len(s.Labels))
		for k, v := range s.Labels {
			clone.Labels[k] = v
		}
	}
	return clone
}

// WithLabel returns a cloned scope filter with the provided label set. Keys are
// normalized to lower-case so lookups stay consistent across transports.
func (s ScopeFilter) WithLabel(key string, id uuid.UUID) ScopeFilter {
	if strings.TrimSpace(key) == "" || id == uuid.Nil {
		return s
	}
	clone := s.Clone()
	if clone.Labels == nil {
		clone.Labels = make(map[string]uuid.UUID)
	}
	clone.Labels[strings.ToLower(key)] = id
	return clone
}

// Label returns the identifier previously stored under the key (case
// insensitive). When the label has not been set, uuid.Nil is returned.
func (s ScopeFilter) Label(key string) uuid.UUID {
	if len(s.Labels) == 0 {
		return uuid.Nil
	}
	return s.Labels[strings.ToLower(strings.TrimSpace(key))]
}

// Pagination supports query pagination across admin panels.
type Pagination struct {
	Limit  int
	Offset int
}

// Option is a single selectable entry on a choice field. Labels are unique
// within a definition; Color is an optional presentation hint.
type Option struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Color string    `json:"color,omitempty"`
}

// FieldDefinition is the type-level description of a custom attribute. The
// InternalName is the machine key used for value lookups and permission-key
// derivation and is immutable after creation; FriendlyName is the display
// label shown to operators.
type FieldDefinition struct {
	ID           uuid.UUID
	InternalName string
	FriendlyName string
	FieldType    FieldType
	Options      []Option
	SyncLead     bool
	Scope        ScopeFilter
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    uuid.UUID
	UpdatedBy    uuid.UUID
}

// CloneOptions returns a detached copy of the option list.
func (d FieldDefinition) CloneOptions() []Option {
	if len(d.Options) == 0 {
		return nil
	}
	out := make([]Option, len(d.Options))
	copy(out, d.Options)
	return out
}

// OptionLabels returns the ordered option labels for choice fields.
func (d FieldDefinition) OptionLabels() []string {
	if len(d.Options) == 0 {
		return nil
	}
	labels := make([]string, 0, len(d.Options))
	for _, opt := range d.Options {
		labels = append(labels, opt.Label)
	}
	return labels
}

// FieldPatch represents partial updates applied to a field definition.
// InternalName is intentionally absent: it is immutable after creation.
type FieldPatch struct {
	FriendlyName *string
	FieldType    *FieldType
	Options      []Option
	SyncLead     *bool
}

// FieldValue is the per-record stored data for a field definition. ID stays
// uuid.Nil until the first write creates the row.
type FieldValue struct {
	ID        uuid.UUID
	FieldID   uuid.UUID
	EntityID  uuid.UUID
	RawValue  string
	Scope     ScopeFilter
	CreatedAt time.Time
	UpdatedAt time.Time
	UpdatedBy uuid.UUID
}

// OrderRule controls the display rank and visibility of one field within a
// display group, independent of schema-creation order.
type OrderRule struct {
	FieldID uuid.UUID `json:"field_id"`
	Order   int       `json:"order"`
	Enabled bool      `json:"enabled"`
}

// OrderGroup names one of the two display partitions of a rule set.
type OrderGroup string

const (
	OrderGroupSynced   OrderGroup = "synced"
	OrderGroupUnsynced OrderGroup = "unsynced"
)

// OrderRuleSet is the persisted ordering document for one consumer context
// (e.g. "customer_table"). The synced and unsynced groups live under named
// keys in a single document so sibling groups merge non-destructively.
type OrderRuleSet struct {
	Context  string      `json:"context"`
	Synced   []OrderRule `json:"synced,omitempty"`
	Unsynced []OrderRule `json:"unsynced,omitempty"`
	Version  int         `json:"version"`
}

// Group returns the rule collection for the requested display group.
func (s OrderRuleSet) Group(group OrderGroup) []OrderRule {
	if group == OrderGroupUnsynced {
		return s.Unsynced
	}
	return s.Synced
}

// WithGroup returns a copy of the rule set with the named group replaced.
// The sibling group is carried over untouched.
func (s OrderRuleSet) WithGroup(group OrderGroup, rules []OrderRule) OrderRuleSet {
	out := s
	cloned := append([]OrderRule(nil), rules...)
	if group == OrderGroupUnsynced {
		out.Unsynced = cloned
	} else {
		out.Synced = cloned
	}
	return out
}

// ActorRef identifies who or what is initiating a mutation.
type ActorRef struct {
	ID   uuid.UUID
	Type string
}

// PermissionMap is the flat permission source consumed by the access gate.
// It is sparse by design: most fields carry no entry at all and resolve
// through the gate's default policy.
type PermissionMap map[string]bool

// Clone returns a detached copy of the permission map.
func (m PermissionMap) Clone() PermissionMap {
	if len(m) == 0 {
		return nil
	}
	out := make(PermissionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PermissionProvider supplies the current session's permission map. The map is
// read-only to this module.
type PermissionProvider interface {
	Permissions(ctx context.Context, actor ActorRef) (PermissionMap, error)
}

// PermissionProviderFunc adapts bare functions to PermissionProvider.
type PermissionProviderFunc func(ctx context.Context, actor ActorRef) (PermissionMap, error)

// Permissions implements PermissionProvider.
func (f PermissionProviderFunc) Permissions(ctx context.Context, actor ActorRef) (PermissionMap, error) {
	return f(ctx, actor)
}

// FieldEvent is emitted after schema mutations.
type FieldEvent struct {
	FieldID    uuid.UUID
	Action     string
	ActorID    uuid.UUID
	Scope      ScopeFilter
	OccurredAt time.Time
	Definition FieldDefinition
}

// ValueEvent signals value flushes so downstream systems can invalidate
// caches or push notifications.
type ValueEvent struct {
	EntityID   uuid.UUID
	FieldIDs   []uuid.UUID
	Action     string
	ActorID    uuid.UUID
	Scope      ScopeFilter
	OccurredAt time.Time
}

// OrderEvent signals that an ordering rule set was persisted or reset.
type OrderEvent struct {
	UserID     uuid.UUID
	Context    string
	Group      OrderGroup
	Action     string
	ActorID    uuid.UUID
	OccurredAt time.Time
}

// BulkAssignEvent reports a completed multi-record assignment.
type BulkAssignEvent struct {
	TargetCount int
	SelectAll   bool
	FieldNames  []string
	ActorID     uuid.UUID
	Scope       ScopeFilter
	OccurredAt  time.Time
}

// Hooks groups optional callbacks invoked after key workflows complete.
type Hooks struct {
	AfterFieldChange func(context.Context, FieldEvent)
	AfterValueFlush  func(context.Context, ValueEvent)
	AfterOrderChange func(context.Context, OrderEvent)
	AfterBulkAssign  func(context.Context, BulkAssignEvent)
	AfterActivity    func(context.Context, ActivityRecord)
}

// ActivityRecord describes audit sink inputs shared across sink and command
// layers. Data payloads are sanitized before they reach a sink so raw field
// values never land in audit storage unmasked.
type ActivityRecord struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	Verb       string
	ObjectType string
	ObjectID   string
	TenantID   uuid.UUID
	OrgID      uuid.UUID
	Data       map[string]any
	OccurredAt time.Time
}

// ActivitySink is the minimal DI contract for emitting audit activity. Keep it
// stable and limited to Log so hosts can swap sinks without breaking changes.
type ActivitySink interface {
	Log(context.Context, ActivityRecord) error
}

// SchemaFilter narrows field definition listings.
type SchemaFilter struct {
	Scope      ScopeFilter
	FieldIDs   []uuid.UUID
	SyncLead   *bool
	Keyword    string
	Pagination Pagination
}

// SchemaRepository exposes CRUD over field definitions.
type SchemaRepository interface {
	ListFields(ctx context.Context, filter SchemaFilter) ([]FieldDefinition, error)
	GetField(ctx context.Context, id uuid.UUID, scope ScopeFilter) (*FieldDefinition, error)
	CreateField(ctx context.Context, def FieldDefinition) (*FieldDefinition, error)
	UpdateField(ctx context.Context, id uuid.UUID, patch FieldPatch, scope ScopeFilter, actor uuid.UUID) (*FieldDefinition, error)
	DeleteField(ctx context.Context, id uuid.UUID, scope ScopeFilter) error
}

// ValueFilter narrows stored value listings.
type ValueFilter struct {
	EntityID uuid.UUID
	FieldIDs []uuid.UUID
	Scope    ScopeFilter
}

// ValueWrite is a single field assignment inside a flush or bulk payload.
// Fields are addressed by internal name because downstream bulk endpoints do
// not accept definition ids.
type ValueWrite struct {
	FieldID   uuid.UUID
	FieldName string
	RawValue  string
}

// BulkTargets selects the records a bulk assignment applies to: either an
// explicit id list, or every record minus the excluded ids.
type BulkTargets struct {
	EntityIDs []uuid.UUID
	SelectAll bool
	Excluded  []uuid.UUID
}

// IsEmpty reports whether the target selection matches nothing.
func (t BulkTargets) IsEmpty() bool {
	return !t.SelectAll && len(t.EntityIDs) == 0
}

// ValueRepository persists per-record field values. UpdateValues accepts a
// multi-entity target list even when flushing a single record.
type ValueRepository interface {
	ListValues(ctx context.Context, filter ValueFilter) ([]FieldValue, error)
	UpdateValues(ctx context.Context, entityIDs []uuid.UUID, writes []ValueWrite, scope ScopeFilter, actor uuid.UUID) error
	BulkAssign(ctx context.Context, targets BulkTargets, writes []ValueWrite, scope ScopeFilter, actor uuid.UUID) error
}

// SettingsRepository stores the ordering rule documents, keyed per user and
// consumer context. Implementations must merge sibling groups under the same
// key rather than overwriting the whole document.
type SettingsRepository interface {
	GetRuleSet(ctx context.Context, userID uuid.UUID, scope ScopeFilter, context string) (*OrderRuleSet, error)
	SaveRuleSet(ctx context.Context, userID uuid.UUID, scope ScopeFilter, set OrderRuleSet) (*OrderRuleSet, error)
	DeleteRuleSet(ctx context.Context, userID uuid.UUID, scope ScopeFilter, context string) error
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("go-fields: actor reference required")
	// ErrFieldIDRequired indicates a field identifier was omitted.
	ErrFieldIDRequired = errors.New("go-fields: field id required")
	// ErrEntityIDRequired indicates an entity identifier was omitted.
	ErrEntityIDRequired = errors.New("go-fields: entity id required")
	// ErrFieldNotFound indicates the requested field definition does not exist.
	ErrFieldNotFound = errors.New("go-fields: field definition not found")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-fields: service not ready")
	// ErrMissingSchemaRepository occurs when no schema repository was supplied.
	ErrMissingSchemaRepository = errors.New("go-fields: missing schema repository")
	// ErrMissingValueRepository occurs when no value repository was supplied.
	ErrMissingValueRepository = errors.New("go-fields: missing value repository")
	// ErrMissingSettingsRepository occurs when ordering lacks a settings backend.
	ErrMissingSettingsRepository = errors.New("go-fields: missing settings repository")
	// ErrMissingPermissionProvider occurs when access checks lack a permission source.
	ErrMissingPermissionProvider = errors.New("go-fields: missing permission provider")
)
