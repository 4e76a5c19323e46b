package schema

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-fields/codec"
	"github.com/goliatone/go-fields/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrInvalidFieldName indicates a friendly name failed validation.
	ErrInvalidFieldName = errors.New("go-fields: field name must contain only letters, digits, and spaces")
	// ErrInvalidFieldType indicates an unsupported field type.
	ErrInvalidFieldType = errors.New("go-fields: unsupported field type")
)

// RepositoryConfig wires dependencies for the Bun-backed schema store.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
	TypePolicy types.TypeChangePolicy
}

type schemaStore interface {
	repository.Repository[*Record]
}

// Repository implements types.SchemaRepository over a Bun store.
type Repository struct {
	schemaStore
	clock      types.Clock
	idGen      types.IDGenerator
	typePolicy types.TypeChangePolicy
}

// NewRepository constructs the default schema repository.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("schema: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	repo = decorateRepository(repo, applyRepositoryOptions(options))
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	typePolicy := cfg.TypePolicy
	if typePolicy == nil {
		typePolicy = types.DefaultTypeChangePolicy()
	}

	return &Repository{
		schemaStore: repo,
		clock:       clock,
		idGen:       idGen,
		typePolicy:  typePolicy,
	}, nil
}

var _ types.SchemaRepository = (*Repository)(nil)

// ListFields fetches field definitions matching the filter in creation order.
func (r *Repository) ListFields(ctx context.Context, filter types.SchemaFilter) ([]types.FieldDefinition, error) {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = scopeQuery(q, filter.Scope).OrderExpr("created_at ASC, id ASC")
			if len(filter.FieldIDs) > 0 {
				q = q.Where("id IN (?)", bun.In(filter.FieldIDs))
			}
			if filter.SyncLead != nil {
				q = q.Where("sync_lead = ?", *filter.SyncLead)
			}
			if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
				q = q.Where("lower(friendly_name) LIKE ?", "%"+strings.ToLower(keyword)+"%")
			}
			if filter.Pagination.Limit > 0 {
				q = q.Limit(filter.Pagination.Limit).Offset(filter.Pagination.Offset)
			}
			return q
		},
	}

	rows, _, err := r.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	result := make([]types.FieldDefinition, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomain(row))
	}
	return result, nil
}

// GetField fetches a single definition by id within the scope.
func (r *Repository) GetField(ctx context.Context, id uuid.UUID, scope types.ScopeFilter) (*types.FieldDefinition, error) {
	record, err := r.findByID(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	return toDomainPtr(record), nil
}

// CreateField validates and inserts a new definition. The friendly name must
// pass codec.ValidateName; choice fields have options with empty labels
// stripped before persisting. An empty surviving option list still allows
// creation and degrades to an unusable picker.
func (r *Repository) CreateField(ctx context.Context, def types.FieldDefinition) (*types.FieldDefinition, error) {
	if !codec.ValidateName(def.FriendlyName) {
		return nil, ErrInvalidFieldName
	}
	if !def.FieldType.Valid() {
		return nil, ErrInvalidFieldType
	}
	now := r.clock.Now()
	def.Options = normalizeOptions(def.FieldType, def.Options, r.idGen)
	if def.ID == uuid.Nil {
		def.ID = r.idGen.UUID()
	}
	if strings.TrimSpace(def.InternalName) == "" {
		def.InternalName = deriveInternalName(def.FriendlyName)
	}
	def.CreatedAt = now
	def.UpdatedAt = now
	if def.CreatedBy == uuid.Nil {
		def.CreatedBy = def.UpdatedBy
	}

	payload, err := fromDomain(def)
	if err != nil {
		return nil, err
	}
	created, err := r.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	return toDomainPtr(created), nil
}

// UpdateField applies a partial update. InternalName is immutable and cannot
// be patched; field type changes go through the configured type change policy.
// Callers are expected to refresh dependent value displays afterwards; this
// store does not cascade.
func (r *Repository) UpdateField(ctx context.Context, id uuid.UUID, patch types.FieldPatch, scope types.ScopeFilter, actor uuid.UUID) (*types.FieldDefinition, error) {
	existing, err := r.findByID(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	def := toDomain(existing)

	if patch.FriendlyName != nil {
		if !codec.ValidateName(*patch.FriendlyName) {
			return nil, ErrInvalidFieldName
		}
		def.FriendlyName = *patch.FriendlyName
	}
	if patch.FieldType != nil && *patch.FieldType != def.FieldType {
		if !patch.FieldType.Valid() {
			return nil, ErrInvalidFieldType
		}
		if err := r.typePolicy.Validate(def.FieldType, *patch.FieldType); err != nil {
			return nil, err
		}
		def.FieldType = *patch.FieldType
	}
	if patch.Options != nil {
		def.Options = normalizeOptions(def.FieldType, patch.Options, r.idGen)
	}
	if patch.SyncLead != nil {
		def.SyncLead = *patch.SyncLead
	}
	def.UpdatedAt = r.clock.Now()
	def.UpdatedBy = actor

	payload, err := fromDomain(def)
	if err != nil {
		return nil, err
	}
	updated, err := r.Update(ctx, payload)
	if err != nil {
		return nil, err
	}
	return toDomainPtr(updated), nil
}

// DeleteField removes a definition. Stored values referencing the field are
// left in place; reads tolerate orphaned values by dropping them on decode.
func (r *Repository) DeleteField(ctx context.Context, id uuid.UUID, scope types.ScopeFilter) error {
	existing, err := r.findByID(ctx, id, scope)
	if err != nil {
		return err
	}
	return r.Delete(ctx, existing)
}

func (r *Repository) findByID(ctx context.Context, id uuid.UUID, scope types.ScopeFilter) (*Record, error) {
	if id == uuid.Nil {
		return nil, types.ErrFieldIDRequired
	}
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return scopeQuery(q.Where("id = ?", id), scope).Limit(1)
		},
	}
	rows, _, err := r.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrFieldNotFound
	}
	return rows[0], nil
}

func scopeQuery(q *bun.SelectQuery, scope types.ScopeFilter) *bun.SelectQuery {
	return q.Where("tenant_id = ?", scope.TenantID).Where("org_id = ?", scope.OrgID)
}

// normalizeOptions strips empty-label options, de-duplicates labels keeping
// the first occurrence, and assigns ids to new entries. Non-choice types
// carry no options.
func normalizeOptions(fieldType types.FieldType, options []types.Option, idGen types.IDGenerator) []types.Option {
	if !fieldType.IsChoice() || len(options) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(options))
	out := make([]types.Option, 0, len(options))
	for _, opt := range options {
		label := strings.TrimSpace(opt.Label)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		if opt.ID == uuid.Nil {
			opt.ID = idGen.UUID()
		}
		opt.Label = label
		out = append(out, opt)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func deriveInternalName(friendly string) string {
	sanitized := codec.SanitizeName(friendly)
	return strings.ToLower(strings.Join(strings.Fields(sanitized), "_"))
}
