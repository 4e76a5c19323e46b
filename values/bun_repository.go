package values

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-fields/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrSelectAllUnsupported indicates a select-all bulk target without an
// entity directory to enumerate the record universe.
var ErrSelectAllUnsupported = errors.New("go-fields: select-all targets require an entity directory")

// EntityDirectory enumerates the record universe for select-all bulk targets.
// The value store only knows about entities that already carry values, so the
// host supplies the authoritative listing.
type EntityDirectory interface {
	ListEntityIDs(ctx context.Context, scope types.ScopeFilter, excluded []uuid.UUID) ([]uuid.UUID, error)
}

// EntityDirectoryFunc adapts bare functions to EntityDirectory.
type EntityDirectoryFunc func(ctx context.Context, scope types.ScopeFilter, excluded []uuid.UUID) ([]uuid.UUID, error)

// ListEntityIDs implements EntityDirectory.
func (f EntityDirectoryFunc) ListEntityIDs(ctx context.Context, scope types.ScopeFilter, excluded []uuid.UUID) ([]uuid.UUID, error) {
	return f(ctx, scope, excluded)
}

// RepositoryConfig wires dependencies for the Bun-backed value store.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Directory  EntityDirectory
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type valueStore interface {
	repository.Repository[*Record]
}

// Repository implements types.ValueRepository.
type Repository struct {
	valueStore
	directory EntityDirectory
	clock     types.Clock
	idGen     types.IDGenerator
}

// NewRepository constructs the default value repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("values: db or repository required")
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
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}

	return &Repository{
		valueStore: repo,
		directory:  cfg.Directory,
		clock:      clock,
		idGen:      idGen,
	}, nil
}

var _ types.ValueRepository = (*Repository)(nil)

// ListValues fetches stored values matching the filter.
func (r *Repository) ListValues(ctx context.Context, filter types.ValueFilter) ([]types.FieldValue, error) {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("tenant_id = ?", filter.Scope.TenantID).
				Where("org_id = ?", filter.Scope.OrgID).
				OrderExpr("field_id ASC")
			if filter.EntityID != uuid.Nil {
				q = q.Where("entity_id = ?", filter.EntityID)
			}
			if len(filter.FieldIDs) > 0 {
				q = q.Where("field_id IN (?)", bun.In(filter.FieldIDs))
			}
			return q
		},
	}
	rows, _, err := r.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	result := make([]types.FieldValue, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomain(row))
	}
	return result, nil
}

// UpdateValues upserts each write for every target entity. The signature
// accepts a multi-entity list even for single-entity flushes; rows are
// created on first write and overwritten afterwards, last write wins with no
// version check.
func (r *Repository) UpdateValues(ctx context.Context, entityIDs []uuid.UUID, writes []types.ValueWrite, scope types.ScopeFilter, actor uuid.UUID) error {
	if len(entityIDs) == 0 || len(writes) == 0 {
		return nil
	}
	now := r.clock.Now()
	for _, entityID := range entityIDs {
		for _, write := range writes {
			if err := r.upsert(ctx, entityID, write, scope, actor, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// BulkAssign applies the writes to the selected targets in one operation.
// Select-all targets resolve through the entity directory.
func (r *Repository) BulkAssign(ctx context.Context, targets types.BulkTargets, writes []types.ValueWrite, scope types.ScopeFilter, actor uuid.UUID) error {
	if targets.IsEmpty() || len(writes) == 0 {
		return nil
	}
	entityIDs := targets.EntityIDs
	if targets.SelectAll {
		if r.directory == nil {
			return ErrSelectAllUnsupported
		}
		resolved, err := r.directory.ListEntityIDs(ctx, scope, targets.Excluded)
		if err != nil {
			return err
		}
		entityIDs = resolved
	}
	return r.UpdateValues(ctx, entityIDs, writes, scope, actor)
}

func (r *Repository) upsert(ctx context.Context, entityID uuid.UUID, write types.ValueWrite, scope types.ScopeFilter, actor uuid.UUID, now time.Time) error {
	existing, err := r.findExisting(ctx, entityID, write.FieldID, scope)
	switch {
	case err == nil && existing != nil:
		existing.RawValue = write.RawValue
		existing.UpdatedAt = now
		existing.UpdatedBy = actor
		_, err := r.Update(ctx, existing)
		return err
	case repository.IsRecordNotFound(err):
		record := &Record{
			ID:        r.idGen.UUID(),
			FieldID:   write.FieldID,
			EntityID:  entityID,
			RawValue:  write.RawValue,
			TenantID:  scope.TenantID,
			OrgID:     scope.OrgID,
			CreatedAt: now,
			UpdatedAt: now,
			UpdatedBy: actor,
		}
		_, err := r.Create(ctx, record)
		return err
	default:
		return err
	}
}

func (r *Repository) findExisting(ctx context.Context, entityID, fieldID uuid.UUID, scope types.ScopeFilter) (*Record, error) {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("entity_id = ?", entityID).
				Where("field_id = ?", fieldID).
				Where("tenant_id = ?", scope.TenantID).
				Where("org_id = ?", scope.OrgID).
				Limit(1)
		},
	}
	rows, _, err := r.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewRecordNotFound()
	}
	return rows[0], nil
}
