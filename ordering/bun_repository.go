package ordering

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-fields/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires dependencies for the Bun-backed settings store.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type settingsStore interface {
	repository.Repository[*Record]
}

// Repository implements types.SettingsRepository. One row per
// (user, tenant, org, context); the synced and unsynced groups live inside a
// single document and merge non-destructively on save.
type Repository struct {
	settingsStore
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the default settings repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("ordering: db or repository required")
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
		settingsStore: repo,
		clock:         clock,
		idGen:         idGen,
	}, nil
}

var _ types.SettingsRepository = (*Repository)(nil)

// GetRuleSet loads the ordering document for the user and context. A missing
// row or corrupt blob yields an empty rule set, never an error the caller has
// to branch on.
func (r *Repository) GetRuleSet(ctx context.Context, userID uuid.UUID, scope types.ScopeFilter, contextKey string) (*types.OrderRuleSet, error) {
	contextKey = strings.TrimSpace(contextKey)
	if contextKey == "" {
		return nil, errors.New("ordering: context key required")
	}
	existing, err := r.findExisting(ctx, userID, scope, contextKey)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return &types.OrderRuleSet{Context: contextKey, Version: DocumentVersion}, nil
		}
		return nil, err
	}
	set := toRuleSet(existing)
	return &set, nil
}

// SaveRuleSet persists the rule set, merging into the existing document: a
// group left nil on the input keeps whatever the stored document already has,
// so writing the synced order never clobbers the unsynced one.
func (r *Repository) SaveRuleSet(ctx context.Context, userID uuid.UUID, scope types.ScopeFilter, set types.OrderRuleSet) (*types.OrderRuleSet, error) {
	contextKey := strings.TrimSpace(set.Context)
	if contextKey == "" {
		return nil, errors.New("ordering: context key required")
	}
	if userID == uuid.Nil {
		return nil, errors.New("ordering: user id required")
	}
	now := r.clock.Now()

	existing, err := r.findExisting(ctx, userID, scope, contextKey)
	switch {
	case err == nil && existing != nil:
		doc := decodeDocument(existing.Document)
		if set.Synced != nil {
			doc.Synced = set.Synced
		}
		if set.Unsynced != nil {
			doc.Unsynced = set.Unsynced
		}
		encoded, err := encodeDocument(doc)
		if err != nil {
			return nil, err
		}
		existing.Document = encoded
		existing.Version = existing.Version + 1
		existing.UpdatedAt = now
		updated, err := r.Update(ctx, existing)
		if err != nil {
			return nil, err
		}
		merged := toRuleSet(updated)
		return &merged, nil
	case repository.IsRecordNotFound(err):
		encoded, err := encodeDocument(document{Synced: set.Synced, Unsynced: set.Unsynced})
		if err != nil {
			return nil, err
		}
		record := &Record{
			ID:        r.idGen.UUID(),
			UserID:    userID,
			TenantID:  scope.TenantID,
			OrgID:     scope.OrgID,
			Context:   contextKey,
			Document:  encoded,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created, err := r.Create(ctx, record)
		if err != nil {
			return nil, err
		}
		saved := toRuleSet(created)
		return &saved, nil
	default:
		return nil, err
	}
}

// DeleteRuleSet removes the ordering document for the user and context.
func (r *Repository) DeleteRuleSet(ctx context.Context, userID uuid.UUID, scope types.ScopeFilter, contextKey string) error {
	existing, err := r.findExisting(ctx, userID, scope, strings.TrimSpace(contextKey))
	if err != nil {
		return err
	}
	return r.Delete(ctx, existing)
}

func (r *Repository) findExisting(ctx context.Context, userID uuid.UUID, scope types.ScopeFilter, contextKey string) (*Record, error) {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("user_id = ?", userID).
				Where("tenant_id = ?", scope.TenantID).
				Where("org_id = ?", scope.OrgID).
				Where("context = ?", contextKey).
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
