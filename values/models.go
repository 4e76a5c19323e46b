package values

import (
	"time"

	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the field_values row: one row per (entity, field), created on
// first write and overwritten thereafter. No history is kept.
type Record struct {
	bun.BaseModel `bun:"table:field_values"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	FieldID   uuid.UUID `bun:"field_id,type:uuid"`
	EntityID  uuid.UUID `bun:"entity_id,type:uuid"`
	RawValue  string    `bun:"raw_value"`
	TenantID  uuid.UUID `bun:"tenant_id,type:uuid"`
	OrgID     uuid.UUID `bun:"org_id,type:uuid"`
	CreatedAt time.Time `bun:"created_at"`
	UpdatedAt time.Time `bun:"updated_at"`
	UpdatedBy uuid.UUID `bun:"updated_by,type:uuid"`
}

func toDomain(record *Record) types.FieldValue {
	if record == nil {
		return types.FieldValue{}
	}
	return types.FieldValue{
		ID:       record.ID,
		FieldID:  record.FieldID,
		EntityID: record.EntityID,
		RawValue: record.RawValue,
		Scope: types.ScopeFilter{
			TenantID: record.TenantID,
			OrgID:    record.OrgID,
		},
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		UpdatedBy: record.UpdatedBy,
	}
}
