package schema

import (
	"time"

	"github.com/goliatone/go-fields/codec"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the field_definitions row. Options are stored as a JSON text
// payload; malformed payloads decode to an empty list (see codec.DecodeOptions)
// so a corrupt row degrades to a disabled picker instead of an error.
type Record struct {
	bun.BaseModel `bun:"table:field_definitions"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	InternalName string    `bun:"internal_name"`
	FriendlyName string    `bun:"friendly_name"`
	FieldType    string    `bun:"field_type"`
	Options      string    `bun:"options"`
	SyncLead     bool      `bun:"sync_lead"`
	TenantID     uuid.UUID `bun:"tenant_id,type:uuid"`
	OrgID        uuid.UUID `bun:"org_id,type:uuid"`
	CreatedAt    time.Time `bun:"created_at"`
	CreatedBy    uuid.UUID `bun:"created_by,type:uuid"`
	UpdatedAt    time.Time `bun:"updated_at"`
	UpdatedBy    uuid.UUID `bun:"updated_by,type:uuid"`
}

func toDomain(record *Record) types.FieldDefinition {
	if record == nil {
		return types.FieldDefinition{}
	}
	return types.FieldDefinition{
		ID:           record.ID,
		InternalName: record.InternalName,
		FriendlyName: record.FriendlyName,
		FieldType:    types.FieldType(record.FieldType),
		Options:      codec.DecodeOptions([]byte(record.Options)),
		SyncLead:     record.SyncLead,
		Scope: types.ScopeFilter{
			TenantID: record.TenantID,
			OrgID:    record.OrgID,
		},
		CreatedAt: record.CreatedAt,
		CreatedBy: record.CreatedBy,
		UpdatedAt: record.UpdatedAt,
		UpdatedBy: record.UpdatedBy,
	}
}

func toDomainPtr(record *Record) *types.FieldDefinition {
	def := toDomain(record)
	return &def
}

func fromDomain(def types.FieldDefinition) (*Record, error) {
	raw, err := codec.EncodeOptions(def.Options)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:           def.ID,
		InternalName: def.InternalName,
		FriendlyName: def.FriendlyName,
		FieldType:    string(def.FieldType),
		Options:      string(raw),
		SyncLead:     def.SyncLead,
		TenantID:     def.Scope.TenantID,
		OrgID:        def.Scope.OrgID,
		CreatedAt:    def.CreatedAt,
		CreatedBy:    def.CreatedBy,
		UpdatedAt:    def.UpdatedAt,
		UpdatedBy:    def.UpdatedBy,
	}, nil
}
