// Package audit persists the activity trail for schema, value, ordering, and
// bulk operations. Record payloads pass through a masker before storage so
// raw field values never land in audit rows unredacted.
package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in field_activity.
type LogEntry struct {
	bun.BaseModel `bun:"table:field_activity"`

	ID         uuid.UUID      `bun:",pk,type:uuid"`
	ActorID    uuid.UUID      `bun:"actor_id,type:uuid"`
	TenantID   uuid.UUID      `bun:"tenant_id,type:uuid"`
	OrgID      uuid.UUID      `bun:"org_id,type:uuid"`
	Verb       string         `bun:"verb"`
	ObjectType string         `bun:"object_type"`
	ObjectID   string         `bun:"object_id"`
	Data       map[string]any `bun:"data,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at"`
}
