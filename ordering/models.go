package ordering

import (
	"encoding/json"
	"time"

	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DocumentVersion is the current on-disk format of the ordering document.
// Bump it when the rule shape changes so old blobs can be migrated instead of
// silently discarded.
const DocumentVersion = 1

// Record models the field_order_settings row. Document holds the serialized
// rule-set JSON for one consumer context.
type Record struct {
	bun.BaseModel `bun:"table:field_order_settings"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,type:uuid"`
	TenantID  uuid.UUID `bun:"tenant_id,type:uuid"`
	OrgID     uuid.UUID `bun:"org_id,type:uuid"`
	Context   string    `bun:"context"`
	Document  string    `bun:"document"`
	Version   int       `bun:"version"`
	CreatedAt time.Time `bun:"created_at"`
	UpdatedAt time.Time `bun:"updated_at"`
}

type document struct {
	Version  int               `json:"version"`
	Synced   []types.OrderRule `json:"synced,omitempty"`
	Unsynced []types.OrderRule `json:"unsynced,omitempty"`
}

// decodeDocument parses a stored ordering blob. A corrupt or unparseable
// payload degrades to "no rules" so the UI falls back to schema order.
func decodeDocument(raw string) document {
	if raw == "" {
		return document{Version: DocumentVersion}
	}
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return document{Version: DocumentVersion}
	}
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	return doc
}

func encodeDocument(doc document) (string, error) {
	doc.Version = DocumentVersion
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func toRuleSet(record *Record) types.OrderRuleSet {
	if record == nil {
		return types.OrderRuleSet{Version: DocumentVersion}
	}
	doc := decodeDocument(record.Document)
	return types.OrderRuleSet{
		Context:  record.Context,
		Synced:   doc.Synced,
		Unsynced: doc.Unsynced,
		Version:  doc.Version,
	}
}
