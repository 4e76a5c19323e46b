package command

import (
	"errors"

	"github.com/goliatone/go-fields/pkg/types"
)

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrFieldIDRequired occurs when a mutation omits the field identifier.
	ErrFieldIDRequired = types.ErrFieldIDRequired
	// ErrFieldNameRequired occurs when a field creation omits the display name.
	ErrFieldNameRequired = errors.New("go-fields: field name required")
	// ErrFieldTypeRequired occurs when a field creation omits the type.
	ErrFieldTypeRequired = errors.New("go-fields: field type required")
	// ErrFieldTypeInvalid indicates a type outside the supported set.
	ErrFieldTypeInvalid = errors.New("go-fields: field type invalid")
	// ErrOrderContextRequired occurs when ordering commands omit the consumer context key.
	ErrOrderContextRequired = errors.New("go-fields: order context required")
	// ErrOrderUserRequired occurs when ordering commands omit the owning user.
	ErrOrderUserRequired = errors.New("go-fields: order user id required")
	// ErrBulkTargetsRequired occurs when a bulk assignment selects no records.
	ErrBulkTargetsRequired = errors.New("go-fields: bulk targets required")
	// ErrBulkWritesRequired occurs when a bulk assignment carries no field writes.
	ErrBulkWritesRequired = errors.New("go-fields: bulk writes required")
	// ErrBulkAssignDisabled indicates bulk assignment is disabled via feature gate.
	ErrBulkAssignDisabled = errors.New("go-fields: bulk assign disabled")
	// ErrSchemaAdminDisabled indicates schema mutations are disabled via feature gate.
	ErrSchemaAdminDisabled = errors.New("go-fields: schema admin disabled")
	// ErrValueWritesRequired occurs when a value update carries no writes.
	ErrValueWritesRequired = errors.New("go-fields: value writes required")
	// ErrEntityIDRequired occurs when value commands omit the target record.
	ErrEntityIDRequired = types.ErrEntityIDRequired
)
