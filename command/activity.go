package command

import (
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
)

const (
	objectTypeField    = "field_definition"
	objectTypeValue    = "field_value"
	objectTypeOrdering = "field_ordering"
)

func buildFieldActivityRecord(verb string, def *types.FieldDefinition, actor types.ActorRef, scope types.ScopeFilter, clock types.Clock) types.ActivityRecord {
	record := types.ActivityRecord{
		ActorID:    actor.ID,
		Verb:       verb,
		ObjectType: objectTypeField,
		TenantID:   scope.TenantID,
		OrgID:      scope.OrgID,
		OccurredAt: now(clock),
	}
	if def != nil {
		record.ObjectID = def.ID.String()
		record.Data = map[string]any{
			"internal_name": def.InternalName,
			"friendly_name": def.FriendlyName,
			"field_type":    string(def.FieldType),
			"sync_lead":     def.SyncLead,
		}
	}
	return record
}

func buildValueActivityRecord(verb string, entityID uuid.UUID, writes []types.ValueWrite, actor types.ActorRef, scope types.ScopeFilter, clock types.Clock) types.ActivityRecord {
	names := make([]string, 0, len(writes))
	values := make(map[string]any, len(writes))
	for _, write := range writes {
		names = append(names, write.FieldName)
		values[write.FieldName] = write.RawValue
	}
	return types.ActivityRecord{
		ActorID:    actor.ID,
		Verb:       verb,
		ObjectType: objectTypeValue,
		ObjectID:   entityID.String(),
		TenantID:   scope.TenantID,
		OrgID:      scope.OrgID,
		Data: map[string]any{
			"field_names": names,
			"values":      values,
		},
		OccurredAt: now(clock),
	}
}

func buildOrderActivityRecord(verb string, userID uuid.UUID, contextKey string, group types.OrderGroup, actor types.ActorRef, scope types.ScopeFilter, clock types.Clock) types.ActivityRecord {
	return types.ActivityRecord{
		ActorID:    actor.ID,
		Verb:       verb,
		ObjectType: objectTypeOrdering,
		ObjectID:   userID.String() + "/" + contextKey,
		TenantID:   scope.TenantID,
		OrgID:      scope.OrgID,
		Data: map[string]any{
			"context": contextKey,
			"group":   string(group),
		},
		OccurredAt: now(clock),
	}
}
