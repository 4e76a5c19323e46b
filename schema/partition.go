package schema

import "github.com/goliatone/go-fields/pkg/types"

// SyncPartition groups field definitions by their SyncLead flag. The split is
// disjoint and total: every definition lands in exactly one group, keeping its
// original relative order.
type SyncPartition struct {
	Synced   []types.FieldDefinition
	Unsynced []types.FieldDefinition
}

// PartitionBySync splits definitions into the synced/unsynced display groups.
func PartitionBySync(defs []types.FieldDefinition) SyncPartition {
	var part SyncPartition
	for _, def := range defs {
		if def.SyncLead {
			part.Synced = append(part.Synced, def)
		} else {
			part.Unsynced = append(part.Unsynced, def)
		}
	}
	return part
}

// Group returns the partition member for the named order group.
func (p SyncPartition) Group(group types.OrderGroup) []types.FieldDefinition {
	if group == types.OrderGroupUnsynced {
		return p.Unsynced
	}
	return p.Synced
}
