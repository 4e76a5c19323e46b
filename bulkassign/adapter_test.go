package bulkassign

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-fields/access"
	"github.com/goliatone/go-fields/codec"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeBulkRepo struct {
	mu      sync.Mutex
	calls   int
	targets types.BulkTargets
	writes  []types.ValueWrite
}

func (f *fakeBulkRepo) ListValues(context.Context, types.ValueFilter) ([]types.FieldValue, error) {
	return nil, nil
}

func (f *fakeBulkRepo) UpdateValues(context.Context, []uuid.UUID, []types.ValueWrite, types.ScopeFilter, uuid.UUID) error {
	return nil
}

func (f *fakeBulkRepo) BulkAssign(_ context.Context, targets types.BulkTargets, writes []types.ValueWrite, _ types.ScopeFilter, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.targets = targets
	f.writes = writes
	return nil
}

func TestCollectChangesSkipsEmptyAndUnstagedFields(t *testing.T) {
	adapter, err := NewAdapter(AdapterConfig{Repository: &fakeBulkRepo{}})
	require.NoError(t, err)

	priority := types.FieldDefinition{ID: uuid.New(), InternalName: "priority", FieldType: types.FieldTypeText}
	notes := types.FieldDefinition{ID: uuid.New(), InternalName: "notes", FieldType: types.FieldTypeText}
	untouched := types.FieldDefinition{ID: uuid.New(), InternalName: "owner", FieldType: types.FieldTypeText}

	writes := adapter.CollectChanges(
		[]types.FieldDefinition{priority, notes, untouched},
		map[uuid.UUID]codec.Value{
			priority.ID: {Text: "high"},
			notes.ID:    {Text: ""},
		},
	)

	require.Len(t, writes, 1)
	require.Equal(t, "priority", writes[0].FieldName)
	require.Equal(t, "high", writes[0].RawValue)
}

func TestCollectChangesEncodesChoiceLabels(t *testing.T) {
	adapter, err := NewAdapter(AdapterConfig{Repository: &fakeBulkRepo{}})
	require.NoError(t, err)

	tags := types.FieldDefinition{
		ID:           uuid.New(),
		InternalName: "tags",
		FieldType:    types.FieldTypeMultiChoice,
		Options: []types.Option{
			{ID: uuid.New(), Label: "Red"},
			{ID: uuid.New(), Label: "Blue"},
		},
	}

	writes := adapter.CollectChanges(
		[]types.FieldDefinition{tags},
		map[uuid.UUID]codec.Value{
			// Stale label, duplicate, and unsorted input normalize on encode.
			tags.ID: {Labels: []string{"Red", "Purple", "Blue", "Red"}},
		},
	)

	require.Len(t, writes, 1)
	require.Equal(t, "Blue,Red", writes[0].RawValue)
}

func TestCollectChangesRespectsGate(t *testing.T) {
	locked := types.FieldDefinition{ID: uuid.New(), InternalName: "margin", FieldType: types.FieldTypeText}
	open := types.FieldDefinition{ID: uuid.New(), InternalName: "priority", FieldType: types.FieldTypeText}
	gate := access.NewGate(access.GateConfig{Permissions: types.PermissionMap{
		"edit:" + locked.ID.String(): false,
	}})

	adapter, err := NewAdapter(AdapterConfig{Repository: &fakeBulkRepo{}, Gate: &gate})
	require.NoError(t, err)

	writes := adapter.CollectChanges(
		[]types.FieldDefinition{locked, open},
		map[uuid.UUID]codec.Value{
			locked.ID: {Text: "55"},
			open.ID:   {Text: "high"},
		},
	)
	require.Len(t, writes, 1)
	require.Equal(t, "priority", writes[0].FieldName)
}

func TestApplySubmitsSingleCall(t *testing.T) {
	repo := &fakeBulkRepo{}
	var event types.BulkAssignEvent
	adapter, err := NewAdapter(AdapterConfig{
		Repository: repo,
		Hooks: types.Hooks{
			AfterBulkAssign: func(_ context.Context, e types.BulkAssignEvent) { event = e },
		},
	})
	require.NoError(t, err)

	targets := types.BulkTargets{EntityIDs: []uuid.UUID{uuid.New(), uuid.New()}}
	writes := []types.ValueWrite{
		{FieldID: uuid.New(), FieldName: "priority", RawValue: "high"},
		{FieldID: uuid.New(), FieldName: "tags", RawValue: "Blue,Red"},
	}

	require.NoError(t, adapter.Apply(context.Background(), targets, writes, types.ScopeFilter{}, types.ActorRef{ID: uuid.New()}))
	require.Equal(t, 1, repo.calls)
	require.Equal(t, writes, repo.writes)
	require.Equal(t, []string{"priority", "tags"}, event.FieldNames)
	require.Equal(t, 2, event.TargetCount)
}

func TestApplyEmptySelectionIsNoop(t *testing.T) {
	repo := &fakeBulkRepo{}
	adapter, err := NewAdapter(AdapterConfig{Repository: repo})
	require.NoError(t, err)

	writes := []types.ValueWrite{{FieldID: uuid.New(), FieldName: "priority", RawValue: "high"}}
	require.NoError(t, adapter.Apply(context.Background(), types.BulkTargets{}, writes, types.ScopeFilter{}, types.ActorRef{}))
	require.Equal(t, 0, repo.calls)

	require.NoError(t, adapter.Apply(context.Background(), types.BulkTargets{EntityIDs: []uuid.UUID{uuid.New()}}, nil, types.ScopeFilter{}, types.ActorRef{}))
	require.Equal(t, 0, repo.calls)
}
