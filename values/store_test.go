package values

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-fields/access"
	"github.com/goliatone/go-fields/codec"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeValueRepo struct {
	mu      sync.Mutex
	calls   int
	writes  [][]types.ValueWrite
	stored  map[uuid.UUID]string
	failing bool

	// entered/release gate UpdateValues so tests can interleave edits with an
	// in-flight persistence call.
	entered chan struct{}
	release chan struct{}
}

func newFakeValueRepo() *fakeValueRepo {
	return &fakeValueRepo{stored: make(map[uuid.UUID]string)}
}

func (f *fakeValueRepo) ListValues(context.Context, types.ValueFilter) ([]types.FieldValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.FieldValue, 0, len(f.stored))
	for fieldID, raw := range f.stored {
		out = append(out, types.FieldValue{FieldID: fieldID, RawValue: raw})
	}
	return out, nil
}

func (f *fakeValueRepo) UpdateValues(_ context.Context, _ []uuid.UUID, writes []types.ValueWrite, _ types.ScopeFilter, _ uuid.UUID) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing {
		return errors.New("backend unavailable")
	}
	f.writes = append(f.writes, writes)
	for _, write := range writes {
		f.stored[write.FieldID] = write.RawValue
	}
	return nil
}

func (f *fakeValueRepo) BulkAssign(ctx context.Context, targets types.BulkTargets, writes []types.ValueWrite, scope types.ScopeFilter, actor uuid.UUID) error {
	return f.UpdateValues(ctx, targets.EntityIDs, writes, scope, actor)
}

func (f *fakeValueRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeValueRepo) raw(fieldID uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[fieldID]
}

func textField(name string) types.FieldDefinition {
	return types.FieldDefinition{ID: uuid.New(), InternalName: name, FieldType: types.FieldTypeText}
}

func choiceField(name string, labels ...string) types.FieldDefinition {
	options := make([]types.Option, 0, len(labels))
	for _, label := range labels {
		options = append(options, types.Option{ID: uuid.New(), Label: label})
	}
	return types.FieldDefinition{ID: uuid.New(), InternalName: name, FieldType: types.FieldTypeMultiChoice, Options: options}
}

func newStore(t *testing.T, repo types.ValueRepository, defs []types.FieldDefinition, window time.Duration) *Store {
	t.Helper()
	store, err := NewStore(StoreConfig{
		EntityID:       uuid.New(),
		Actor:          types.ActorRef{ID: uuid.New(), Type: "user"},
		Repository:     repo,
		Definitions:    defs,
		DebounceWindow: window,
	})
	require.NoError(t, err)
	return store
}

func TestSetValueDebounceCoalescesRapidEdits(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := textField("priority")
	store := newStore(t, repo, []types.FieldDefinition{field}, 40*time.Millisecond)

	for _, text := range []string{"l", "lo", "low"} {
		err := store.SetValue(ctx, field.ID, codec.Value{Text: text}, SetModeDefault)
		require.NoError(t, err)
	}
	require.Equal(t, 0, repo.callCount())

	require.Eventually(t, func() bool {
		return repo.callCount() == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "low", repo.raw(field.ID))
	require.False(t, store.Pending())
}

func TestSetValueSwitchModeFlushesImmediately(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := types.FieldDefinition{ID: uuid.New(), InternalName: "active", FieldType: types.FieldTypeBoolean}
	store := newStore(t, repo, []types.FieldDefinition{field}, time.Hour)

	err := store.SetValue(ctx, field.ID, codec.Value{Bool: true}, SetModeSwitch)
	require.NoError(t, err)
	require.Equal(t, 1, repo.callCount())
	require.Equal(t, "true", repo.raw(field.ID))
}

func TestSetValueSameValueDoesNotArmTimer(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := textField("priority")
	store := newStore(t, repo, []types.FieldDefinition{field}, 20*time.Millisecond)

	require.NoError(t, store.SetValue(ctx, field.ID, codec.Value{Text: "low"}, SetModeSwitch))
	require.Equal(t, 1, repo.callCount())

	// Re-assigning the identical value is a no-op.
	require.NoError(t, store.SetValue(ctx, field.ID, codec.Value{Text: "low"}, SetModeDefault))
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, 1, repo.callCount())
}

func TestFlushExcludesEmptyValues(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	filled := textField("priority")
	cleared := textField("notes")
	store := newStore(t, repo, []types.FieldDefinition{filled, cleared}, time.Hour)

	require.NoError(t, store.SetValue(ctx, filled.ID, codec.Value{Text: "high"}, SetModeDefault))
	require.NoError(t, store.SetValue(ctx, cleared.ID, codec.Value{Text: "draft"}, SetModeDefault))
	require.NoError(t, store.SetValue(ctx, cleared.ID, codec.Value{Text: ""}, SetModeDefault))

	require.NoError(t, store.Flush(ctx))
	require.Equal(t, 1, repo.callCount())
	require.Len(t, repo.writes[0], 1)
	require.Equal(t, filled.ID, repo.writes[0][0].FieldID)
}

func TestFlushRetainsEditMadeDuringRepositoryCall(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := textField("priority")
	store := newStore(t, repo, []types.FieldDefinition{field}, time.Hour)

	require.NoError(t, store.SetValue(ctx, field.ID, codec.Value{Text: "old"}, SetModeDefault))

	repo.entered = make(chan struct{}, 2)
	repo.release = make(chan struct{})

	flushed := make(chan error, 1)
	go func() {
		flushed <- store.Flush(ctx)
	}()

	// While the repository call is in flight, the user keeps typing.
	<-repo.entered
	require.NoError(t, store.SetValue(ctx, field.ID, codec.Value{Text: "new"}, SetModeDefault))
	close(repo.release)
	require.NoError(t, <-flushed)

	// The backend saw the snapshot, but the newer edit is still pending.
	require.Equal(t, "old", repo.raw(field.ID))
	require.True(t, store.Pending())

	require.NoError(t, store.Flush(ctx))
	require.Equal(t, "new", repo.raw(field.ID))
	require.False(t, store.Pending())
}

func TestSetValueSpacedEditsFlushSeparately(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := textField("priority")
	store := newStore(t, repo, []types.FieldDefinition{field}, 30*time.Millisecond)

	require.NoError(t, store.SetValue(ctx, field.ID, codec.Value{Text: "low"}, SetModeDefault))
	require.Eventually(t, func() bool {
		return repo.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// A second edit after the quiet window elapsed is a separate write.
	require.NoError(t, store.SetValue(ctx, field.ID, codec.Value{Text: "high"}, SetModeDefault))
	require.Eventually(t, func() bool {
		return repo.callCount() == 2
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "high", repo.raw(field.ID))
	require.False(t, store.Pending())
}

func TestFlushFailureRetainsChangesForRetry(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := textField("priority")
	store := newStore(t, repo, []types.FieldDefinition{field}, time.Hour)

	require.NoError(t, store.SetValue(ctx, field.ID, codec.Value{Text: "high"}, SetModeDefault))

	repo.failing = true
	require.Error(t, store.Flush(ctx))
	require.True(t, store.Pending())

	repo.failing = false
	require.NoError(t, store.Flush(ctx))
	require.False(t, store.Pending())
	require.Equal(t, "high", repo.raw(field.ID))
}

func TestMultiChoiceAddRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := choiceField("tags", "Red", "Blue", "Green")
	store := newStore(t, repo, []types.FieldDefinition{field}, time.Hour)

	require.NoError(t, store.AddMultiChoiceEntry(ctx, field.ID, "Red"))
	require.NoError(t, store.AddMultiChoiceEntry(ctx, field.ID, "Blue"))
	require.Equal(t, "Blue,Red", repo.raw(field.ID))

	require.NoError(t, store.RemoveMultiChoiceEntry(ctx, field.ID, "Red"))
	require.Equal(t, "Blue", repo.raw(field.ID))

	// Removing the last label still writes; the debounce flush path would
	// skip an empty value, the direct removal path does not.
	require.NoError(t, store.RemoveMultiChoiceEntry(ctx, field.ID, "Blue"))
	require.Equal(t, "", repo.raw(field.ID))
}

func TestRemoveMultiChoiceEntryAbsentLabelIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := choiceField("tags", "Red", "Blue")
	store := newStore(t, repo, []types.FieldDefinition{field}, time.Hour)

	require.NoError(t, store.AddMultiChoiceEntry(ctx, field.ID, "Red"))
	calls := repo.callCount()

	require.NoError(t, store.RemoveMultiChoiceEntry(ctx, field.ID, "Green"))
	require.Equal(t, calls, repo.callCount())
	require.Equal(t, "Red", repo.raw(field.ID))
}

func TestAddMultiChoiceEntryRejectsUnknownLabel(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := choiceField("tags", "Red")
	store := newStore(t, repo, []types.FieldDefinition{field}, time.Hour)

	// Labels outside the option set are dropped by the codec, so the raw
	// value never changes and no write is issued.
	require.NoError(t, store.AddMultiChoiceEntry(ctx, field.ID, "Purple"))
	require.Equal(t, 0, repo.callCount())
}

func TestCloseFlushesPendingEdits(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := textField("priority")
	store := newStore(t, repo, []types.FieldDefinition{field}, time.Hour)

	require.NoError(t, store.SetValue(ctx, field.ID, codec.Value{Text: "urgent"}, SetModeDefault))
	require.NoError(t, store.Close(ctx))
	require.Equal(t, "urgent", repo.raw(field.ID))

	err := store.SetValue(ctx, field.ID, codec.Value{Text: "late"}, SetModeDefault)
	require.ErrorIs(t, err, ErrStoreClosed)
}

func TestGateBlocksEditAndHidesValue(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	visible := textField("priority")
	hidden := textField("margin")
	gate := access.NewGate(access.GateConfig{Permissions: types.PermissionMap{
		"view:" + hidden.ID.String(): false,
		"edit:" + hidden.ID.String(): false,
	}})

	store, err := NewStore(StoreConfig{
		EntityID:    uuid.New(),
		Actor:       types.ActorRef{ID: uuid.New()},
		Repository:  repo,
		Definitions: []types.FieldDefinition{visible, hidden},
		Gate:        &gate,
	})
	require.NoError(t, err)

	err = store.SetValue(ctx, hidden.ID, codec.Value{Text: "42"}, SetModeSwitch)
	require.ErrorIs(t, err, types.ErrUnauthorizedScope)

	_, ok := store.Value(hidden.ID)
	require.False(t, ok)
	_, ok = store.Value(visible.ID)
	require.True(t, ok)
}

func TestLoadHydratesStoredValues(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	field := choiceField("tags", "Red")
	repo.stored[field.ID] = "Blue,Red"

	store := newStore(t, repo, []types.FieldDefinition{field}, time.Hour)
	require.NoError(t, store.Load(ctx))

	// Stale labels survive in raw form and are filtered on decode.
	raw, ok := store.RawValue(field.ID)
	require.True(t, ok)
	require.Equal(t, "Blue,Red", raw)

	decoded, ok := store.Value(field.ID)
	require.True(t, ok)
	require.Equal(t, []string{"Red"}, decoded.Labels)
}

func TestFlushPerFieldKeepsFailedFieldPending(t *testing.T) {
	ctx := context.Background()
	repo := newFakeValueRepo()
	first := textField("priority")
	second := textField("notes")

	store, err := NewStore(StoreConfig{
		EntityID:      uuid.New(),
		Actor:         types.ActorRef{ID: uuid.New()},
		Repository:    repo,
		Definitions:   []types.FieldDefinition{first, second},
		FlushPerField: true,
	})
	require.NoError(t, err)

	require.NoError(t, store.SetValue(ctx, first.ID, codec.Value{Text: "high"}, SetModeDefault))
	require.NoError(t, store.SetValue(ctx, second.ID, codec.Value{Text: "call back"}, SetModeDefault))

	require.NoError(t, store.Flush(ctx))
	require.Equal(t, 2, repo.callCount())
	require.False(t, store.Pending())
}
