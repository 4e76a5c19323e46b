package values

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-fields/access"
	"github.com/goliatone/go-fields/codec"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
)

// DefaultDebounceWindow is the quiet period an editing session waits after the
// last keystroke before persisting. Matches the UI typing cadence: long enough
// to coalesce rapid edits, short enough that values survive navigation.
const DefaultDebounceWindow = 700 * time.Millisecond

// SetMode selects the persistence path for a single assignment.
type SetMode string

const (
	// SetModeDefault buffers the edit and schedules a debounced flush.
	SetModeDefault SetMode = "default"
	// SetModeSwitch flushes immediately. Used for boolean toggles where the
	// interaction is a single click, not a typing stream.
	SetModeSwitch SetMode = "switch"
	// SetModeMultiChoice flushes immediately after a choice selection.
	SetModeMultiChoice SetMode = "multi_choice"
)

// ErrStoreClosed indicates a write against a closed editing session.
var ErrStoreClosed = errors.New("go-fields: value store closed")

// StoreConfig wires one editing session for a single entity.
type StoreConfig struct {
	EntityID    uuid.UUID
	Scope       types.ScopeFilter
	Actor       types.ActorRef
	Repository  types.ValueRepository
	Definitions []types.FieldDefinition
	// Gate filters edits. Nil means no access filtering.
	Gate *access.Gate
	// DebounceWindow overrides DefaultDebounceWindow. Zero keeps the default.
	DebounceWindow time.Duration
	// FlushPerField issues one repository call per changed field instead of a
	// single batched call. A failed field keeps its changed flag while the
	// rest of the batch lands.
	FlushPerField bool
	Clock         types.Clock
	Logger        types.Logger
	Hooks         types.Hooks
}

type fieldState struct {
	def     types.FieldDefinition
	raw     string
	changed bool
}

// Store is a per-entity editing session over custom field values. Edits apply
// to in-memory state immediately; persistence happens on a debounce timer or,
// for switch and choice interactions, right away. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	entity uuid.UUID
	scope  types.ScopeFilter
	actor  types.ActorRef
	repo   types.ValueRepository
	gate   *access.Gate
	window time.Duration
	perKey bool
	clock  types.Clock
	logger types.Logger
	hooks  types.Hooks

	fields map[uuid.UUID]*fieldState
	order  []uuid.UUID
	timer  *time.Timer
	closed bool
}

// NewStore builds an editing session over the supplied definitions. Call Load
// to hydrate stored values before reading.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.EntityID == uuid.Nil {
		return nil, types.ErrEntityIDRequired
	}
	if cfg.Repository == nil {
		return nil, types.ErrMissingValueRepository
	}
	window := cfg.DebounceWindow
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}

	store := &Store{
		entity: cfg.EntityID,
		scope:  cfg.Scope,
		actor:  cfg.Actor,
		repo:   cfg.Repository,
		gate:   cfg.Gate,
		window: window,
		perKey: cfg.FlushPerField,
		clock:  clock,
		logger: logger,
		hooks:  cfg.Hooks,
		fields: make(map[uuid.UUID]*fieldState, len(cfg.Definitions)),
	}
	for _, def := range cfg.Definitions {
		store.fields[def.ID] = &fieldState{def: def}
		store.order = append(store.order, def.ID)
	}
	return store, nil
}

// Load hydrates the session from stored values. Values for unknown fields are
// ignored; stored choice labels that no longer exist in the option set are
// kept raw and filtered on decode.
func (s *Store) Load(ctx context.Context) error {
	values, err := s.repo.ListValues(ctx, types.ValueFilter{
		EntityID: s.entity,
		Scope:    s.scope,
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, value := range values {
		if state, ok := s.fields[value.FieldID]; ok {
			state.raw = value.RawValue
			state.changed = false
		}
	}
	return nil
}

// Value returns the decoded value for a field, or false when the field is
// unknown or hidden by the gate.
func (s *Store) Value(fieldID uuid.UUID) (codec.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.fields[fieldID]
	if !ok || !s.canView(fieldID) {
		return codec.Value{}, false
	}
	return codec.Decode(state.def.FieldType, state.raw, state.def.Options), true
}

// RawValue returns the stored raw form for a field.
func (s *Store) RawValue(fieldID uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.fields[fieldID]
	if !ok || !s.canView(fieldID) {
		return "", false
	}
	return state.raw, true
}

// SetValue applies one assignment. Default mode updates in-memory state and
// (re)arms the debounce timer; switch and multi_choice modes flush right
// away. Setting a field to its current value is a no-op and does not arm the
// timer.
func (s *Store) SetValue(ctx context.Context, fieldID uuid.UUID, value codec.Value, mode SetMode) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	state, ok := s.fields[fieldID]
	if !ok {
		s.mu.Unlock()
		return types.ErrFieldNotFound
	}
	if !s.canEdit(fieldID) {
		s.mu.Unlock()
		return types.ErrUnauthorizedScope
	}
	value.Type = state.def.FieldType
	raw := codec.Normalize(state.def.FieldType, codec.Encode(value), state.def.Options)
	if raw == state.raw {
		s.mu.Unlock()
		return nil
	}
	state.raw = raw
	state.changed = true

	if mode == SetModeSwitch || mode == SetModeMultiChoice {
		s.stopTimerLocked()
		s.mu.Unlock()
		return s.Flush(ctx)
	}
	s.armTimerLocked()
	s.mu.Unlock()
	return nil
}

// SetRawValue applies an already-encoded assignment, normalizing it through
// the codec first so stale choice labels never persist.
func (s *Store) SetRawValue(ctx context.Context, fieldID uuid.UUID, rawValue string, mode SetMode) error {
	s.mu.Lock()
	state, ok := s.fields[fieldID]
	if !ok {
		s.mu.Unlock()
		return types.ErrFieldNotFound
	}
	decoded := codec.Decode(state.def.FieldType, rawValue, state.def.Options)
	s.mu.Unlock()
	return s.SetValue(ctx, fieldID, decoded, mode)
}

// AddMultiChoiceEntry adds one label to a choice field and flushes
// immediately. Labels outside the current option set are rejected by the
// codec and dropped.
func (s *Store) AddMultiChoiceEntry(ctx context.Context, fieldID uuid.UUID, label string) error {
	s.mu.Lock()
	state, ok := s.fields[fieldID]
	if !ok {
		s.mu.Unlock()
		return types.ErrFieldNotFound
	}
	decoded := codec.Decode(state.def.FieldType, state.raw, state.def.Options)
	decoded.Labels = append(decoded.Labels, label)
	decoded.Labels = codec.SplitLabels(codec.JoinLabels(decoded.Labels))
	s.mu.Unlock()
	return s.SetValue(ctx, fieldID, decoded, SetModeMultiChoice)
}

// RemoveMultiChoiceEntry drops one label from a choice field and writes the
// result directly, bypassing the debounce path. The direct write also runs
// when the removal empties the selection, which the flush path would skip.
// Removing an absent label is a no-op.
func (s *Store) RemoveMultiChoiceEntry(ctx context.Context, fieldID uuid.UUID, label string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	state, ok := s.fields[fieldID]
	if !ok {
		s.mu.Unlock()
		return types.ErrFieldNotFound
	}
	if !s.canEdit(fieldID) {
		s.mu.Unlock()
		return types.ErrUnauthorizedScope
	}
	prev := state.raw
	current := codec.Decode(state.def.FieldType, prev, state.def.Options)
	kept := make([]string, 0, len(current.Labels))
	found := false
	for _, existing := range current.Labels {
		if existing == label {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		s.mu.Unlock()
		return nil
	}
	raw := codec.JoinLabels(kept)
	write := types.ValueWrite{
		FieldID:   fieldID,
		FieldName: state.def.InternalName,
		RawValue:  raw,
	}
	s.mu.Unlock()

	if err := s.repo.UpdateValues(ctx, []uuid.UUID{s.entity}, []types.ValueWrite{write}, s.scope, s.actor.ID); err != nil {
		return err
	}

	s.mu.Lock()
	// An edit that raced the repository call wins over the removal result.
	if state.raw == prev {
		state.raw = raw
		state.changed = false
	}
	s.mu.Unlock()
	s.emitFlush(ctx, []uuid.UUID{fieldID})
	return nil
}

// Flush persists all pending edits now. Only changed, non-empty values are
// written; cleared values stay local. On failure the changed flags survive so
// the next flush retries the same edits. A field edited while the repository
// call is running stays pending and flushes again.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()
	writes, fieldIDs := s.collectLocked()
	s.mu.Unlock()
	if len(writes) == 0 {
		return nil
	}

	if s.perKey {
		return s.flushPerField(ctx, writes, fieldIDs)
	}

	if err := s.repo.UpdateValues(ctx, []uuid.UUID{s.entity}, writes, s.scope, s.actor.ID); err != nil {
		return err
	}
	s.clearFlushed(writes)
	s.emitFlush(ctx, fieldIDs)
	return nil
}

// Pending reports whether any edits await a flush.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, state := range s.fields {
		if state.changed {
			return true
		}
	}
	return false
}

// Close cancels the debounce timer and flushes whatever is pending. The store
// rejects writes afterwards.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	return s.Flush(ctx)
}

func (s *Store) flushPerField(ctx context.Context, writes []types.ValueWrite, fieldIDs []uuid.UUID) error {
	var firstErr error
	flushed := make([]types.ValueWrite, 0, len(writes))
	flushedIDs := make([]uuid.UUID, 0, len(fieldIDs))
	for i, write := range writes {
		if err := s.repo.UpdateValues(ctx, []uuid.UUID{s.entity}, []types.ValueWrite{write}, s.scope, s.actor.ID); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		flushed = append(flushed, write)
		flushedIDs = append(flushedIDs, fieldIDs[i])
	}
	s.clearFlushed(flushed)
	if len(flushedIDs) > 0 {
		s.emitFlush(ctx, flushedIDs)
	}
	return firstErr
}

// collectLocked gathers the changed, non-empty writes in definition order.
// Callers hold s.mu.
func (s *Store) collectLocked() ([]types.ValueWrite, []uuid.UUID) {
	var writes []types.ValueWrite
	var fieldIDs []uuid.UUID
	for _, id := range s.order {
		state := s.fields[id]
		if !state.changed || state.raw == "" {
			continue
		}
		writes = append(writes, types.ValueWrite{
			FieldID:   id,
			FieldName: state.def.InternalName,
			RawValue:  state.raw,
		})
		fieldIDs = append(fieldIDs, id)
	}
	return writes, fieldIDs
}

// clearFlushed drops the changed flag for fields whose raw value still matches
// what was persisted. A field edited while the repository call was in flight
// keeps its flag so the next flush picks up the newer value.
func (s *Store) clearFlushed(writes []types.ValueWrite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, write := range writes {
		if state, ok := s.fields[write.FieldID]; ok && state.raw == write.RawValue {
			state.changed = false
		}
	}
}

// armTimerLocked (re)starts the debounce countdown. Every new edit pushes the
// deadline out so a typing stream collapses into one flush.
func (s *Store) armTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Error("debounced flush failed", err, "entity_id", s.entity.String())
		}
	})
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) canView(fieldID uuid.UUID) bool {
	return s.gate == nil || s.gate.CanView(fieldID)
}

func (s *Store) canEdit(fieldID uuid.UUID) bool {
	return s.gate == nil || s.gate.CanEdit(fieldID)
}

func (s *Store) emitFlush(ctx context.Context, fieldIDs []uuid.UUID) {
	if s.hooks.AfterValueFlush == nil {
		return
	}
	s.hooks.AfterValueFlush(ctx, types.ValueEvent{
		EntityID:   s.entity,
		FieldIDs:   fieldIDs,
		Action:     "flush",
		ActorID:    s.actor.ID,
		Scope:      s.scope,
		OccurredAt: s.clock.Now(),
	})
}
