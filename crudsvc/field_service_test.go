package crudsvc

import (
	"context"
	"testing"

	"github.com/goliatone/go-crud"
	"github.com/goliatone/go-fields/command"
	"github.com/goliatone/go-fields/crudguard"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFieldServiceCreateRunsCommand(t *testing.T) {
	createCmd := &stubFieldCreateCmd{}
	guard := &stubGuardAdapter{
		result: crudguard.GuardResult{
			Actor: types.ActorRef{ID: uuid.New(), Type: types.ActorRoleSystemAdmin},
			Scope: types.ScopeFilter{TenantID: uuid.New()},
		},
	}
	svc := NewFieldService(FieldServiceConfig{
		Guard:  guard,
		Create: createCmd,
	})
	ctx := newTestCrudContext(context.Background())
	record := &types.FieldDefinition{
		FriendlyName: "Deal Stage",
		FieldType:    types.FieldTypeMultiChoiceRadio,
		Options: []types.Option{
			{ID: uuid.New(), Label: "Open"},
			{ID: uuid.New(), Label: "Won"},
		},
	}

	created, err := svc.Create(ctx, record)
	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, 1, createCmd.calls)
	require.Equal(t, "Deal Stage", createCmd.lastInput.FriendlyName)
	require.Equal(t, types.FieldTypeMultiChoiceRadio, createCmd.lastInput.FieldType)
	require.Len(t, createCmd.lastInput.Options, 2)
	require.Equal(t, guard.result.Scope.TenantID, createCmd.lastInput.Scope.TenantID)
	require.Equal(t, guard.result.Actor.ID, createCmd.lastInput.Actor.ID)
	require.NotEqual(t, uuid.Nil, created.ID)
}

func TestFieldServiceCreateGuardDenied(t *testing.T) {
	createCmd := &stubFieldCreateCmd{}
	guard := &stubGuardAdapter{err: types.ErrUnauthorizedScope}
	svc := NewFieldService(FieldServiceConfig{
		Guard:  guard,
		Create: createCmd,
	})

	_, err := svc.Create(newTestCrudContext(context.Background()), &types.FieldDefinition{
		FriendlyName: "Budget",
		FieldType:    types.FieldTypeNumber,
	})
	require.ErrorIs(t, err, types.ErrUnauthorizedScope)
	require.Equal(t, 0, createCmd.calls)
}

func TestFieldServiceUpdatePropagatesPatch(t *testing.T) {
	updateCmd := &stubFieldUpdateCmd{}
	guard := &stubGuardAdapter{
		result: crudguard.GuardResult{
			Actor: types.ActorRef{ID: uuid.New(), Type: types.ActorRoleTenantAdmin},
			Scope: types.ScopeFilter{TenantID: uuid.New()},
		},
	}
	svc := NewFieldService(FieldServiceConfig{
		Guard:  guard,
		Update: updateCmd,
	})
	fieldID := uuid.New()

	updated, err := svc.Update(newTestCrudContext(context.Background()), &types.FieldDefinition{
		ID:           fieldID,
		FriendlyName: "Renamed",
		FieldType:    types.FieldTypeText,
		SyncLead:     true,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, fieldID, updateCmd.lastInput.FieldID)
	require.NotNil(t, updateCmd.lastInput.FriendlyName)
	require.Equal(t, "Renamed", *updateCmd.lastInput.FriendlyName)
	require.NotNil(t, updateCmd.lastInput.SyncLead)
	require.True(t, *updateCmd.lastInput.SyncLead)
}

func TestFieldServiceUpdateRequiresID(t *testing.T) {
	svc := NewFieldService(FieldServiceConfig{
		Guard:  &stubGuardAdapter{},
		Update: &stubFieldUpdateCmd{},
	})

	_, err := svc.Update(newTestCrudContext(context.Background()), &types.FieldDefinition{
		FriendlyName: "No ID",
	})
	require.Error(t, err)
}

func TestFieldServiceDeleteEmitsActivity(t *testing.T) {
	deleteCmd := &stubFieldDeleteCmd{}
	guard := &stubGuardAdapter{
		result: crudguard.GuardResult{
			Actor: types.ActorRef{ID: uuid.New(), Type: types.ActorRoleSystemAdmin},
			Scope: types.ScopeFilter{TenantID: uuid.New()},
		},
	}
	emitter := &recordingEmitter{}
	svc := NewFieldService(FieldServiceConfig{
		Guard:  guard,
		Delete: deleteCmd,
	}, WithActivityEmitter(emitter))
	fieldID := uuid.New()

	err := svc.Delete(newTestCrudContext(context.Background()), &types.FieldDefinition{ID: fieldID})
	require.NoError(t, err)
	require.Equal(t, 1, deleteCmd.calls)
	require.Equal(t, fieldID, deleteCmd.lastInput.FieldID)
	require.Len(t, emitter.records, 1)
	require.Equal(t, "field.delete", emitter.records[0].Verb)
	require.Equal(t, fieldID.String(), emitter.records[0].ObjectID)
}

func TestFieldServiceIndexBuildsFilterFromQuery(t *testing.T) {
	repo := &stubFieldServiceRepo{
		fields: []types.FieldDefinition{
			{ID: uuid.New(), FriendlyName: "One"},
			{ID: uuid.New(), FriendlyName: "Two"},
		},
	}
	guard := &stubGuardAdapter{
		result: crudguard.GuardResult{
			Actor: types.ActorRef{ID: uuid.New(), Type: types.ActorRoleTenantAdmin},
			Scope: types.ScopeFilter{TenantID: uuid.New()},
		},
	}
	svc := NewFieldService(FieldServiceConfig{
		Guard: guard,
		Repo:  repo,
	})
	ctx := newTestCrudContext(context.Background())
	ctx.queries["q"] = "stage"
	ctx.queries["sync_lead"] = "true"
	ctx.queries["limit"] = "10"
	ctx.queries["offset"] = "20"

	records, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, records, 2)
	require.Equal(t, "stage", repo.lastFilter.Keyword)
	require.NotNil(t, repo.lastFilter.SyncLead)
	require.True(t, *repo.lastFilter.SyncLead)
	require.Equal(t, 10, repo.lastFilter.Pagination.Limit)
	require.Equal(t, 20, repo.lastFilter.Pagination.Offset)
	require.Equal(t, guard.result.Scope.TenantID, repo.lastFilter.Scope.TenantID)
}

func TestFieldServiceShowParsesID(t *testing.T) {
	fieldID := uuid.New()
	repo := &stubFieldServiceRepo{
		fields: []types.FieldDefinition{{ID: fieldID, FriendlyName: "Budget"}},
	}
	svc := NewFieldService(FieldServiceConfig{
		Guard: &stubGuardAdapter{},
		Repo:  repo,
	})

	record, err := svc.Show(newTestCrudContext(context.Background()), fieldID.String(), nil)
	require.NoError(t, err)
	require.Equal(t, "Budget", record.FriendlyName)

	_, err = svc.Show(newTestCrudContext(context.Background()), "not-a-uuid", nil)
	require.Error(t, err)
}

// helpers

type stubGuardAdapter struct {
	result    crudguard.GuardResult
	err       error
	lastInput crudguard.GuardInput
}

func (s *stubGuardAdapter) Enforce(in crudguard.GuardInput) (crudguard.GuardResult, error) {
	s.lastInput = in
	if s.err != nil {
		return crudguard.GuardResult{}, s.err
	}
	return s.result, nil
}

type stubFieldCreateCmd struct {
	calls     int
	lastInput command.FieldCreateInput
	err       error
}

func (s *stubFieldCreateCmd) Execute(_ context.Context, input command.FieldCreateInput) error {
	s.calls++
	s.lastInput = input
	if s.err == nil && input.Result != nil {
		*input.Result = types.FieldDefinition{
			ID:           uuid.New(),
			FriendlyName: input.FriendlyName,
			FieldType:    input.FieldType,
			Options:      input.Options,
			SyncLead:     input.SyncLead,
			Scope:        input.Scope,
		}
	}
	return s.err
}

type stubFieldUpdateCmd struct {
	calls     int
	lastInput command.FieldUpdateInput
	err       error
}

func (s *stubFieldUpdateCmd) Execute(_ context.Context, input command.FieldUpdateInput) error {
	s.calls++
	s.lastInput = input
	if s.err == nil && input.Result != nil {
		def := types.FieldDefinition{ID: input.FieldID}
		if input.FriendlyName != nil {
			def.FriendlyName = *input.FriendlyName
		}
		if input.FieldType != nil {
			def.FieldType = *input.FieldType
		}
		*input.Result = def
	}
	return s.err
}

type stubFieldDeleteCmd struct {
	calls     int
	lastInput command.FieldDeleteInput
	err       error
}

func (s *stubFieldDeleteCmd) Execute(_ context.Context, input command.FieldDeleteInput) error {
	s.calls++
	s.lastInput = input
	return s.err
}

type stubFieldServiceRepo struct {
	fields     []types.FieldDefinition
	lastFilter types.SchemaFilter
}

func (s *stubFieldServiceRepo) ListFields(_ context.Context, filter types.SchemaFilter) ([]types.FieldDefinition, error) {
	s.lastFilter = filter
	return s.fields, nil
}

func (s *stubFieldServiceRepo) GetField(_ context.Context, id uuid.UUID, _ types.ScopeFilter) (*types.FieldDefinition, error) {
	for i := range s.fields {
		if s.fields[i].ID == id {
			def := s.fields[i]
			return &def, nil
		}
	}
	return nil, nil
}

func (s *stubFieldServiceRepo) CreateField(_ context.Context, def types.FieldDefinition) (*types.FieldDefinition, error) {
	s.fields = append(s.fields, def)
	return &def, nil
}

func (s *stubFieldServiceRepo) UpdateField(_ context.Context, id uuid.UUID, _ types.FieldPatch, _ types.ScopeFilter, _ uuid.UUID) (*types.FieldDefinition, error) {
	return s.GetField(context.Background(), id, types.ScopeFilter{})
}

func (s *stubFieldServiceRepo) DeleteField(context.Context, uuid.UUID, types.ScopeFilter) error {
	return nil
}

type recordingEmitter struct {
	records []types.ActivityRecord
}

func (r *recordingEmitter) Emit(_ context.Context, record types.ActivityRecord) error {
	r.records = append(r.records, record)
	return nil
}

type testCrudContext struct {
	ctx     context.Context
	queries map[string]string
}

func newTestCrudContext(ctx context.Context) *testCrudContext {
	return &testCrudContext{
		ctx:     ctx,
		queries: map[string]string{},
	}
}

func (t *testCrudContext) UserContext() context.Context {
	return t.ctx
}

func (t *testCrudContext) Params(string, ...string) string {
	return ""
}

func (t *testCrudContext) BodyParser(out any) error {
	return nil
}

func (t *testCrudContext) Query(key string, defaultValue ...string) string {
	if v, ok := t.queries[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (t *testCrudContext) QueryValues(key string) []string {
	if v, ok := t.queries[key]; ok {
		return []string{v}
	}
	return nil
}

func (t *testCrudContext) QueryInt(string, ...int) int {
	return 0
}

func (t *testCrudContext) Queries() map[string]string {
	return t.queries
}

func (t *testCrudContext) Body() []byte {
	return nil
}

func (t *testCrudContext) Status(int) crud.Response {
	return t
}

func (t *testCrudContext) JSON(any, ...string) error {
	return nil
}

func (t *testCrudContext) SendStatus(int) error {
	return nil
}
