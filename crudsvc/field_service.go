package crudsvc

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-fields/command"
	"github.com/goliatone/go-fields/crudguard"
	"github.com/goliatone/go-fields/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// FieldServiceConfig wires dependencies for the field definition CRUD adapter.
type FieldServiceConfig struct {
	Guard  GuardAdapter
	Repo   types.SchemaRepository
	Create gocommand.Commander[command.FieldCreateInput]
	Update gocommand.Commander[command.FieldUpdateInput]
	Delete gocommand.Commander[command.FieldDeleteInput]
}

// FieldService routes go-crud operations through the field commands so
// invariants (guard enforcement, feature gates, hooks, activity) stay intact
// no matter which transport fronts the engine.
type FieldService struct {
	guard   GuardAdapter
	repo    types.SchemaRepository
	create  gocommand.Commander[command.FieldCreateInput]
	update  gocommand.Commander[command.FieldUpdateInput]
	del     gocommand.Commander[command.FieldDeleteInput]
	emitter ActivityEmitter
	logger  types.Logger
}

// NewFieldService constructs the adapter.
func NewFieldService(cfg FieldServiceConfig, opts ...ServiceOption) *FieldService {
	options := applyOptions(opts)
	return &FieldService{
		guard:   cfg.Guard,
		repo:    cfg.Repo,
		create:  cfg.Create,
		update:  cfg.Update,
		del:     cfg.Delete,
		emitter: options.emitter,
		logger:  options.logger,
	}
}

func (s *FieldService) Create(ctx crud.Context, record *types.FieldDefinition) (*types.FieldDefinition, error) {
	return s.createRecord(ctx, crud.OpCreate, record)
}

func (s *FieldService) CreateBatch(ctx crud.Context, records []*types.FieldDefinition) ([]*types.FieldDefinition, error) {
	created := make([]*types.FieldDefinition, 0, len(records))
	for _, record := range records {
		rec, err := s.createRecord(ctx, crud.OpCreateBatch, record)
		if err != nil {
			return nil, err
		}
		created = append(created, rec)
	}
	return created, nil
}

func (s *FieldService) Update(ctx crud.Context, record *types.FieldDefinition) (*types.FieldDefinition, error) {
	return s.updateRecord(ctx, crud.OpUpdate, record)
}

func (s *FieldService) UpdateBatch(ctx crud.Context, records []*types.FieldDefinition) ([]*types.FieldDefinition, error) {
	updated := make([]*types.FieldDefinition, 0, len(records))
	for _, record := range records {
		rec, err := s.updateRecord(ctx, crud.OpUpdateBatch, record)
		if err != nil {
			return nil, err
		}
		updated = append(updated, rec)
	}
	return updated, nil
}

func (s *FieldService) Delete(ctx crud.Context, record *types.FieldDefinition) error {
	if s.del == nil {
		return goerrors.New("field delete command not wired", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if record == nil || record.ID == uuid.Nil {
		return goerrors.New("field id required", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpDelete,
		Scope:     record.Scope,
		TargetID:  record.ID,
	})
	if err != nil {
		return err
	}
	input := command.FieldDeleteInput{
		FieldID: record.ID,
		Scope:   res.Scope,
		Actor:   res.Actor,
	}
	if err := s.del.Execute(ctx.UserContext(), input); err != nil {
		return err
	}
	s.emit(ctx.UserContext(), res, record.ID, "field.delete")
	return nil
}

func (s *FieldService) DeleteBatch(ctx crud.Context, records []*types.FieldDefinition) error {
	for _, record := range records {
		if err := s.Delete(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (s *FieldService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*types.FieldDefinition, int, error) {
	if s.repo == nil {
		return nil, 0, types.ErrMissingSchemaRepository
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
	})
	if err != nil {
		return nil, 0, err
	}

	filter := types.SchemaFilter{
		Scope:    res.Scope,
		FieldIDs: queryUUIDSlice(ctx, "id"),
		Keyword:  ctx.Query("q"),
		Pagination: types.Pagination{
			Limit:  queryInt(ctx, "limit", 50),
			Offset: queryInt(ctx, "offset", 0),
		},
	}
	if syncLead, ok := queryBool(ctx, "sync_lead"); ok {
		filter.SyncLead = &syncLead
	}

	records, err := s.repo.ListFields(ctx.UserContext(), filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*types.FieldDefinition, 0, len(records))
	for i := range records {
		out = append(out, &records[i])
	}
	return out, len(out), nil
}

func (s *FieldService) Show(ctx crud.Context, id string, _ []repository.SelectCriteria) (*types.FieldDefinition, error) {
	if s.repo == nil {
		return nil, types.ErrMissingSchemaRepository
	}
	fieldID, err := uuid.Parse(id)
	if err != nil {
		return nil, goerrors.New("invalid field id", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpRead,
		TargetID:  fieldID,
	})
	if err != nil {
		return nil, err
	}
	record, err := s.repo.GetField(ctx.UserContext(), fieldID, res.Scope)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, goerrors.New("field not found", goerrors.CategoryNotFound).WithCode(goerrors.CodeNotFound)
	}
	return record, nil
}

func (s *FieldService) createRecord(ctx crud.Context, op crud.CrudOperation, record *types.FieldDefinition) (*types.FieldDefinition, error) {
	if s.create == nil {
		return nil, goerrors.New("field create command not wired", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if record == nil {
		return nil, goerrors.New("field payload required", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: op,
		Scope:     record.Scope,
	})
	if err != nil {
		return nil, err
	}
	result := types.FieldDefinition{}
	input := command.FieldCreateInput{
		FriendlyName: record.FriendlyName,
		FieldType:    record.FieldType,
		Options:      record.CloneOptions(),
		SyncLead:     record.SyncLead,
		Scope:        res.Scope,
		Actor:        res.Actor,
		Result:       &result,
	}
	if err := s.create.Execute(ctx.UserContext(), input); err != nil {
		return nil, err
	}
	s.emit(ctx.UserContext(), res, result.ID, "field.create")
	return &result, nil
}

func (s *FieldService) updateRecord(ctx crud.Context, op crud.CrudOperation, record *types.FieldDefinition) (*types.FieldDefinition, error) {
	if s.update == nil {
		return nil, goerrors.New("field update command not wired", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if record == nil || record.ID == uuid.Nil {
		return nil, goerrors.New("field id required", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: op,
		Scope:     record.Scope,
		TargetID:  record.ID,
	})
	if err != nil {
		return nil, err
	}
	result := types.FieldDefinition{}
	friendlyName := record.FriendlyName
	fieldType := record.FieldType
	syncLead := record.SyncLead
	input := command.FieldUpdateInput{
		FieldID:      record.ID,
		FriendlyName: &friendlyName,
		FieldType:    &fieldType,
		Options:      record.CloneOptions(),
		SyncLead:     &syncLead,
		Scope:        res.Scope,
		Actor:        res.Actor,
		Result:       &result,
	}
	if err := s.update.Execute(ctx.UserContext(), input); err != nil {
		return nil, err
	}
	s.emit(ctx.UserContext(), res, result.ID, "field.update")
	return &result, nil
}

func (s *FieldService) emit(ctx context.Context, guardResult crudguard.GuardResult, fieldID uuid.UUID, action string) {
	if s.emitter == nil {
		return
	}
	record := types.ActivityRecord{
		ActorID:    guardResult.Actor.ID,
		TenantID:   guardResult.Scope.TenantID,
		OrgID:      guardResult.Scope.OrgID,
		Verb:       action,
		ObjectType: "field_definition",
		ObjectID:   fieldID.String(),
	}
	if err := s.emitter.Emit(ctx, record); err != nil && s.logger != nil {
		s.logger.Error("field activity emit failed", err)
	}
}
