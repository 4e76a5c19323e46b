package service_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-fields/command"
	"github.com/goliatone/go-fields/pkg/schema"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-fields/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestService_SchemaRegistryRefreshesOnFieldChange(t *testing.T) {
	ctx := context.Background()
	reg := schema.NewRegistry()

	var hostEvents []types.FieldEvent
	svc := service.New(service.Config{
		SchemaRepository:   newMTSchemaRepo(),
		ValueRepository:    newMTValueRepo(),
		SettingsRepository: newMTSettingsRepo(),
		PermissionProvider: allowAllPermissions{},
		Hooks: types.Hooks{
			AfterFieldChange: func(_ context.Context, event types.FieldEvent) {
				hostEvents = append(hostEvents, event)
			},
		},
		Logger:         types.NopLogger{},
		SchemaRegistry: reg,
		SchemaResource: "customer",
	})
	require.True(t, svc.Ready())
	require.Empty(t, reg.Resources())

	created := &types.FieldDefinition{}
	err := svc.Commands().FieldCreate.Execute(ctx, command.FieldCreateInput{
		FriendlyName: "Deal Stage",
		FieldType:    types.FieldTypeText,
		Actor:        types.ActorRef{ID: uuid.New(), Type: types.ActorRoleSystemAdmin},
		Result:       created,
	})
	require.NoError(t, err)

	// The registry picked up the new definition and the host hook still ran.
	require.Equal(t, []string{"customer"}, reg.Resources())
	require.Len(t, hostEvents, 1)
	require.Equal(t, created.ID, hostEvents[0].FieldID)

	doc := reg.Document()
	require.NotNil(t, doc)
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, paths, "/customers")

	// Deleting the field refreshes the registry again.
	err = svc.Commands().FieldDelete.Execute(ctx, command.FieldDeleteInput{
		FieldID: created.ID,
		Actor:   types.ActorRef{ID: uuid.New(), Type: types.ActorRoleSystemAdmin},
	})
	require.NoError(t, err)
	require.Len(t, hostEvents, 2)
	require.Equal(t, []string{"customer"}, reg.Resources())
}
