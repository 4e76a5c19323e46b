package command

import (
	"context"
	"testing"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubFeatureGate struct {
	enabled bool
	err     error
	keys    []string
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, _ ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

func TestFieldCreateCommand_FeatureGateDisabled(t *testing.T) {
	repo := newFakeSchemaRepo()
	gate := &stubFeatureGate{enabled: false}
	cmd := NewFieldCreateCommand(FieldCommandConfig{
		Repository:  repo,
		FeatureGate: gate,
	})

	err := cmd.Execute(context.Background(), FieldCreateInput{
		FriendlyName: "Priority",
		FieldType:    types.FieldTypeText,
		Actor:        types.ActorRef{ID: uuid.New()},
	})
	require.ErrorIs(t, err, ErrSchemaAdminDisabled)
	require.Equal(t, []string{featureFieldsSchemaAdmin}, gate.keys)
	require.Equal(t, 0, repo.created)
}

func TestBulkAssignCommand_FeatureGateDisabled(t *testing.T) {
	repo := &fakeValueRepo{}
	gate := &stubFeatureGate{enabled: false}
	cmd := NewBulkAssignCommand(BulkAssignCommandConfig{
		Repository:  repo,
		FeatureGate: gate,
	})

	err := cmd.Execute(context.Background(), BulkAssignInput{
		Targets: types.BulkTargets{EntityIDs: []uuid.UUID{uuid.New()}},
		Writes:  []types.ValueWrite{{FieldName: "priority", RawValue: "high"}},
		Actor:   types.ActorRef{ID: uuid.New()},
	})
	require.ErrorIs(t, err, ErrBulkAssignDisabled)
	require.Equal(t, []string{featureFieldsBulkAssign}, gate.keys)
	require.Equal(t, 0, repo.bulkCalls)
}
