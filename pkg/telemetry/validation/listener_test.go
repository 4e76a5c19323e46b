package validation

import (
	"context"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-fields/pkg/types"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records []types.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return nil
}

type recordingNotifier struct {
	calls    int
	actorID  uuid.UUID
	metadata map[string]any
}

func (n *recordingNotifier) Notify(_ context.Context, actorID uuid.UUID, metadata map[string]any) {
	n.calls++
	n.actorID = actorID
	n.metadata = metadata
}

func TestListenerEmitsAuditRecordAndNotifiesSchema(t *testing.T) {
	actorID := uuid.New()
	tenantID := uuid.New()

	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	listener := NewListener(ListenerOptions{
		ActivitySink:   sink,
		SchemaNotifier: notifier,
		ResolveActor: func(router.Context) (*auth.ActorContext, error) {
			return &auth.ActorContext{
				ActorID:  actorID.String(),
				Role:     "admin",
				TenantID: tenantID.String(),
				Metadata: map[string]any{"plan": "enterprise"},
			}, nil
		},
	})

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())

	claims := &stubClaims{subject: actorID.String(), uid: actorID.String(), role: "admin"}
	require.NoError(t, listener(ctx, claims))

	require.Len(t, sink.records, 1)
	record := sink.records[0]
	require.Equal(t, "auth.validated", record.Verb)
	require.Equal(t, "auth", record.ObjectType)
	require.Equal(t, actorID.String(), record.ObjectID)
	require.Equal(t, actorID, record.ActorID)
	require.Equal(t, tenantID, record.TenantID)
	require.Equal(t, "admin", record.Data["role"])

	require.Equal(t, 1, notifier.calls)
	require.Equal(t, actorID, notifier.actorID)
	require.Equal(t, "enterprise", notifier.metadata["plan"])
}

func TestListenerSwallowsActorResolutionFailure(t *testing.T) {
	sink := &recordingSink{}
	listener := NewListener(ListenerOptions{
		ActivitySink: sink,
		ResolveActor: func(router.Context) (*auth.ActorContext, error) {
			return nil, errors.New("no actor on request", errors.CategoryAuth)
		},
	})

	ctx := router.NewMockContext()
	require.NoError(t, listener(ctx, &stubClaims{subject: "anonymous"}))
	require.Empty(t, sink.records)
}

func TestListenerSkipsInvalidActorID(t *testing.T) {
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	listener := NewListener(ListenerOptions{
		ActivitySink:   sink,
		SchemaNotifier: notifier,
		ResolveActor: func(router.Context) (*auth.ActorContext, error) {
			return &auth.ActorContext{ActorID: "not-a-uuid"}, nil
		},
	})

	ctx := router.NewMockContext()
	require.NoError(t, listener(ctx, &stubClaims{subject: "broken"}))
	require.Empty(t, sink.records)
	require.Zero(t, notifier.calls)
}

type stubClaims struct {
	subject  string
	uid      string
	role     string
	metadata map[string]any
	res      map[string]string
}

func (s *stubClaims) Subject() string                  { return s.subject }
func (s *stubClaims) UserID() string                   { return s.uid }
func (s *stubClaims) Role() string                     { return s.role }
func (s *stubClaims) CanRead(string) bool              { return true }
func (s *stubClaims) CanEdit(string) bool              { return true }
func (s *stubClaims) CanCreate(string) bool            { return true }
func (s *stubClaims) CanDelete(string) bool            { return true }
func (s *stubClaims) HasRole(role string) bool         { return s.role == role }
func (s *stubClaims) IsAtLeast(string) bool            { return true }
func (s *stubClaims) Expires() time.Time               { return time.Time{} }
func (s *stubClaims) IssuedAt() time.Time              { return time.Time{} }
func (s *stubClaims) ResourceRoles() map[string]string { return s.res }
func (s *stubClaims) ClaimsMetadata() map[string]any   { return s.metadata }
