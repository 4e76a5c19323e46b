package audit

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/goliatone/go-fields/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestSanitizeRecordMasksStoredValues(t *testing.T) {
	record := types.ActivityRecord{
		Data: map[string]any{
			"field_names": []string{"priority", "margin"},
			"values":      map[string]any{"margin": "42"},
			"raw_value":   "42",
		},
	}
	out := SanitizeRecord(DefaultMasker(), record)
	require.NotEqual(t, map[string]any{"margin": "42"}, out.Data["values"])
	require.NotEqual(t, "42", out.Data["raw_value"])
}

func TestSanitizeRecordEmptyDataPassesThrough(t *testing.T) {
	record := types.ActivityRecord{ID: uuid.New()}
	out := SanitizeRecord(DefaultMasker(), record)
	require.Equal(t, record, out)
}

func TestRepository_LogSanitizesAndLists(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	actorID := uuid.New()
	tenantID := uuid.New()
	err = repo.Log(ctx, types.ActivityRecord{
		ActorID:    actorID,
		Verb:       "value.updated",
		ObjectType: "field_value",
		ObjectID:   uuid.New().String(),
		TenantID:   tenantID,
		Data: map[string]any{
			"field_names": []string{"priority"},
			"raw_value":   "confidential",
		},
	})
	require.NoError(t, err)

	records, total, err := repo.ListActivity(ctx, Filter{
		Scope:   types.ScopeFilter{TenantID: tenantID},
		ActorID: actorID,
		Verbs:   []string{"value.updated"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, records, 1)
	require.Equal(t, "value.updated", records[0].Verb)
	require.NotEqual(t, "confidential", records[0].Data["raw_value"])
}

func TestRepository_ListActivityFiltersByObject(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	fieldID := uuid.New().String()
	require.NoError(t, repo.Log(ctx, types.ActivityRecord{Verb: "field.created", ObjectType: "field_definition", ObjectID: fieldID}))
	require.NoError(t, repo.Log(ctx, types.ActivityRecord{Verb: "field.created", ObjectType: "field_definition", ObjectID: uuid.New().String()}))

	records, total, err := repo.ListActivity(ctx, Filter{ObjectType: "field_definition", ObjectID: fieldID})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, fieldID, records[0].ObjectID)
}

func newTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyDDL(t *testing.T, db *bun.DB) {
	content, err := os.ReadFile("../data/sql/migrations/sqlite/000001_fields_core.sql")
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(content), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}
