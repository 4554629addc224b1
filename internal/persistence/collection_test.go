package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixit/helpdesk-service/internal/domain"
)

var fixedTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleIncident(id string) domain.Incident {
	return domain.Incident{
		ID:          id,
		Title:       "Printer offline",
		Description: "The second floor printer does not respond",
		Status:      domain.IncidentStatusOpen,
		Priority:    domain.IncidentPriorityHigh,
		Department:  "ti",
		CreatedBy: domain.CreatorSnapshot{
			ID:         "u-1",
			Name:       "Ana Lima",
			Email:      "ana@fixit.com",
			Department: "financeiro",
		},
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	commented := sampleIncident("INC-100002")
	commented.Assignee = &domain.AssigneeSnapshot{ID: "tech-1", Name: "Caio", Email: "caio@fixit.com", Initials: "C"}
	commented.Comments = []domain.Comment{
		{Text: "Looking into it", CreatedBy: domain.CommentAuthor{ID: "tech-1", Name: "Caio"}, CreatedAt: fixedTime.Add(time.Minute)},
		{Text: "Toner replaced", CreatedBy: domain.CommentAuthor{ID: "tech-1", Name: "Caio"}, CreatedAt: fixedTime.Add(time.Hour)},
	}

	cases := []struct {
		name  string
		items []domain.Incident
	}{
		{"empty", []domain.Incident{}},
		{"single", []domain.Incident{sampleIncident("INC-100001")}},
		{"with comments", []domain.Incident{sampleIncident("INC-100001"), commented}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			coll := NewCollection[domain.Incident](NewMemory(), "fixit_incidents", nil)

			version, err := coll.Save(ctx, tc.items, 0)
			require.NoError(t, err)

			loaded, loadedVersion, err := coll.Load(ctx)
			require.NoError(t, err)
			require.Equal(t, version, loadedVersion)
			require.Equal(t, tc.items, loaded)
		})
	}
}

func TestCollectionCorruptValueLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_, err := store.Save(ctx, "fixit_users", []byte(`[{"id":`), 0)
	require.NoError(t, err)

	coll := NewCollection[domain.UserRecord](store, "fixit_users", nil)
	users, version, err := coll.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, users)
	require.EqualValues(t, 1, version)

	_, err = coll.Save(ctx, []domain.UserRecord{{User: domain.User{ID: "u-1"}}}, version)
	require.NoError(t, err)

	users, _, err = coll.Load(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestCollectionNullLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_, err := store.Save(ctx, "k", []byte(`null`), 0)
	require.NoError(t, err)

	items, _, err := NewCollection[domain.Incident](store, "k", nil).Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestCollectionSaveWithStaleVersion(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection[domain.Incident](NewMemory(), "k", nil)

	_, err := coll.Save(ctx, []domain.Incident{sampleIncident("INC-100001")}, 0)
	require.NoError(t, err)

	_, err = coll.Save(ctx, []domain.Incident{}, 0)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	doc := NewDocument[domain.User](NewMemory(), "fixit_current_user:s1", nil)

	value, version, err := doc.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, value)
	require.Zero(t, version)

	user := domain.User{ID: "u-1", Name: "Ana", Email: "ana@fixit.com", CreatedAt: fixedTime}
	_, err = doc.Save(ctx, user, version)
	require.NoError(t, err)

	value, _, err = doc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, &user, value)

	require.NoError(t, doc.Delete(ctx))
	value, _, err = doc.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)
}
