package project

import (
	"context"
	"testing"

	"github.com/rearqui/portfolio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLStore_Create(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("successfully create project", func(t *testing.T) {
		project := createTestProject("Casa A")
		require.NoError(t, store.Create(ctx, project))
		assert.NotZero(t, project.ID)
		assert.NotZero(t, project.CreatedAt)
	})

	t.Run("optional fields stay unset", func(t *testing.T) {
		project := &Project{Name: "Minimal"}
		require.NoError(t, store.Create(ctx, project))

		retrieved, err := store.GetByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Nil(t, retrieved.Client)
		assert.Nil(t, retrieved.ProjectYear)
		assert.Equal(t, 0, retrieved.PublicPrivateProject)
	})

	t.Run("invalid project returns error", func(t *testing.T) {
		err := store.Create(ctx, &Project{Client: testutil.Ptr("No name")})
		assert.ErrorIs(t, err, ErrInvalidProjectName)
	})
}

func TestMySQLStore_GetByID(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	project := createTestProject("Get Test")
	require.NoError(t, store.Create(ctx, project))

	retrieved, err := store.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.Name, retrieved.Name)
	assert.Equal(t, *project.Site, *retrieved.Site)

	_, err = store.GetByID(ctx, project.ID+100)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestMySQLStore_GetByName(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	unique := createTestProject("Unique")
	require.NoError(t, store.Create(ctx, unique))
	require.NoError(t, store.Create(ctx, createTestProject("Twin")))
	require.NoError(t, store.Create(ctx, createTestProject("Twin")))

	t.Run("exact match", func(t *testing.T) {
		found, err := store.GetByName(ctx, "Unique")
		require.NoError(t, err)
		assert.Equal(t, unique.ID, found.ID)
	})

	t.Run("no partial match", func(t *testing.T) {
		_, err := store.GetByName(ctx, "Uniq")
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})

	t.Run("duplicate names are ambiguous", func(t *testing.T) {
		_, err := store.GetByName(ctx, "Twin")
		assert.ErrorIs(t, err, ErrAmbiguousName)
	})
}

func TestMySQLStore_Update(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("update merges only the given fields", func(t *testing.T) {
		project := createTestProject("Original")
		require.NoError(t, store.Create(ctx, project))

		updated, err := store.Update(ctx, project.ID,
			SetName("Renamed"),
			SetProjectYear(testutil.Ptr(2020)),
		)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)

		retrieved, err := store.GetByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", retrieved.Name)
		assert.Equal(t, 2020, *retrieved.ProjectYear)
		assert.Equal(t, "Architect", *retrieved.Architect)
	})

	t.Run("nil clears a nullable field", func(t *testing.T) {
		project := createTestProject("Clearable")
		require.NoError(t, store.Create(ctx, project))

		_, err := store.Update(ctx, project.ID, SetClient(nil))
		require.NoError(t, err)

		retrieved, err := store.GetByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Nil(t, retrieved.Client)
	})

	t.Run("update non-existent project returns error", func(t *testing.T) {
		_, err := store.Update(ctx, 9999, SetName("Nope"))
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})

	t.Run("update with invalid name returns error", func(t *testing.T) {
		project := createTestProject("Valid")
		require.NoError(t, store.Create(ctx, project))

		_, err := store.Update(ctx, project.ID, SetName(""))
		assert.ErrorIs(t, err, ErrInvalidProjectName)
	})
}

func TestMySQLStore_Delete(t *testing.T) {
	db, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("delete cascades to photos", func(t *testing.T) {
		project := createTestProject("With Photos")
		require.NoError(t, store.Create(ctx, project))
		other := createTestProject("Neighbour")
		require.NoError(t, store.Create(ctx, other))

		for _, pid := range []uint{project.ID, project.ID, other.ID} {
			require.NoError(t, db.Exec("INSERT INTO photos (project_id) VALUES (?)", pid).Error)
		}

		require.NoError(t, store.Delete(ctx, project.ID))

		_, err := store.GetByID(ctx, project.ID)
		assert.ErrorIs(t, err, ErrProjectNotFound)
		assert.Equal(t, int64(0), countPhotos(t, db, project.ID))
		assert.Equal(t, int64(1), countPhotos(t, db, other.ID))
	})

	t.Run("delete non-existent project returns error", func(t *testing.T) {
		assert.ErrorIs(t, store.Delete(ctx, 9999), ErrProjectNotFound)
	})
}

func TestMySQLStore_DeleteAll(t *testing.T) {
	db, store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		p := createTestProject(name)
		require.NoError(t, store.Create(ctx, p))
		require.NoError(t, db.Exec("INSERT INTO photos (project_id) VALUES (?)", p.ID).Error)
	}

	deleted, err := store.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	projects, err := store.List(ctx, OrderByID)
	require.NoError(t, err)
	assert.Empty(t, projects)

	var photos int64
	require.NoError(t, db.Table("photos").Count(&photos).Error)
	assert.Zero(t, photos)
}

func TestMySQLStore_List(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	mk := func(name string, ppp int, projectYear, constructionYear *int) *Project {
		p := createTestProject(name)
		p.PublicPrivateProject = ppp
		p.ProjectYear = projectYear
		p.ConstructionYear = constructionYear
		require.NoError(t, store.Create(ctx, p))
		return p
	}

	late := mk("late", 0, nil, testutil.Ptr(2015))
	undated := mk("undated", 0, nil, nil)
	private := mk("private", 1, testutil.Ptr(1990), nil)
	early := mk("early", 0, testutil.Ptr(2001), nil)

	t.Run("by id", func(t *testing.T) {
		projects, err := store.List(ctx, OrderByID)
		require.NoError(t, err)
		require.Len(t, projects, 4)
		assert.Equal(t, []uint{late.ID, undated.ID, private.ID, early.ID}, ids(projects))
	})

	t.Run("showcase", func(t *testing.T) {
		projects, err := store.List(ctx, OrderShowcase)
		require.NoError(t, err)
		assert.Equal(t, []uint{undated.ID, early.ID, late.ID, private.ID}, ids(projects))
	})
}

func ids(projects []*Project) []uint {
	out := make([]uint, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}
