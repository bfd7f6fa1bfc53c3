package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/rearqui/portfolio/apitoken"
	"github.com/rearqui/portfolio/auth"
	"github.com/rearqui/portfolio/importer"
	"github.com/rearqui/portfolio/ingest"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/photo"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/storage"
	"github.com/rearqui/portfolio/testutil"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

type testEnv struct {
	projects project.Store
	photos   photo.Store
	media    *storage.LocalStorage
	source   *storage.LocalStorage
	api      http.Handler
	pages    *PagesHandler
	logger   *logger.TestLogger
}

// setupTestEnv wires the API router over an in-memory database and
// temporary local storages. testToken authenticates as user 1.
func setupTestEnv(t *testing.T) *testEnv {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &project.Project{}, &photo.Photo{})

	log := logger.NewTestLogger()
	projects := project.NewMySQLStore(db, log)
	photos := photo.NewMySQLStore(db, log)

	media, err := storage.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)
	source, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	verifier := &stubVerifier{identities: map[string]*auth.Identity{
		testToken: {UserID: 1, Scope: apitoken.ScopeReadWrite, Method: auth.MethodToken},
	}}

	api := NewAPIRouter(APIRoutes{
		Prefix:   "/api",
		Projects: NewProjectHandler(projects, photos, media, importer.New(projects, log), 1<<20, log),
		Photos:   NewPhotoHandler(photos, projects, media, ingest.New(projects, photos, source, media, log), 1<<20, log),
		Auth:     NewAuthMiddleware(verifier, log),
		Health:   NewHealthHandler(nil),
		Logger:   log,
	})

	pages, err := NewPagesHandler(projects, photos, media, log)
	require.NoError(t, err)

	return &testEnv{
		projects: projects,
		photos:   photos,
		media:    media,
		source:   source,
		api:      api,
		pages:    pages,
		logger:   log,
	}
}

func (e *testEnv) createProject(t *testing.T, name string) *project.Project {
	p := &project.Project{Name: name}
	require.NoError(t, e.projects.Create(context.Background(), p))
	return p
}

func (e *testEnv) createPhoto(t *testing.T, projectID uint, title string, cover bool) *photo.Photo {
	ctx := context.Background()
	key := "project/photos/" + title + ".jpg"
	require.NoError(t, e.media.Upload(ctx, key, stringsReader(title)))

	ph := &photo.Photo{Title: title, ImagePath: key, ProjectID: projectID, IsCoverImage: cover}
	require.NoError(t, e.photos.Create(ctx, ph))
	return ph
}
