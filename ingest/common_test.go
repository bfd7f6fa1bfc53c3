package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/photo"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/storage"
	"github.com/rearqui/portfolio/testutil"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	projects project.Store
	photos   photo.Store
	source   *storage.LocalStorage
	media    *storage.LocalStorage
	mediaDir string
	log      *logger.TestLogger
}

// setupTestEnv creates stores over an in-memory database plus source and
// media storage in temporary directories.
func setupTestEnv(t *testing.T) *testEnv {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &project.Project{}, &photo.Photo{})

	source, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	mediaDir := t.TempDir()
	media, err := storage.NewLocalStorage(mediaDir, "/media")
	require.NoError(t, err)

	log := logger.NewTestLogger()
	return &testEnv{
		projects: project.NewMySQLStore(db, log),
		photos:   photo.NewMySQLStore(db, log),
		source:   source,
		media:    media,
		mediaDir: mediaDir,
		log:      log,
	}
}

func (e *testEnv) ingestor() *Ingestor {
	return New(e.projects, e.photos, e.source, e.media, e.log)
}

func (e *testEnv) createProject(t *testing.T, name string) *project.Project {
	p := &project.Project{Name: name}
	require.NoError(t, e.projects.Create(context.Background(), p))
	return p
}

func (e *testEnv) putSource(t *testing.T, path string) {
	require.NoError(t, e.source.Upload(context.Background(), path, strings.NewReader("image:"+path)))
}

// panickingPhotoStore panics on Create.
type panickingPhotoStore struct {
	photo.Store
}

func (panickingPhotoStore) Create(ctx context.Context, p *photo.Photo) error {
	panic("database exploded")
}
