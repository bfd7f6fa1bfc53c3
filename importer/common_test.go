package importer

import (
	"testing"

	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/testutil"
)

// setupTestImporter creates an importer over an in-memory project store.
func setupTestImporter(t *testing.T) (*Importer, project.Store, *logger.TestLogger) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &project.Project{})
	if err := db.Exec("CREATE TABLE photos (id INTEGER PRIMARY KEY AUTOINCREMENT, project_id INTEGER NOT NULL)").Error; err != nil {
		t.Fatalf("failed to create photos table: %v", err)
	}

	log := logger.NewTestLogger()
	store := project.NewMySQLStore(db, log)

	return New(store, log), store, log
}
