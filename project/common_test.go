package project

import (
	"testing"

	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/testutil"
	"gorm.io/gorm"
)

// setupTestStore creates a test database and project store for testing.
// A minimal photos table is created so cascade deletes can be observed.
func setupTestStore(t *testing.T) (*gorm.DB, Store) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Project{})
	if err := db.Exec("CREATE TABLE photos (id INTEGER PRIMARY KEY AUTOINCREMENT, project_id INTEGER NOT NULL)").Error; err != nil {
		t.Fatalf("failed to create photos table: %v", err)
	}

	log := logger.NewTestLogger()
	store := NewMySQLStore(db, log)

	return db, store
}

// createTestProject creates a project with every required import column filled.
func createTestProject(name string) *Project {
	return &Project{
		Name:      name,
		Client:    testutil.Ptr("Client " + name),
		Architect: testutil.Ptr("Architect"),
		Builder:   testutil.Ptr("Builder"),
		Site:      testutil.Ptr("Lisbon"),
	}
}

func countPhotos(t *testing.T, db *gorm.DB, projectID uint) int64 {
	var n int64
	if err := db.Table("photos").Where("project_id = ?", projectID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count photos: %v", err)
	}
	return n
}
