package photo

import (
	"context"
	"fmt"
	"testing"

	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestStore creates a test database, a photo store and one project.
func setupTestStore(t *testing.T) (*gorm.DB, Store, *project.Project) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &project.Project{}, &Photo{})

	p := &project.Project{Name: "Casa do Rio"}
	testutil.CreateFixture(t, db, p)

	log := logger.NewTestLogger()
	store := NewMySQLStore(db, log)

	return db, store, p
}

// createTestPhoto creates a photo for the given project.
func createTestPhoto(t *testing.T, store Store, projectID uint, title string, cover bool) *Photo {
	p := &Photo{
		Title:        title,
		ImagePath:    fmt.Sprintf("project/photos/%s.jpg", title),
		ProjectID:    projectID,
		IsCoverImage: cover,
	}
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

// coverCount returns how many photos of the project are marked as cover.
func coverCount(t *testing.T, db *gorm.DB, projectID uint) int64 {
	n, err := countCovers(db, projectID)
	require.NoError(t, err)
	return n
}

func countCovers(db *gorm.DB, projectID uint) (int64, error) {
	var n int64
	err := db.Model(&Photo{}).
		Where("project_id = ? AND is_cover_image = ?", projectID, true).
		Count(&n).Error
	return n, err
}
