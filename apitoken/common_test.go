package apitoken

import (
	"testing"
	"time"

	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/testutil"
	"gorm.io/gorm"
)

// setupTestStore creates a test database and API token store for testing.
func setupTestStore(t *testing.T) (*gorm.DB, Store) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &APIToken{})

	log := logger.NewTestLogger()
	store := NewMySQLStore(db, log)

	return db, store
}

// createTestToken creates an API token with default values for testing.
func createTestToken(name string, userID uint, scope string, hash string) *APIToken {
	return &APIToken{
		Name:      name,
		UserID:    userID,
		Scope:     scope,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		IsActive:  true,
	}
}
