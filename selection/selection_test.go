package selection

import (
	"testing"

	"github.com/rearqui/portfolio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var albums = Group{
	Table:       "tracks",
	GroupColumn: "album_id",
	FlagColumn:  "featured",
	ParentTable: "albums",
}

func setupTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupTestDB(t)
	for _, stmt := range []string{
		"CREATE TABLE albums (id INTEGER PRIMARY KEY AUTOINCREMENT)",
		"CREATE TABLE tracks (id INTEGER PRIMARY KEY AUTOINCREMENT, album_id INTEGER NOT NULL, featured BOOLEAN NOT NULL DEFAULT false)",
		"INSERT INTO albums (id) VALUES (1), (2)",
		"INSERT INTO tracks (album_id, featured) VALUES (1, true), (1, false), (1, false), (2, true)",
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func featured(t *testing.T, db *gorm.DB, albumID uint) []uint {
	var ids []uint
	require.NoError(t, db.Table("tracks").
		Where("album_id = ? AND featured = ?", albumID, true).
		Order("id").
		Pluck("id", &ids).Error)
	return ids
}

func TestGroup_Select(t *testing.T) {
	db := setupTestDB(t)

	t.Run("moves the flag within the group", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			return albums.Select(tx, 1, 3)
		})
		require.NoError(t, err)
		assert.Equal(t, []uint{3}, featured(t, db, 1))
	})

	t.Run("other groups untouched", func(t *testing.T) {
		assert.Equal(t, []uint{4}, featured(t, db, 2))
	})

	t.Run("reselecting is idempotent", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			return albums.Select(tx, 1, 3)
		})
		require.NoError(t, err)
		assert.Equal(t, []uint{3}, featured(t, db, 1))
	})

	t.Run("member of another group", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			return albums.Select(tx, 1, 4)
		})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.Equal(t, []uint{3}, featured(t, db, 1), "rollback keeps previous selection")
	})

	t.Run("missing parent", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			return albums.Select(tx, 99, 1)
		})
		assert.ErrorIs(t, err, ErrParentNotFound)
	})
}

func TestGroup_ClearOthers(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, albums.ClearOthers(db, 1, 0))
	assert.Empty(t, featured(t, db, 1))
	assert.Equal(t, []uint{4}, featured(t, db, 2))
}

func TestGroup_Selected(t *testing.T) {
	db := setupTestDB(t)

	id, err := albums.Selected(db, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)

	require.NoError(t, albums.ClearOthers(db, 1, 0))
	_, err = albums.Selected(db, 1)
	assert.ErrorIs(t, err, ErrNoneSelected)

	assert.Equal(t, []uint{4}, featured(t, db, 2))
}

func TestGroup_LockWithoutParentTable(t *testing.T) {
	db := setupTestDB(t)
	g := albums
	g.ParentTable = ""

	assert.NoError(t, g.Lock(db, 42))
}
