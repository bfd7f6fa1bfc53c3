// Package selection keeps a boolean flag set on at most one member of each
// group, such as the cover photo of a project.
//
// Every operation runs on the transaction handed in by the caller. The
// parent row of the group is locked first so concurrent writers to the same
// group serialize; writers to different groups do not contend.
package selection

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrParentNotFound is returned when the group's parent row does not exist.
	ErrParentNotFound = errors.New("selection: parent row not found")

	// ErrNoneSelected is returned by Selected when no member carries the flag.
	ErrNoneSelected = errors.New("selection: no member selected")
)

// Group describes a single-selection relation between member rows and the
// parent row they belong to.
type Group struct {
	// Table holds the member rows.
	Table string

	// GroupColumn is the member column referencing the parent id.
	GroupColumn string

	// FlagColumn is the boolean column kept unique per group.
	FlagColumn string

	// ParentTable holds the rows locked while the flag changes.
	// Empty skips locking.
	ParentTable string
}

// Lock takes a row lock on the parent of groupID until tx ends.
// Dialects without row locks (SQLite) rely on their database-level write lock.
func (g Group) Lock(tx *gorm.DB, groupID uint) error {
	if g.ParentTable == "" {
		return nil
	}

	var ids []uint
	err := tx.Table(g.ParentTable).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", groupID).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to lock %s %d: %w", g.ParentTable, groupID, err)
	}
	if len(ids) == 0 {
		return ErrParentNotFound
	}
	return nil
}

// ClearOthers unsets the flag on every member of groupID except memberID.
// A zero memberID clears the whole group.
func (g Group) ClearOthers(tx *gorm.DB, groupID, memberID uint) error {
	q := tx.Table(g.Table).
		Where(g.GroupColumn+" = ?", groupID).
		Where(g.FlagColumn+" = ?", true)
	if memberID != 0 {
		q = q.Where("id <> ?", memberID)
	}

	if err := q.Update(g.FlagColumn, false).Error; err != nil {
		return fmt.Errorf("failed to clear %s.%s: %w", g.Table, g.FlagColumn, err)
	}
	return nil
}

// Select makes memberID the only flagged member of groupID.
func (g Group) Select(tx *gorm.DB, groupID, memberID uint) error {
	if err := g.Lock(tx, groupID); err != nil {
		return err
	}
	if err := g.ClearOthers(tx, groupID, memberID); err != nil {
		return err
	}

	res := tx.Table(g.Table).
		Where("id = ? AND "+g.GroupColumn+" = ?", memberID, groupID).
		Update(g.FlagColumn, true)
	if res.Error != nil {
		return fmt.Errorf("failed to set %s.%s: %w", g.Table, g.FlagColumn, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQL reports zero affected rows when the flag was already set.
	var n int64
	err := tx.Table(g.Table).
		Where("id = ? AND "+g.GroupColumn+" = ?", memberID, groupID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("failed to check %s %d: %w", g.Table, memberID, err)
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Selected returns the id of the flagged member of groupID.
// If more than one row carries the flag the lowest id wins.
func (g Group) Selected(db *gorm.DB, groupID uint) (uint, error) {
	var ids []uint
	err := db.Table(g.Table).
		Where(g.GroupColumn+" = ?", groupID).
		Where(g.FlagColumn+" = ?", true).
		Order("id ASC").
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrNoneSelected
	}
	return ids[0], nil
}
