package photo

import (
	"context"
	"errors"

	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/selection"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// coverGroup is the single-selection relation of cover photos per project.
var coverGroup = selection.Group{
	Table:       "photos",
	GroupColumn: "project_id",
	FlagColumn:  "is_cover_image",
	ParentTable: "projects",
}

// MySQLStore implements the Store interface using GORM.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new GORM-backed photo store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new photo in the database.
func (s *MySQLStore) Create(ctx context.Context, photo *Photo) error {
	if err := photo.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := coverGroup.Lock(tx, photo.ProjectID); err != nil {
			if errors.Is(err, selection.ErrParentNotFound) {
				return project.ErrProjectNotFound
			}
			return err
		}

		if err := tx.Create(photo).Error; err != nil {
			return err
		}
		if photo.IsCoverImage {
			return coverGroup.Select(tx, photo.ProjectID, photo.ID)
		}
		return nil
	})

	if err != nil {
		if !errors.Is(err, project.ErrProjectNotFound) {
			s.logger.Error(ctx, "failed to create photo", map[string]interface{}{
				"error":      err.Error(),
				"project_id": photo.ProjectID,
				"title":      photo.Title,
			})
		}
		return err
	}

	s.logger.Info(ctx, "photo created", map[string]interface{}{
		"photo_id":       photo.ID,
		"project_id":     photo.ProjectID,
		"is_cover_image": photo.IsCoverImage,
	})

	return nil
}

// GetByID retrieves a photo by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uint) (*Photo, error) {
	return s.getByIDWithTx(ctx, s.db, id)
}

func (s *MySQLStore) getByIDWithTx(ctx context.Context, tx *gorm.DB, id uint) (*Photo, error) {
	var photo Photo
	err := tx.WithContext(ctx).
		Where("id = ?", id).
		First(&photo).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		s.logger.Error(ctx, "failed to get photo by ID", map[string]interface{}{
			"error":    err.Error(),
			"photo_id": id,
		})
		return nil, err
	}

	return &photo, nil
}

// Update applies setters to a photo and saves it. If the photo ends up as
// cover, every other photo of its project is unmarked in the same transaction.
func (s *MySQLStore) Update(ctx context.Context, id uint, setters ...UpdateSetter) (*Photo, error) {
	var photo *Photo

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.getByIDWithTx(ctx, tx, id)
		if err != nil {
			return err
		}

		// Parent first, then member: the same order Create uses.
		if err := coverGroup.Lock(tx, current.ProjectID); err != nil {
			return err
		}

		var locked Photo
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&locked).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPhotoNotFound
			}
			return err
		}

		if err := Apply(&locked, setters...); err != nil {
			return err
		}
		if err := locked.Validate(); err != nil {
			return err
		}

		if err := tx.Save(&locked).Error; err != nil {
			return err
		}

		if locked.IsCoverImage {
			if err := coverGroup.Select(tx, locked.ProjectID, locked.ID); err != nil {
				return err
			}
		}

		photo = &locked
		return nil
	})

	if err != nil {
		if !isValidationError(err) && !errors.Is(err, ErrPhotoNotFound) {
			s.logger.Error(ctx, "failed to update photo", map[string]interface{}{
				"error":    err.Error(),
				"photo_id": id,
			})
		}
		return nil, err
	}

	s.logger.Info(ctx, "photo updated", map[string]interface{}{
		"photo_id":       id,
		"is_cover_image": photo.IsCoverImage,
	})

	return photo, nil
}

// Delete removes a photo record. The blob is left to the caller.
func (s *MySQLStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Photo{}, id)
	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete photo", map[string]interface{}{
			"error":    result.Error.Error(),
			"photo_id": id,
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrPhotoNotFound
	}

	s.logger.Info(ctx, "photo deleted", map[string]interface{}{
		"photo_id": id,
	})

	return nil
}

// ListByProject retrieves the photos of a project. Photos without an index
// come last; ties are broken by ID.
func (s *MySQLStore) ListByProject(ctx context.Context, projectID uint) ([]*Photo, error) {
	var photos []*Photo
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("display_index IS NULL").
		Order("display_index ASC").
		Order("id ASC").
		Find(&photos).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list photos by project", map[string]interface{}{
			"error":      err.Error(),
			"project_id": projectID,
		})
		return nil, err
	}

	return photos, nil
}

// SetCover makes the photo its project's only cover.
func (s *MySQLStore) SetCover(ctx context.Context, id uint) (*Photo, error) {
	return s.Update(ctx, id, SetIsCoverImage(true))
}

// Cover retrieves the cover photo of a project.
func (s *MySQLStore) Cover(ctx context.Context, projectID uint) (*Photo, error) {
	id, err := coverGroup.Selected(s.db.WithContext(ctx), projectID)
	if err != nil {
		if errors.Is(err, selection.ErrNoneSelected) {
			return nil, ErrNoCover
		}
		s.logger.Error(ctx, "failed to get cover photo", map[string]interface{}{
			"error":      err.Error(),
			"project_id": projectID,
		})
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTitle) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrInvalidImagePath) ||
		errors.Is(err, ErrInvalidProjectID)
}
