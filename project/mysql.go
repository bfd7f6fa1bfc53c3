package project

import (
	"context"
	"errors"

	"github.com/rearqui/portfolio/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// photosTable is the table holding photos owned by projects.
const photosTable = "photos"

// MySQLStore implements the Store interface using GORM.
// It runs unchanged against the MySQL, Postgres and SQLite dialects.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new GORM-backed project store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new project in the database.
func (s *MySQLStore) Create(ctx context.Context, project *Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		s.logger.Error(ctx, "failed to create project", map[string]interface{}{
			"error": err.Error(),
			"name":  project.Name,
		})
		return err
	}

	s.logger.Info(ctx, "project created", map[string]interface{}{
		"project_id": project.ID,
		"name":       project.Name,
	})

	return nil
}

// GetByID retrieves a project by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uint) (*Project, error) {
	var project Project
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&project).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error(ctx, "failed to get project by ID", map[string]interface{}{
			"error":      err.Error(),
			"project_id": id,
		})
		return nil, err
	}

	return &project, nil
}

// GetByName retrieves the single project with exactly this name.
func (s *MySQLStore) GetByName(ctx context.Context, name string) (*Project, error) {
	var projects []*Project
	err := s.db.WithContext(ctx).
		Where("name = ?", name).
		Order("id ASC").
		Limit(2).
		Find(&projects).Error

	if err != nil {
		s.logger.Error(ctx, "failed to get project by name", map[string]interface{}{
			"error": err.Error(),
			"name":  name,
		})
		return nil, err
	}

	switch len(projects) {
	case 0:
		return nil, ErrProjectNotFound
	case 1:
		return projects[0], nil
	default:
		return nil, ErrAmbiguousName
	}
}

// Update applies setters to a project and saves it.
func (s *MySQLStore) Update(ctx context.Context, id uint, setters ...UpdateSetter) (*Project, error) {
	var project Project

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		if err := Apply(&project, setters...); err != nil {
			return err
		}
		if err := project.Validate(); err != nil {
			return err
		}

		return tx.Save(&project).Error
	})

	if err != nil {
		if !errors.Is(err, ErrProjectNotFound) && !errors.Is(err, ErrInvalidProjectName) && !errors.Is(err, ErrNameTooLong) {
			s.logger.Error(ctx, "failed to update project", map[string]interface{}{
				"error":      err.Error(),
				"project_id": id,
			})
		}
		return nil, err
	}

	s.logger.Info(ctx, "project updated", map[string]interface{}{
		"project_id": id,
	})

	return &project, nil
}

// Delete removes a project and its photos in one transaction.
func (s *MySQLStore) Delete(ctx context.Context, id uint) error {
	var photos int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec("DELETE FROM "+photosTable+" WHERE project_id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		photos = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrProjectNotFound) {
			s.logger.Error(ctx, "failed to delete project", map[string]interface{}{
				"error":      err.Error(),
				"project_id": id,
			})
		}
		return err
	}

	s.logger.Info(ctx, "project deleted", map[string]interface{}{
		"project_id":     id,
		"photos_deleted": photos,
	})

	return nil
}

// DeleteAll removes every project and photo.
func (s *MySQLStore) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM " + photosTable).Error; err != nil {
			return err
		}
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Project{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to delete all projects", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, err
	}

	s.logger.Info(ctx, "all projects deleted", map[string]interface{}{
		"projects_deleted": deleted,
	})

	return deleted, nil
}

// List retrieves every project in the requested order.
func (s *MySQLStore) List(ctx context.Context, order Order) ([]*Project, error) {
	q := s.db.WithContext(ctx).Model(&Project{})
	if order == OrderShowcase {
		q = q.Order("public_private_project ASC").
			Order("COALESCE(construction_year, project_year, 0) ASC")
	}

	var projects []*Project
	if err := q.Order("id ASC").Find(&projects).Error; err != nil {
		s.logger.Error(ctx, "failed to list projects", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	return projects, nil
}
