package photo

import (
	"context"
)

// Store defines the interface for photo persistence operations.
// Implementations keep at most one cover photo per project.
type Store interface {
	// Create creates a new photo. A cover photo replaces the project's current cover.
	Create(ctx context.Context, photo *Photo) error

	// GetByID retrieves a photo by its ID.
	GetByID(ctx context.Context, id uint) (*Photo, error)

	// Update updates a photo with the given setters.
	Update(ctx context.Context, id uint, setters ...UpdateSetter) (*Photo, error)

	// Delete removes a photo record.
	Delete(ctx context.Context, id uint) error

	// ListByProject retrieves the photos of a project by display index.
	ListByProject(ctx context.Context, projectID uint) ([]*Photo, error)

	// SetCover makes the photo its project's only cover.
	SetCover(ctx context.Context, id uint) (*Photo, error)

	// Cover retrieves the cover photo of a project.
	Cover(ctx context.Context, projectID uint) (*Photo, error)
}

// UpdateSetter is a function that updates a photo field.
type UpdateSetter func(*Photo) error
