package project

import (
	"context"
)

// Order selects the ordering of List.
type Order int

const (
	// OrderByID lists projects in creation order.
	OrderByID Order = iota

	// OrderShowcase lists public/private group first, then by ShowcaseYear.
	OrderShowcase
)

// Store defines the interface for project persistence operations.
type Store interface {
	// Create creates a new project in the store.
	Create(ctx context.Context, project *Project) error

	// GetByID retrieves a project by its ID.
	GetByID(ctx context.Context, id uint) (*Project, error)

	// GetByName retrieves the single project whose name matches exactly.
	GetByName(ctx context.Context, name string) (*Project, error)

	// Update updates a project with the given setters.
	Update(ctx context.Context, id uint, setters ...UpdateSetter) (*Project, error)

	// Delete removes a project and every photo it owns.
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every project and photo, returning the number of projects removed.
	DeleteAll(ctx context.Context) (int64, error)

	// List retrieves all projects in the given order.
	List(ctx context.Context, order Order) ([]*Project, error)
}

// UpdateSetter is a function that updates a project field.
type UpdateSetter func(*Project) error
