package user

import (
	"context"
	"errors"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUsername is returned when attempting to create a user with an existing username.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials is returned by Authenticate for any failed sign in.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store defines the interface for user persistence operations.
type Store interface {
	// Create creates a new user in the store.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves an active user by ID.
	GetByID(ctx context.Context, id uint) (*User, error)

	// GetByUsername retrieves an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Update updates a user with the given setters.
	Update(ctx context.Context, id uint, setters ...UpdateSetter) error

	// Delete soft deletes a user by setting is_active to false.
	Delete(ctx context.Context, id uint) error

	// List retrieves a paginated list of active users.
	List(ctx context.Context, limit, offset int) ([]*User, error)
}

// UpdateSetter is a function that updates a user field.
type UpdateSetter func(*User) error

// Authenticate checks a username and password and records the login.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func Authenticate(ctx context.Context, s Store, username, password string) (*User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.Update(ctx, u.ID, SetLastLogin()); err != nil {
		return nil, err
	}

	return u, nil
}
