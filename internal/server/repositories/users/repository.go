// Package users declares the repository contract for the credential store:
// account rows with email, bcrypt hash, role, and active status.
package users

import (
	"context"

	"gymkeeper/internal/server/models"
)

// Repository defines the operations the auth flows need from the user store.
// The token lifecycle treats accounts as read-only except for Create.
type Repository interface {
	// Create inserts a new user and returns it with id and timestamps set.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmail looks up a user by normalized email.
	// Returns common.ErrorNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID looks up a user by id.
	// Returns common.ErrorNotFound when absent.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// ExistsByEmail reports whether an account with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
