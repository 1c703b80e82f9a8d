package repositories

import (
	"context"
	"errors"

	"accounts/internal/models"
)

var (
	// ErrUserNotFound is returned when a lookup matches no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateKey is returned by Create when another user already holds the email.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrDuplicateID is returned by Create when the supplied ID is already in use.
	ErrDuplicateID = errors.New("duplicate user ID")
)

// EmailChecker answers whether a normalized email is already registered.
type EmailChecker interface {
	EmailExists(ctx context.Context, normalizedEmail string) (bool, error)
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	EmailChecker
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
