package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"accounts/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users   map[string]models.User
	byEmail map[string]string // email key -> user ID
	mu      sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// Create adds a new user, rejecting an email key that is already held.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.NormalizeEmail(user.Email)
	if _, taken := r.byEmail[key]; taken {
		return fmt.Errorf("failed to create user %s: %w", user.Email, ErrDuplicateKey)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if _, taken := r.users[user.ID]; taken {
		return fmt.Errorf("failed to create user with ID %s: %w", user.ID, ErrDuplicateID)
	}

	now := time.Now()
	user.EmailKey = key
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	r.byEmail[key] = user.ID
	return nil
}

// EmailExists reports whether the normalized email is held.
func (r *MockUserRepository) EmailExists(_ context.Context, normalizedEmail string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[normalizedEmail]
	return ok, nil
}

// GetByEmail returns a user by email, ignoring case.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, ErrUserNotFound)
	}
	user := r.users[id]
	return &user, nil
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
	}
	return &user, nil
}
