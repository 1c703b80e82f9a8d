package services

import (
	"context"
	"errors"
	"fmt"

	"accounts/internal/models"
	"accounts/internal/repositories"

	"github.com/sirupsen/logrus"
)

// EventPublisher announces stored users to other services.
type EventPublisher interface {
	PublishUserRegistered(event models.UserRegisteredEvent) error
}

// RegistrationResult is either the stored user or the failures that prevented storing one.
type RegistrationResult struct {
	User     *models.User
	Failures models.Failures
}

// RegistrationService validates candidates and persists the ones that pass.
type RegistrationService struct {
	validator *CredentialValidator
	userRepo  repositories.UserRepository
	publisher EventPublisher
	log       logrus.FieldLogger
}

// NewRegistrationService creates a new RegistrationService. publisher may be nil.
func NewRegistrationService(validator *CredentialValidator, userRepo repositories.UserRepository, publisher EventPublisher, log logrus.FieldLogger) *RegistrationService {
	return &RegistrationService{
		validator: validator,
		userRepo:  userRepo,
		publisher: publisher,
		log:       log,
	}
}

// Register validates candidate, hashes its password and stores it.
// A storage-level duplicate means another registration won the race for the
// email, and is reported as an EmailTaken failure.
func (s *RegistrationService) Register(ctx context.Context, candidate models.CandidateUser) (RegistrationResult, error) {
	result, err := s.validator.Validate(ctx, candidate)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("failed to register user: %w", err)
	}
	if !result.Valid() {
		return RegistrationResult{Failures: result.Failures}, nil
	}

	user := models.NewUser(*result.User)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			s.log.WithField("email", candidate.Email).Info("registration lost race for email")
			return RegistrationResult{Failures: models.Failures{emailTakenFailure()}}, nil
		}
		return RegistrationResult{}, fmt.Errorf("failed to register user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user registered")

	if s.publisher != nil {
		event := models.UserRegisteredEvent{
			UserID:    user.ID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		}
		if err := s.publisher.PublishUserRegistered(event); err != nil {
			// The user is stored; a lost event must not undo that.
			s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to publish user registered event")
		}
	}

	return RegistrationResult{User: user}, nil
}

// Registered reports whether the result holds a stored user.
func (r RegistrationResult) Registered() bool {
	return r.User != nil
}
