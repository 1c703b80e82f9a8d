package services

import (
	"context"
	"fmt"

	"accounts/internal/models"
	"accounts/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ValidationResult is either a validated user or the failures that prevented one.
type ValidationResult struct {
	User     *models.ValidatedUser
	Failures models.Failures
}

// Valid reports whether the candidate passed every rule.
func (r ValidationResult) Valid() bool {
	return len(r.Failures) == 0
}

// CredentialValidator checks candidate users and hashes the password of those that pass.
// It holds no per-call state and may be shared between goroutines.
type CredentialValidator struct {
	validate *validator.Validate
	emails   repositories.EmailChecker
	hasher   PasswordHasher
	log      logrus.FieldLogger
}

// NewCredentialValidator creates a new CredentialValidator.
func NewCredentialValidator(emails repositories.EmailChecker, hasher PasswordHasher, log logrus.FieldLogger) *CredentialValidator {
	return &CredentialValidator{
		validate: newUserValidate(),
		emails:   emails,
		hasher:   hasher,
		log:      log,
	}
}

// Validate evaluates every rule against candidate and collects all failures.
// Failures are reported in the result; the error is reserved for the existence
// check, the hasher and ctx.
func (v *CredentialValidator) Validate(ctx context.Context, candidate models.CandidateUser) (ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return ValidationResult{}, err
	}

	failures, err := toFailures(v.validate.StructCtx(ctx, candidate))
	if err != nil {
		return ValidationResult{}, fmt.Errorf("failed to validate candidate: %w", err)
	}

	// Uniqueness is only meaningful for a well-formed address.
	if !failures.Has(models.EmailInvalid) {
		taken, err := v.emails.EmailExists(ctx, models.NormalizeEmail(candidate.Email))
		if err != nil {
			return ValidationResult{}, fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if taken {
			failures = append(failures, emailTakenFailure())
		}
	}

	if len(failures) > 0 {
		failures.Sort()
		v.log.WithFields(logrus.Fields{
			"email":    candidate.Email,
			"failures": failures.Kinds(),
		}).Debug("candidate rejected")
		return ValidationResult{Failures: failures}, nil
	}

	hash, err := v.hasher.Hash(string(candidate.Password))
	if err != nil {
		return ValidationResult{}, err
	}

	return ValidationResult{
		User: &models.ValidatedUser{
			Name:         candidate.Name,
			Email:        candidate.Email,
			PasswordHash: hash,
		},
	}, nil
}
