package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/internal/services"
	"accounts/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validCandidate() models.CandidateUser {
	return models.CandidateUser{
		Name:                 "Example User",
		Email:                "user@example.com",
		Password:             "foobar",
		PasswordConfirmation: "foobar",
	}
}

func newValidator(emails repositories.EmailChecker) *services.CredentialValidator {
	return services.NewCredentialValidator(emails, services.NewBcryptHasher(bcrypt.MinCost), logger.Discard())
}

func TestCredentialValidator_ValidCandidate(t *testing.T) {
	hasher := services.NewBcryptHasher(bcrypt.MinCost)
	v := services.NewCredentialValidator(repositories.NewMockUserRepository(), hasher, logger.Discard())

	result, err := v.Validate(context.Background(), validCandidate())
	require.NoError(t, err)

	assert.True(t, result.Valid())
	require.NotNil(t, result.User)
	assert.Equal(t, "Example User", result.User.Name)
	assert.Equal(t, "user@example.com", result.User.Email)
	assert.NotEmpty(t, result.User.PasswordHash)
	assert.NotContains(t, result.User.PasswordHash, "foobar")
	assert.True(t, hasher.Check("foobar", result.User.PasswordHash))
}

func TestCredentialValidator_Name(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		valid   bool
		message string
	}{
		{"empty", "", false, "can't be blank"},
		{"whitespace", "   ", false, "can't be blank"},
		{"fifty characters", strings.Repeat("a", 50), true, ""},
		{"fifty-one characters", strings.Repeat("a", 51), false, "is too long (maximum is 50 characters)"},
		{"multibyte within limit", strings.Repeat("é", 50), true, ""},
	}

	v := newValidator(repositories.NewMockUserRepository())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			c.Name = tt.value

			result, err := v.Validate(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid())
			if !tt.valid {
				require.Equal(t, []models.FailureKind{models.NameInvalid}, result.Failures.Kinds())
				assert.Equal(t, "name", result.Failures[0].Field)
				assert.Equal(t, tt.message, result.Failures[0].Message)
			}
		})
	}
}

func TestCredentialValidator_EmailFormat(t *testing.T) {
	v := newValidator(repositories.NewMockUserRepository())

	for _, email := range []string{"user@foo.com", "THE_USER@foo.bar.org", "f.last@foo.jp", "a+b%c-d@sub-domain.example.io"} {
		t.Run("valid "+email, func(t *testing.T) {
			c := validCandidate()
			c.Email = email
			result, err := v.Validate(context.Background(), c)
			require.NoError(t, err)
			assert.True(t, result.Valid(), "%s should be accepted: %s", email, result.Failures)
		})
	}

	for _, email := range []string{"", "user@foo,com", "user_at_foo.org", "THE_USER_at_foo.bar.org", "f.last@foo.", "user@foo", "user@.com", "us er@foo.com"} {
		t.Run("invalid "+email, func(t *testing.T) {
			c := validCandidate()
			c.Email = email
			result, err := v.Validate(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, []models.FailureKind{models.EmailInvalid}, result.Failures.Kinds())
			assert.Nil(t, result.User)
		})
	}
}

func TestCredentialValidator_EmailTakenIgnoresCase(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	require.NoError(t, repo.Create(context.Background(), &models.User{Name: "Existing", Email: "user@example.com", PasswordHash: "x"}))

	c := validCandidate()
	c.Email = "USER@EXAMPLE.COM"

	result, err := newValidator(repo).Validate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []models.FailureKind{models.EmailTaken}, result.Failures.Kinds())
	assert.Equal(t, "has already been taken", result.Failures[0].Message)
}

func TestCredentialValidator_ChecksNormalizedEmail(t *testing.T) {
	checker := new(MockUserRepository)
	checker.On("EmailExists", mock.Anything, "example@gmail.com").Return(true, nil).Once()

	c := validCandidate()
	c.Email = "EXAMPLE@GMAIL.COM"

	result, err := newValidator(checker).Validate(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, result.Failures.Has(models.EmailTaken))
	checker.AssertExpectations(t)
}

func TestCredentialValidator_SkipsExistenceCheckForInvalidEmail(t *testing.T) {
	checker := new(MockUserRepository)

	c := validCandidate()
	c.Email = "user@foo,com"

	result, err := newValidator(checker).Validate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []models.FailureKind{models.EmailInvalid}, result.Failures.Kinds())
	checker.AssertNotCalled(t, "EmailExists", mock.Anything, mock.Anything)
}

func TestCredentialValidator_Password(t *testing.T) {
	tests := []struct {
		name     string
		password models.Secret
		valid    bool
		message  string
	}{
		{"blank", "", false, "can't be blank"},
		{"five characters", "aaaaa", false, "is too short (minimum is 6 characters)"},
		{"six characters", "aaaaaa", true, ""},
		{"forty characters", models.Secret(strings.Repeat("a", 40)), true, ""},
		{"forty-one characters", models.Secret(strings.Repeat("a", 41)), false, "is too long (maximum is 40 characters)"},
		{"forty multibyte characters", models.Secret(strings.Repeat("ß", 40)), true, ""},
	}

	v := newValidator(repositories.NewMockUserRepository())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			c.Password = tt.password
			c.PasswordConfirmation = tt.password

			result, err := v.Validate(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid())
			if !tt.valid {
				require.Equal(t, []models.FailureKind{models.PasswordInvalid}, result.Failures.Kinds())
				assert.Equal(t, tt.message, result.Failures[0].Message)
			}
		})
	}
}

func TestCredentialValidator_ConfirmationMismatch(t *testing.T) {
	v := newValidator(repositories.NewMockUserRepository())

	for _, confirmation := range []models.Secret{"invalid", "", "Foobar", "foobar "} {
		c := validCandidate()
		c.PasswordConfirmation = confirmation

		result, err := v.Validate(context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, []models.FailureKind{models.PasswordConfirmationMismatch}, result.Failures.Kinds())
		assert.Equal(t, "doesn't match Password", result.Failures[0].Message)
	}
}

func TestCredentialValidator_CollectsAllFailures(t *testing.T) {
	checker := new(MockUserRepository)
	hasher := &countingHasher{}
	v := services.NewCredentialValidator(checker, hasher, logger.Discard())

	result, err := v.Validate(context.Background(), models.CandidateUser{
		Name:                 "",
		Email:                "user_at_foo.org",
		Password:             "abc",
		PasswordConfirmation: "xyz",
	})
	require.NoError(t, err)

	assert.Equal(t, []models.FailureKind{
		models.NameInvalid,
		models.EmailInvalid,
		models.PasswordInvalid,
		models.PasswordConfirmationMismatch,
	}, result.Failures.Kinds())
	assert.Nil(t, result.User)
	assert.Zero(t, hasher.calls, "rejected candidates must not be hashed")
	checker.AssertNotCalled(t, "EmailExists", mock.Anything, mock.Anything)
}

func TestCredentialValidator_TakenAndInvalidPassword(t *testing.T) {
	checker := new(MockUserRepository)
	checker.On("EmailExists", mock.Anything, "user@example.com").Return(true, nil).Once()

	c := validCandidate()
	c.Password = "abc"
	c.PasswordConfirmation = "abc"

	result, err := newValidator(checker).Validate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []models.FailureKind{models.EmailTaken, models.PasswordInvalid}, result.Failures.Kinds())
	checker.AssertExpectations(t)
}

func TestCredentialValidator_ExistenceCheckError(t *testing.T) {
	checker := new(MockUserRepository)
	checker.On("EmailExists", mock.Anything, "user@example.com").Return(false, errors.New("connection refused")).Once()

	_, err := newValidator(checker).Validate(context.Background(), validCandidate())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	checker.AssertExpectations(t)
}

func TestCredentialValidator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newValidator(repositories.NewMockUserRepository()).Validate(ctx, validCandidate())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCredentialValidator_SaltedHashes(t *testing.T) {
	v := newValidator(repositories.NewMockUserRepository())

	first, err := v.Validate(context.Background(), validCandidate())
	require.NoError(t, err)
	second, err := v.Validate(context.Background(), validCandidate())
	require.NoError(t, err)

	assert.NotEqual(t, first.User.PasswordHash, second.User.PasswordHash)
}

func TestCredentialValidator_RepeatedCallsAgree(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	require.NoError(t, repo.Create(context.Background(), &models.User{Name: "Existing", Email: "taken@example.com", PasswordHash: "x"}))
	v := newValidator(repo)

	taken := validCandidate()
	taken.Email = "Taken@Example.com"

	for name, candidate := range map[string]models.CandidateUser{
		"passing": validCandidate(),
		"failing": {Name: "", Email: "x", Password: "abc", PasswordConfirmation: "abd"},
		"taken":   taken,
	} {
		t.Run(name, func(t *testing.T) {
			first, err := v.Validate(context.Background(), candidate)
			require.NoError(t, err)
			second, err := v.Validate(context.Background(), candidate)
			require.NoError(t, err)

			assert.Equal(t, first.Valid(), second.Valid())
			assert.Equal(t, first.Failures, second.Failures)
			if first.Valid() {
				assert.Equal(t, first.User.Name, second.User.Name)
				assert.Equal(t, first.User.Email, second.User.Email)
			}
		})
	}
}
