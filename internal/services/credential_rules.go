package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"accounts/internal/models"

	"github.com/go-playground/validator/v10"
)

// emailPattern accepts local@domain.tld where the final label is alphabetic.
var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]+$`)

// ValidEmail reports whether email has an acceptable format.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// newUserValidate builds the validator used for candidates, with the custom
// tags referenced by models.CandidateUser.
func newUserValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration errors only occur for empty tags or nil functions.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("useremail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return v
}

var fieldKinds = map[string]models.FailureKind{
	"Name":                 models.NameInvalid,
	"Email":                models.EmailInvalid,
	"Password":             models.PasswordInvalid,
	"PasswordConfirmation": models.PasswordConfirmationMismatch,
}

// toFailures converts validator output into failures. Any other error is
// returned unchanged.
func toFailures(err error) (models.Failures, error) {
	if err == nil {
		return nil, nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil, err
	}

	failures := make(models.Failures, 0, len(ves))
	for _, fe := range ves {
		kind, ok := fieldKinds[fe.StructField()]
		if !ok {
			return nil, fmt.Errorf("unexpected field %s in validation result", fe.StructNamespace())
		}
		failures = append(failures, models.Failure{
			Field:   fe.Field(),
			Kind:    kind,
			Message: failureMessage(fe),
		})
	}
	return failures, nil
}

func failureMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "can't be blank"
	case "min":
		return fmt.Sprintf("is too short (minimum is %s characters)", fe.Param())
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "eqfield":
		return "doesn't match " + fe.Param()
	default:
		return "is invalid"
	}
}

const emailTakenMessage = "has already been taken"

func emailTakenFailure() models.Failure {
	return models.Failure{Field: "email", Kind: models.EmailTaken, Message: emailTakenMessage}
}
