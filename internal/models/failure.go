package models

import (
	"fmt"
	"sort"
	"strings"
)

// FailureKind identifies which rule a candidate broke.
type FailureKind int

// Kinds are declared in the order their rules are evaluated.
const (
	NameInvalid FailureKind = iota + 1
	EmailInvalid
	EmailTaken
	PasswordInvalid
	PasswordConfirmationMismatch
)

var failureKindNames = map[FailureKind]string{
	NameInvalid:                  "name_invalid",
	EmailInvalid:                 "email_invalid",
	EmailTaken:                   "email_taken",
	PasswordInvalid:              "password_invalid",
	PasswordConfirmationMismatch: "password_confirmation_mismatch",
}

func (k FailureKind) String() string {
	if name, ok := failureKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("failure_kind(%d)", int(k))
}

func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FailureKind) UnmarshalText(text []byte) error {
	for kind, name := range failureKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown failure kind %q", text)
}

// Failure is one broken rule.
type Failure struct {
	Field   string      `json:"field"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f Failure) String() string {
	return f.Field + " " + f.Message
}

// Failures is the complete set of broken rules for one candidate.
type Failures []Failure

// Has reports whether a failure of the given kind is present.
func (fs Failures) Has(kind FailureKind) bool {
	for _, f := range fs {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds lists the kinds in order.
func (fs Failures) Kinds() []FailureKind {
	kinds := make([]FailureKind, 0, len(fs))
	for _, f := range fs {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}

// Sort orders failures by rule.
func (fs Failures) Sort() {
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].Kind < fs[j].Kind })
}

func (fs Failures) String() string {
	msgs := make([]string, 0, len(fs))
	for _, f := range fs {
		msgs = append(msgs, f.String())
	}
	return strings.Join(msgs, "; ")
}
