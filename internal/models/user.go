package models

import (
	"strings"
	"time"
)

// CandidateUser holds the attributes submitted for a new account, before any rule has been checked.
type CandidateUser struct {
	Name                 string `json:"name" validate:"required,notblank,max=50"`
	Email                string `json:"email" validate:"required,useremail"`
	Password             Secret `json:"password" validate:"required,min=6,max=40"`
	PasswordConfirmation Secret `json:"password_confirmation" validate:"eqfield=Password"`
}

// ValidatedUser is a candidate that passed every rule. The password has been replaced by its hash.
type ValidatedUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// User represents a stored account.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"type:varchar(50);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null"`
	EmailKey     string    `json:"-" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash string    `json:"-" gorm:"column:encrypted_password;type:varchar(255);not null"` // never serialized
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser builds the record to persist from a validated candidate.
func NewUser(v ValidatedUser) *User {
	return &User{
		Name:         v.Name,
		Email:        v.Email,
		EmailKey:     NormalizeEmail(v.Email),
		PasswordHash: v.PasswordHash,
	}
}

// NormalizeEmail returns the key used for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(email)
}
