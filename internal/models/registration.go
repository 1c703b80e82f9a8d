package models

import "time"

// Reply statuses sent back to the requester of a registration.
const (
	StatusRegistered = "registered"
	StatusRejected   = "rejected"
	StatusMalformed  = "malformed"
	StatusError      = "error"
)

// UserRegisteredEvent is published once a user has been stored.
type UserRegisteredEvent struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// RegistrationReply answers a registration request.
type RegistrationReply struct {
	Status   string   `json:"status"`
	User     *User    `json:"user,omitempty"`
	Failures Failures `json:"failures,omitempty"`
	Error    string   `json:"error,omitempty"`
}
