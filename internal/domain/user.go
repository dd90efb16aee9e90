package domain

import (
	"errors"

	"users_api/internal/model"
)

const (
	UserEventCreated  = "created"
	UserEventReplaced = "replaced"
	UserEventDeleted  = "deleted"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidUser  = errors.New("name and age are required")
)

// ValidateReplacement requires a non-empty name and a non-zero age.
// Create deliberately skips this check.
func ValidateReplacement(user model.User) error {
	if user.Name == nil || *user.Name == "" {
		return ErrInvalidUser
	}
	if user.Age == nil || *user.Age == 0 {
		return ErrInvalidUser
	}
	return nil
}
