package memory

import (
	"go.uber.org/zap"
	"users_api/internal/model"
)

// Store keeps users in insertion order for the lifetime of the process.
// It is not safe for concurrent use; users.Service serializes access.
type Store struct {
	records []model.User
	log     *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{records: make([]model.User, 0, 16), log: logger}
}
