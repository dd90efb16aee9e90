package repository

import "users_api/internal/model"

// UserRepository holds the ordered users collection. Positions returned by
// FindIndexByID are only valid until the next mutation, so callers must
// serialize lookup and mutation themselves.
type UserRepository interface {
	ListAll() []model.User
	FindIndexByID(id string) (int, bool)
	Insert(user model.User)
	ReplaceAt(index int, user model.User)
	RemoveAt(index int)
	Len() int
}
