package dto

import "users_api/internal/model"

// UserRequest is the body of POST /users and PUT /users/:id. Any id in the
// body is ignored.
type UserRequest struct {
	Name *string  `json:"name"`
	Age  *float64 `json:"age"`
}

func (r UserRequest) ToModel() model.User {
	return model.User{Name: r.Name, Age: r.Age}
}

type ErrorResponse struct {
	Message string `json:"message"`
}
