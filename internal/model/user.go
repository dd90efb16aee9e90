package model

// User is a single record of the users collection. Name and Age are nil when
// the caller left them out on create.
type User struct {
	ID   string   `json:"id"`
	Name *string  `json:"name,omitempty"`
	Age  *float64 `json:"age,omitempty"`
}

// Clone returns a copy that shares no memory with u.
func (u User) Clone() User {
	out := User{ID: u.ID}
	if u.Name != nil {
		name := *u.Name
		out.Name = &name
	}
	if u.Age != nil {
		age := *u.Age
		out.Age = &age
	}
	return out
}
