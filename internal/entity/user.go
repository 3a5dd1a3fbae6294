package entity

import (
	"github.com/gofrs/uuid/v5"
)

type User struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Role      string
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAccessOrder reports whether u owns the order or is an admin.
func (u User) CanAccessOrder(o Order) bool {
	return u.IsAdmin() || (u.ID != uuid.Nil && u.ID == o.UserID)
}
