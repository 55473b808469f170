package user

import "time"

type User struct {
	ID        int       `json:"userId"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Role values stored in a user's profile record.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// sanitizeUser blanks the password hash before a user leaves the service.
func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
