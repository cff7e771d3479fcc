package auth

import "time"

const (
	RoleStaff = "STAFF"
	RoleAdmin = "ADMIN"
)

// User is a dining staff account. Staff belong to one school; admins may
// leave SchoolID empty.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	SchoolID  string    `json:"school_id"`
	CreatedAt time.Time `json:"created_at"`
}
