package entity

import "time"

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	Base
	Username  string   `db:"username"`
	Email     string   `db:"email"`
	Role      UserRole `db:"role"`
	Bio       string   `db:"bio"`
	FirstName string   `db:"first_name"`
	LastName  string   `db:"last_name"`

	// Only the bcrypt hash of the confirmation code is persisted.
	ConfirmationCodeHash *string    `db:"confirmation_code_hash"`
	ConfirmationSentAt   *time.Time `db:"confirmation_sent_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
