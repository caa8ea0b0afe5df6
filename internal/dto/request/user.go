package request

type CreateUserRequest struct {
	Username  string  `json:"username" validate:"required,max=150,username,notme"`
	Email     string  `json:"email" validate:"required,max=254,email"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=user moderator admin"`
	Bio       string  `json:"bio,omitempty"`
	FirstName string  `json:"first_name,omitempty" validate:"max=150"`
	LastName  string  `json:"last_name,omitempty" validate:"max=150"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,max=150,username,notme"`
	Email     *string `json:"email,omitempty" validate:"omitempty,max=254,email"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=user moderator admin"`
	Bio       *string `json:"bio,omitempty"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
}
