package dto

// RegisterRequest creates an admin or a student account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=6"`
	School   string `json:"school" validate:"omitempty,max=255"`
	Class    string `json:"class" validate:"omitempty,max=32"`
	Role     string `json:"role" validate:"omitempty,oneof=admin student"`
}

// LoginRequest carries account credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"expires_at"`
}

// ResetPasswordRequest replaces the password of the account with Email.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// AccountResponse describes a newly registered account.
type AccountResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
