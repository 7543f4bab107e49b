package request

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	FirstName       string  `json:"first_name" binding:"required,max=255"`
	LastName        string  `json:"last_name" binding:"max=255"`
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required,min=8"`
	PasswordConfirm string  `json:"password_confirm" binding:"required,eqfield=Password"`
	CompanyName     *string `json:"company_name" binding:"omitempty,max=255"`
}

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// UpdateProfileRequest represents a profile update, including the company block printed on invoices
type UpdateProfileRequest struct {
	FirstName      string  `json:"first_name" binding:"max=255"`
	LastName       string  `json:"last_name" binding:"max=255"`
	Photo          *string `json:"photo"`
	CompanyName    *string `json:"company_name" binding:"omitempty,max=255"`
	CompanyAddress *string `json:"company_address"`
	CompanyPhone   *string `json:"company_phone" binding:"omitempty,max=50"`
	CompanyEmail   *string `json:"company_email" binding:"omitempty,email"`
}
