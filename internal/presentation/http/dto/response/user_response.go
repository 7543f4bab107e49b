package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
)

// UserResponse is the profile returned to the account owner
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Provider       string    `json:"provider"`
	Photo          *string   `json:"photo,omitempty"`
	CompanyName    *string   `json:"company_name,omitempty"`
	CompanyAddress *string   `json:"company_address,omitempty"`
	CompanyPhone   *string   `json:"company_phone,omitempty"`
	CompanyEmail   *string   `json:"company_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUserResponse builds the profile view of user
func NewUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Provider:       user.Provider,
		Photo:          user.Photo,
		CompanyName:    user.CompanyName,
		CompanyAddress: user.CompanyAddress,
		CompanyPhone:   user.CompanyPhone,
		CompanyEmail:   user.CompanyEmail,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
}
