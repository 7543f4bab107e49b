package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/repository"
	"github.com/sangkips/quickbill-api/pkg/apperror"
	"github.com/sangkips/quickbill-api/pkg/oauth"
	"github.com/sangkips/quickbill-api/pkg/utils"
)

const minPasswordLength = 8

// IdentityProvider resolves an OAuth authorization code into a verified profile
type IdentityProvider interface {
	IsConfigured() bool
	GetAuthURL(state string) string
	Authenticate(ctx context.Context, code string) (*oauth.Identity, error)
}

// AuthService handles authentication-related operations
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	identity   IdentityProvider
}

// NewAuthService creates a new auth service. identity may be nil when OAuth is disabled.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	identity IdentityProvider,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		identity:   identity,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	// OAuth-only accounts have no password to check against
	if user == nil || user.Password == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// RegisterInput represents the registration input
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	CompanyName *string
}

// Register creates a new user account and signs it in
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*LoginOutput, error) {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.FirstName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "first_name", Message: "first name is required"})
	}
	if strings.TrimSpace(input.Email) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "email", Message: "email is required"})
	}
	if len(input.Password) < minPasswordLength {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	email := normalizeEmail(input.Email)
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, apperror.NewConflictError("Email already registered")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       email,
		Password:    hashedPassword,
		Provider:    "local",
		CompanyName: input.CompanyName,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateRepoError(err, "Account")
	}

	return s.issueTokens(user)
}

// RefreshToken generates new tokens from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken
	}

	return s.issueTokens(user)
}

// GetCurrentUser returns the current user by ID
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// ChangePasswordInput represents the change password input
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// ChangePassword changes the user's password
func (s *AuthService) ChangePassword(ctx context.Context, input *ChangePasswordInput) error {
	user, err := s.GetCurrentUser(ctx, input.UserID)
	if err != nil {
		return err
	}

	if user.Password != "" && !utils.CheckPasswordHash(input.CurrentPassword, user.Password) {
		return apperror.NewFieldError("current_password", "current password is incorrect")
	}
	if len(input.NewPassword) < minPasswordLength {
		return apperror.NewFieldError("new_password", "password must be at least 8 characters")
	}

	hashedPassword, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}

// UpdateProfileInput represents the update profile input
type UpdateProfileInput struct {
	UserID         uuid.UUID
	FirstName      string
	LastName       string
	Photo          *string
	CompanyName    *string
	CompanyAddress *string
	CompanyPhone   *string
	CompanyEmail   *string
}

// UpdateProfile updates the user's profile and the company details printed on invoices
func (s *AuthService) UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*entity.User, error) {
	user, err := s.GetCurrentUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Photo != nil {
		user.Photo = input.Photo
	}
	if input.CompanyName != nil {
		user.CompanyName = input.CompanyName
	}
	if input.CompanyAddress != nil {
		user.CompanyAddress = input.CompanyAddress
	}
	if input.CompanyPhone != nil {
		user.CompanyPhone = input.CompanyPhone
	}
	if input.CompanyEmail != nil {
		user.CompanyEmail = input.CompanyEmail
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// OAuthEnabled reports whether an identity provider is configured
func (s *AuthService) OAuthEnabled() bool {
	return s.identity != nil && s.identity.IsConfigured()
}

// OAuthURL returns the provider consent URL for state
func (s *AuthService) OAuthURL(state string) (string, error) {
	if !s.OAuthEnabled() {
		return "", apperror.NewBadRequestError("OAuth login is not configured")
	}
	return s.identity.GetAuthURL(state), nil
}

// OAuthLogin exchanges code for a profile, then finds, links or creates the matching user
func (s *AuthService) OAuthLogin(ctx context.Context, code string) (*LoginOutput, error) {
	if !s.OAuthEnabled() {
		return nil, apperror.NewBadRequestError("OAuth login is not configured")
	}

	identity, err := s.identity.Authenticate(ctx, code)
	if err != nil {
		if errors.Is(err, oauth.ErrEmailNotVerified) {
			return nil, apperror.NewAuthorizationError(err.Error())
		}
		return nil, apperror.NewAuthorizationError("OAuth sign-in failed")
	}

	user, err := s.userRepo.GetByProviderID(ctx, identity.Provider, identity.ProviderID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return s.issueTokens(user)
	}

	email := normalizeEmail(identity.Email)
	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	providerID := identity.ProviderID
	if user != nil {
		// link the provider to an existing password account with the same verified email
		user.Provider = identity.Provider
		user.ProviderID = &providerID
		if user.EmailVerifiedAt == nil {
			user.EmailVerifiedAt = &now
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
		return s.issueTokens(user)
	}

	user = &entity.User{
		FirstName:       identity.FirstName,
		LastName:        identity.LastName,
		Email:           email,
		Provider:        identity.Provider,
		ProviderID:      &providerID,
		EmailVerifiedAt: &now,
	}
	if identity.Photo != "" {
		photo := identity.Photo
		user.Photo = &photo
	}
	if user.FirstName == "" {
		user.FirstName = email
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateRepoError(err, "Account")
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *entity.User) (*LoginOutput, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.AccessTokenExpiry().Seconds()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
