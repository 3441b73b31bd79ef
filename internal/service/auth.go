package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/trocly/troc-server/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// SignUp registers a new user. Every user gets a unique sponsor code; a
// referred-by code, when supplied, must resolve to an existing sponsor.
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	if req.ReferredByCode != nil && *req.ReferredByCode != "" {
		sponsor, err := s.repo.GetUserBySponsorCode(ctx, *req.ReferredByCode)
		if err != nil {
			return nil, fmt.Errorf("error resolving sponsor code: %w", err)
		}
		if sponsor == nil {
			return nil, ErrUserNotFound
		}
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	sponsorCode, err := s.newSponsorCode(ctx)
	if err != nil {
		return nil, err
	}

	// Create the user
	user := &models.User{
		ID:             uuid.New().String(),
		Email:          req.Email,
		Name:           req.Name,
		Password:       string(hashedPassword),
		Role:           "user",
		TokenBalance:   s.signupTokenGrant,
		SponsorCode:    sponsorCode,
		ReferredByCode: req.ReferredByCode,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		SponsorCode: user.SponsorCode,
	}, nil
}

// Login verifies credentials and issues a bearer token carrying id, email
// and role.
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	// Get the user
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// newSponsorCode derives a short invite code and retries on the unlikely
// collision with an existing one.
func (s *DefaultService) newSponsorCode(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		code := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
		existing, err := s.repo.GetUserBySponsorCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("error checking sponsor code: %w", err)
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique sponsor code")
}

func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":   user.ID, // subject
		"email": user.Email,
		"role":  user.Role,
		"exp":   expirationTime.Unix(),
		"iat":   time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
