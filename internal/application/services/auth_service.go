package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/todo/internal/domain/entities"
	"github.com/taskmaster/todo/internal/infrastructure/config"
	"github.com/taskmaster/todo/internal/infrastructure/logger"
	"github.com/taskmaster/todo/internal/ports"
)

// AuthService handles registration, login and access-token validation.
// Tokens are stateless; logging out is the client discarding its token.
type AuthService struct {
	users     *UserService
	jwtConfig config.JWTConfig
	logger    *logger.Logger
	now       func() time.Time
}

// tokenClaims binds the subject username to the account it was issued for,
// so a token stops working once that name belongs to someone else.
type tokenClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new auth service
func NewAuthService(users *UserService, jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtConfig: jwtConfig,
		logger:    logger.WithComponent("auth_service"),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for issuing and checking tokens.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	user, err := s.users.Create(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.LogUserAction(user.ID.String(), "register", nil)

	return &ports.AuthResponse{
		Token:    token,
		Username: user.Username,
		Message:  "User registered successfully",
	}, nil
}

// Login checks credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	user, err := s.users.FindByName(ctx, req.Username)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			s.logger.Warnw("Login attempt with unknown username", "username", req.Username)
			return nil, entities.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.HasPassword() {
		s.logger.Warnw("Login attempt on account without password", "user_id", user.ID)
		return nil, entities.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warnw("Login attempt with invalid password", "user_id", user.ID)
		return nil, entities.ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.LogUserAction(user.ID.String(), "login", nil)

	return &ports.AuthResponse{
		Token:    token,
		Username: user.Username,
		Message:  "Login successful",
	}, nil
}

// Logout is a no-op on the server side.
func (s *AuthService) Logout() ports.MessageResponse {
	return ports.MessageResponse{Message: "Logout successful"}
}

// GenerateToken issues an HS256 token whose subject is the username and whose
// uid claim is the account ID.
func (s *AuthService) GenerateToken(user *entities.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: user.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    s.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, issuer and expiry and returns the claims.
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtConfig.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.jwtConfig.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, entities.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: missing or malformed uid claim", entities.ErrInvalidToken)
	}

	return &ports.Claims{UserID: userID, Username: claims.Subject}, nil
}

// Authenticate resolves a token to the account it was issued for. The name
// must still belong to the same account ID; a rename or a re-registered
// name invalidates older tokens.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*entities.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByName(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", entities.ErrInvalidToken)
		}
		return nil, err
	}
	if user.ID != claims.UserID {
		s.logger.LogSecurityEvent("stale_token", claims.UserID.String(), "", map[string]interface{}{
			"username": claims.Username,
			"owner_id": user.ID.String(),
		})
		return nil, fmt.Errorf("%w: username now belongs to another account", entities.ErrInvalidToken)
	}
	return user, nil
}
