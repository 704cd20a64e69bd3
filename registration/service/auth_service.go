// registration/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// defaultTokenTTL is how long an admin session token stays valid when no
// TTL is configured.
const defaultTokenTTL = 24 * time.Hour

// AuthService authenticates operator accounts and issues session tokens.
type AuthService struct {
	admins   AdminStore
	secret   []byte
	tokenTTL time.Duration
	log      *logger.Logger
}

// NewAuthService creates a new AuthService instance. A non-positive
// tokenTTL falls back to the default.
func NewAuthService(admins AdminStore, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{admins: admins, secret: []byte(jwtSecret), tokenTTL: tokenTTL, log: log}
}

// AdminClaims is the JWT claim set carried by operator session tokens.
type AdminClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Session is a successful login result.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Admin     *models.Admin `json:"admin"`
}

// Login verifies the credentials and issues a signed session token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (as *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	admin, err := as.admins.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		as.log.Warnw("failed login attempt", "username", username)
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(as.tokenTTL)
	claims := AdminClaims{
		Username: admin.Username,
		Role:     admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := as.admins.UpdateLastLogin(ctx, admin.ID); err != nil {
		as.log.Warnw("failed to stamp last login", "admin_id", admin.ID, "error", err)
	}

	as.log.Audit("admin logged in", "admin_id", admin.ID, "username", admin.Username)
	return &Session{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// Authenticate parses and validates a session token, returning its claims.
func (as *AuthService) Authenticate(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// ChangePassword rotates an admin's password after re-checking the current
// one.
func (as *AuthService) ChangePassword(ctx context.Context, adminID, currentPassword, newPassword string) error {
	admin, err := as.admins.GetByID(ctx, adminID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := as.admins.UpdatePassword(ctx, admin.ID, string(hash)); err != nil {
		return err
	}

	as.log.Audit("admin password changed", "admin_id", admin.ID)
	return nil
}
