// registration/service/auth_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/shared/logger"
	"github.com/hackbits/registration-service/shared/models"
)

// fakeAdminStore is an in-memory AdminStore for auth tests.
type fakeAdminStore struct {
	admins map[string]*models.Admin // by id
}

func newFakeAdminStore(t *testing.T, username, password string) *fakeAdminStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.Admin{
		ID:           "admin-1",
		Username:     username,
		PasswordHash: string(hash),
		Role:         "admin",
		CreatedAt:    time.Now(),
	}
	return &fakeAdminStore{admins: map[string]*models.Admin{admin.ID: admin}}
}

func (fs *fakeAdminStore) GetByUsername(_ context.Context, username string) (*models.Admin, error) {
	for _, a := range fs.admins {
		if a.Username == username {
			clone := *a
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (fs *fakeAdminStore) GetByID(_ context.Context, id string) (*models.Admin, error) {
	a, ok := fs.admins[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (fs *fakeAdminStore) UpdateLastLogin(_ context.Context, id string) error {
	a, ok := fs.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	a.LastLoginAt = &now
	return nil
}

func (fs *fakeAdminStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	a, ok := fs.admins[id]
	if !ok {
		return store.ErrNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func TestLoginIssuesValidToken(t *testing.T) {
	admins := newFakeAdminStore(t, "operator", "correct horse")
	auth := NewAuthService(admins, "jwt-secret", 0, logger.NewNop())

	session, err := auth.Login(context.Background(), "operator", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "operator", session.Admin.Username)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	claims, err := auth.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, "operator", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	// Login stamps last_login_at.
	stored, err := admins.GetByID(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	admins := newFakeAdminStore(t, "operator", "correct horse")
	auth := NewAuthService(admins, "jwt-secret", 0, logger.NewNop())
	ctx := context.Background()

	_, err := auth.Login(ctx, "operator", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	admins := newFakeAdminStore(t, "operator", "correct horse")
	auth := NewAuthService(admins, "jwt-secret", 0, logger.NewNop())
	other := NewAuthService(admins, "different-secret", 0, logger.NewNop())

	session, err := other.Login(context.Background(), "operator", "correct horse")
	require.NoError(t, err)

	_, err = auth.Authenticate(session.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePasswordRotatesHash(t *testing.T) {
	admins := newFakeAdminStore(t, "operator", "old password")
	auth := NewAuthService(admins, "jwt-secret", 0, logger.NewNop())
	ctx := context.Background()

	err := auth.ChangePassword(ctx, "admin-1", "wrong", "new password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, auth.ChangePassword(ctx, "admin-1", "old password", "new password"))

	_, err = auth.Login(ctx, "operator", "old password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "operator", "new password")
	assert.NoError(t, err)
}
