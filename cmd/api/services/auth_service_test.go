package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"scholar-blog/cmd/api/auth"
	"scholar-blog/config"
	"scholar-blog/dto"
	"scholar-blog/models"
	"scholar-blog/repositories/memstore"
)

func newAuthFixture(t *testing.T) (*AuthService, *memstore.UserRepository, *auth.JWTManager) {
	t.Helper()
	jwtManager, err := auth.NewJWTManager(config.AuthConfig{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	users := memstore.NewUserRepository()
	return NewAuthService(users, jwtManager), users, jwtManager
}

func validRegistration() dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:     "Ada@Lab.test",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestRegisterLoginRefreshMe(t *testing.T) {
	svc, _, jwtManager := newAuthFixture(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "ada@lab.test", reg.User.Email)
	assert.Equal(t, models.RoleReader, reg.User.Role)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)

	login, err := svc.Login(ctx, dto.LoginRequest{Email: "ada@lab.test", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	access, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	claims, err := jwtManager.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.Subject)
	assert.Equal(t, models.RoleReader, claims.Role)

	me, err := svc.Me(ctx, claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", me.LastName)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *dto.RegisterRequest)
		code   string
	}{
		{"bad email", func(r *dto.RegisterRequest) { r.Email = "not-an-email" }, "invalid_email"},
		{"short password", func(r *dto.RegisterRequest) { r.Password = "short" }, "password_too_short"},
		{"missing name", func(r *dto.RegisterRequest) { r.LastName = " " }, "name_required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.mutate(&in)
			_, err := svc.Register(ctx, in)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.code, vErr.Code)
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ada@lab.test", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@lab.test", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRejectsAccessTokenAndDeletedUser(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, reg.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "an access token cannot be used to refresh")

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	oid, err := primitive.ObjectIDFromHex(reg.User.ID)
	require.NoError(t, err)
	users.Delete(oid)

	_, err = svc.Refresh(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
