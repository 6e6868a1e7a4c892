package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookemaisy/storefront-api/internal/dto"
	"github.com/brookemaisy/storefront-api/internal/model"
)

const testJWTSecret = "test-secret"

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	return NewAuthService(users, testJWTSecret, time.Hour), users
}

func TestAuthService_Register(t *testing.T) {
	svc, users := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:     "jo@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Jo",
		LastName:  "Meadows",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, model.RoleCustomer, resp.User.Role)

	stored, err := users.GetByEmail(context.Background(), "jo@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter2hunter2", stored.Password)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	req := dto.RegisterRequest{
		Email:     "jo@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Jo",
		LastName:  "Meadows",
	}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_RegisterAdmin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.RegisterAdmin(context.Background(), dto.CreateAdminUserRequest{
		Email:     "admin@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Ada",
		LastName:  "Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthFixture(t)

	registered, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:     "jo@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Jo",
		LastName:  "Meadows",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "jo@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, registered.User.ID.String(), claims["sub"])
	assert.Equal(t, string(model.RoleCustomer), claims["role"])
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:     "jo@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Jo",
		LastName:  "Meadows",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "jo@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1234",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
