package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/pkg/config"
	"github.com/watcharin-dev/eventbook/pkg/logger"
)

type mockUserRepository struct {
	createFn     func(ctx context.Context, user *domain.User) error
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.createFn(ctx, user)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFn(ctx, email)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Hour,
		Issuer:         "eventbook-test",
	}
}

// memUserRepo is a map-backed repository for round-trip tests
func memUserRepo() *mockUserRepository {
	users := map[string]*domain.User{}
	return &mockUserRepository{
		createFn: func(_ context.Context, user *domain.User) error {
			for _, u := range users {
				if u.Email == user.Email {
					return domain.ErrUserAlreadyExists
				}
			}
			users[user.ID] = user
			return nil
		},
		getByIDFn: func(_ context.Context, id string) (*domain.User, error) {
			u, ok := users[id]
			if !ok {
				return nil, domain.ErrUserNotFound
			}
			return u, nil
		},
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			for _, u := range users {
				if u.Email == email {
					return u, nil
				}
			}
			return nil, domain.ErrUserNotFound
		},
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := NewAuthService(memUserRepo(), testJWTConfig(), logger.Get())

	registered, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	// emails are normalized to lowercase
	assert.Equal(t, "alice@example.com", registered.User.Email)

	loggedIn, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	claims, err := svc.VerifyToken(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := NewAuthService(memUserRepo(), testJWTConfig(), logger.Get())

	req := &dto.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "supersecret"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	svc := NewAuthService(memUserRepo(), testJWTConfig(), logger.Get())

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := NewAuthService(memUserRepo(), testJWTConfig(), logger.Get())

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrongpassword",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// unknown email yields the same error as a wrong password
	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "supersecret",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_VerifyToken_Invalid(t *testing.T) {
	svc := NewAuthService(memUserRepo(), testJWTConfig(), logger.Get())

	_, err := svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// token signed with a different secret is rejected
	other := NewAuthService(memUserRepo(), config.JWTConfig{
		Secret:         "other-secret",
		AccessTokenTTL: time.Hour,
		Issuer:         "eventbook-test",
	}, logger.Get())

	auth, err := other.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	_, err = svc.VerifyToken(auth.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthService_VerifyToken_Expired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenTTL = -time.Minute
	svc := NewAuthService(memUserRepo(), cfg, logger.Get())

	auth, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	_, err = svc.VerifyToken(auth.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
