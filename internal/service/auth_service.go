package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/watcharin-dev/eventbook/internal/domain"
	"github.com/watcharin-dev/eventbook/internal/dto"
	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/pkg/config"
	"github.com/watcharin-dev/eventbook/pkg/logger"
	"github.com/watcharin-dev/eventbook/pkg/telemetry"
)

// AuthService manages registration, login, and token verification
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
	VerifyToken(tokenString string) (*domain.Claims, error)
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	users  repository.UserRepository
	jwtCfg config.JWTConfig
	log    *logger.Logger
}

// NewAuthService creates the authentication service
func NewAuthService(users repository.UserRepository, jwtCfg config.JWTConfig, log *logger.Logger) AuthService {
	return &authService{users: users, jwtCfg: jwtCfg, log: log}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Name) == "" || len(req.Password) < 8 {
		return nil, domain.ErrInvalidRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return &dto.AuthResponse{Token: token, User: dto.UserFromDomain(user)}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// same error for unknown email and wrong password
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{Token: token, User: dto.UserFromDomain(user)}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.GetProfile")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.UserFromDomain(user), nil
}

func (s *authService) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature, expiry, and issuer
func (s *authService) VerifyToken(tokenString string) (*domain.Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	}, jwt.WithIssuer(s.jwtCfg.Issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Claims{UserID: claims.Subject, Email: claims.Email}, nil
}
