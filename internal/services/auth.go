package services

import (
	"context"
	"errors"
	"time"

	"interview-coach/internal/repository"
	"interview-coach/internal/utils"

	"go.uber.org/zap"
)

// AuthService registers users and issues access tokens.
type AuthService struct {
	log    *zap.Logger
	users  UserStore
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(log *zap.Logger, users UserStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{log: log, users: users, secret: secret, ttl: ttl, now: time.Now}
}

// Signup creates a user. It returns repository.ErrUserExists for a taken username.
func (s *AuthService) Signup(ctx context.Context, username, password string) error {
	if _, err := s.users.CreateUser(ctx, username, password); err != nil {
		if !errors.Is(err, repository.ErrUserExists) {
			s.log.Error("Failed to create user", zap.String("username", username), zap.Error(err))
		}
		return err
	}
	s.log.Info("User registered", zap.String("username", username))
	return nil
}

// Signin checks the credentials and returns a signed token.
func (s *AuthService) Signin(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !user.CheckPassword(password) {
		return "", ErrInvalidCredentials
	}
	return utils.IssueToken(s.secret, user.Username, s.ttl, s.now())
}

// Authenticate resolves a token to its username.
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}
