package repository

import (
	"context"
	"fmt"

	"interview-coach/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// CreateUser stores a new user with a bcrypt-hashed password.
func (p *Postgres) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
	}
	result := p.db.WithContext(ctx).Create(user)
	return user, result.Error
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	result := p.db.WithContext(ctx).First(&user, "username = ?", username)
	return &user, notFound(result.Error)
}
