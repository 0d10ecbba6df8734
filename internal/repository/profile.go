package repository

import (
	"context"
	"errors"

	"interview-coach/internal/models"
)

func (p *Postgres) GetProfileImage(ctx context.Context, username string) (*models.ProfileImage, error) {
	var img models.ProfileImage
	result := p.db.WithContext(ctx).First(&img, "username = ?", username)
	return &img, notFound(result.Error)
}

// UpsertProfileImage stores the user's image, reporting whether a new record was created.
func (p *Postgres) UpsertProfileImage(ctx context.Context, username, image string) (bool, error) {
	existing, err := p.GetProfileImage(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		return true, p.db.WithContext(ctx).Create(&models.ProfileImage{Username: username, Image: image}).Error
	case err != nil:
		return false, err
	}
	existing.Image = image
	return false, p.db.WithContext(ctx).Save(existing).Error
}
