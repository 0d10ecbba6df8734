package repository

import (
	"context"

	"interview-coach/internal/models"
)

// GetSession returns the user's running interview, or ErrNotFound.
func (p *Postgres) GetSession(ctx context.Context, username string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	result := p.db.WithContext(ctx).First(&session, "username = ?", username)
	return &session, notFound(result.Error)
}

// SaveSession inserts or updates the session.
func (p *Postgres) SaveSession(ctx context.Context, session *models.InterviewSession) error {
	return p.db.WithContext(ctx).Save(session).Error
}

func (p *Postgres) DeleteSession(ctx context.Context, username string) error {
	return p.db.WithContext(ctx).Where("username = ?", username).Delete(&models.InterviewSession{}).Error
}
