package repository

import (
	"context"

	"interview-coach/internal/models"
)

func (p *Postgres) SaveFinalAnalysis(ctx context.Context, analysis *models.FinalAnalysis) error {
	return p.db.WithContext(ctx).Create(analysis).Error
}

// LatestFinalAnalysis returns the user's most recent final analysis.
func (p *Postgres) LatestFinalAnalysis(ctx context.Context, username string) (*models.FinalAnalysis, error) {
	var analysis models.FinalAnalysis
	result := p.db.WithContext(ctx).Where("username = ?", username).Order("created_at DESC").First(&analysis)
	return &analysis, notFound(result.Error)
}
