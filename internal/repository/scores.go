package repository

import (
	"context"

	"interview-coach/internal/models"
)

func (p *Postgres) AddScore(ctx context.Context, username string, score int) error {
	return p.db.WithContext(ctx).Create(&models.ScoreEntry{Username: username, Score: score}).Error
}

// RecentScores returns up to n of the user's latest scores, oldest first.
func (p *Postgres) RecentScores(ctx context.Context, username string, n int) ([]int, error) {
	var entries []models.ScoreEntry
	err := p.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	scores := make([]int, len(entries))
	for i, e := range entries {
		scores[len(entries)-1-i] = e.Score
	}
	return scores, nil
}
