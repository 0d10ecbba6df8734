package repository

import (
	"context"
	"time"
)

type TimelineDataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ScoreTimeline returns every interview score of the user in chronological order.
func (p *Postgres) ScoreTimeline(ctx context.Context, username string) ([]TimelineDataPoint, error) {
	query := `
		SELECT created_at AS date, score::float AS value
		FROM score_entries
		WHERE username = ?
		ORDER BY created_at ASC, id ASC`

	var points []TimelineDataPoint
	if err := p.db.WithContext(ctx).Raw(query, username).Scan(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// FinalScoreTimeline returns the combined final scores of the user's analysed interviews.
func (p *Postgres) FinalScoreTimeline(ctx context.Context, username string) ([]TimelineDataPoint, error) {
	query := `
		SELECT created_at AS date, final_score AS value
		FROM final_analyses
		WHERE username = ? AND deleted_at IS NULL
		ORDER BY created_at ASC`

	var points []TimelineDataPoint
	if err := p.db.WithContext(ctx).Raw(query, username).Scan(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}
