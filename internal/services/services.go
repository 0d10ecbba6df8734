// Package services implements the interview coaching workflows on top of the stores,
// the generation client and the behaviour sampler.
package services

import (
	"context"
	"errors"

	"interview-coach/internal/models"
	"interview-coach/internal/repository"
)

var (
	ErrNoQuestion         = errors.New("no question found for the user")
	ErrNoTranscript       = errors.New("no interview responses found for the user")
	ErrInvalidScore       = errors.New("interview score must be a number between 0 and 10")
	ErrInvalidMetrics     = errors.New("behaviour metrics out of range")
	ErrNoBehaviourData    = errors.New("no behaviour metrics available for the user")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ContentGenerator produces model text for a prompt.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, username, password string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, username string) (*models.InterviewSession, error)
	SaveSession(ctx context.Context, session *models.InterviewSession) error
	DeleteSession(ctx context.Context, username string) error
}

type ScoreStore interface {
	AddScore(ctx context.Context, username string, score int) error
	RecentScores(ctx context.Context, username string, n int) ([]int, error)
	ScoreTimeline(ctx context.Context, username string) ([]repository.TimelineDataPoint, error)
	FinalScoreTimeline(ctx context.Context, username string) ([]repository.TimelineDataPoint, error)
}

type ProfileStore interface {
	GetProfileImage(ctx context.Context, username string) (*models.ProfileImage, error)
	UpsertProfileImage(ctx context.Context, username, image string) (bool, error)
}

type AnalysisStore interface {
	SaveFinalAnalysis(ctx context.Context, analysis *models.FinalAnalysis) error
	LatestFinalAnalysis(ctx context.Context, username string) (*models.FinalAnalysis, error)
}
