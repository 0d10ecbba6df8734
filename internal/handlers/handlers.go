// Package handlers implements the JSON API endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"interview-coach/internal/generation"
	"interview-coach/internal/models"
	"interview-coach/internal/repository"
	"interview-coach/internal/services"
	"interview-coach/internal/tracking"

	"github.com/gin-gonic/gin"
)

// UsernameContextKey is where the auth middleware stores the authenticated username.
const UsernameContextKey = "username"

func currentUser(c *gin.Context) string {
	return c.GetString(UsernameContextKey)
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidScore),
		errors.Is(err, services.ErrInvalidMetrics),
		errors.Is(err, services.ErrNoQuestion),
		errors.Is(err, services.ErrNoBehaviourData):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoTranscript), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, generation.ErrAllModelsFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Service surfaces used by the handlers.
type (
	Authenticator interface {
		Signup(ctx context.Context, username, password string) error
		Signin(ctx context.Context, username, password string) (string, error)
	}

	Interviewer interface {
		NextQuestion(ctx context.Context, username, domain string) (*services.Question, error)
		AddAnswer(ctx context.Context, username, answer string) error
		Reset(ctx context.Context, username string) error
	}

	Scorer interface {
		Score(ctx context.Context, username string) (map[string]any, error)
		History(ctx context.Context, username string) (*services.ScoreHistory, error)
		Timeline(ctx context.Context, username string) (scores, finals []repository.TimelineDataPoint, err error)
	}

	ResumeChecker interface {
		Check(ctx context.Context, resume, profile string) (*services.ResumeReview, error)
	}

	BehaviourTracker interface {
		Begin(ctx context.Context, username string, viewport *models.Viewport) (*tracking.Stream, *tracking.Sampler, error)
		Finish(ctx context.Context, username string, sampler *tracking.Sampler) models.BehaviourMetrics
		Aggregate(ctx context.Context, username string, gaze []models.GazeSample, poses []models.PoseSample,
			duration time.Duration, viewport *models.Viewport) models.BehaviourMetrics
	}

	Analyzer interface {
		FinalAnalysis(ctx context.Context, username string, interviewScore float64, bm *models.BehaviourMetrics) (*services.FinalAnalysisResult, error)
		LatestAnalysis(ctx context.Context, username string) (*services.StoredAnalysis, error)
	}
)
