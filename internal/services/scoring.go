package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"interview-coach/internal/cache"
	"interview-coach/internal/generation"
	"interview-coach/internal/models"
	"interview-coach/internal/repository"

	"go.uber.org/zap"
)

const (
	historySize = 5

	noHistoryMessage    = "No score history found."
	shortHistoryMessage = "Not enough scores to analyze."

	feedbackDateLayout = "Jan 2, 2006 3:04 PM"
)

var scoreDigits = regexp.MustCompile(`\d+`)

// ScoringService scores a finished interview and tracks the score history.
type ScoringService struct {
	log      *zap.Logger
	sessions SessionStore
	scores   ScoreStore
	gen      ContentGenerator
	prompts  *models.PromptLibrary
	cache    cache.Store
	cacheTTL time.Duration
	now      func() time.Time
}

func NewScoringService(log *zap.Logger, sessions SessionStore, scores ScoreStore, gen ContentGenerator,
	prompts *models.PromptLibrary, store cache.Store, cacheTTL time.Duration) *ScoringService {
	return &ScoringService{
		log:      log,
		sessions: sessions,
		scores:   scores,
		gen:      gen,
		prompts:  prompts,
		cache:    store,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// ScoreHistory is the user's recent scores with a coaching suggestion.
type ScoreHistory struct {
	Scores     []int  `json:"array"`
	Suggestion string `json:"suggestion"`
}

// Score asks the model for structured feedback on the transcript, records the overall
// score and clears the transcript for the next interview. The model's feedback object is
// returned as-is.
func (s *ScoringService) Score(ctx context.Context, username string) (map[string]any, error) {
	session, err := s.sessions.GetSession(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoTranscript
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.Transcript) == "" {
		return nil, ErrNoTranscript
	}

	prompt, err := s.prompts.Render(models.PromptScoreFeedback, map[string]any{
		"Transcript": session.Transcript,
		"Date":       s.now().Format(feedbackDateLayout),
	})
	if err != nil {
		return nil, err
	}

	text, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate feedback: %w", err)
	}

	var feedback map[string]any
	if err := generation.ParseModelJSON(text, &feedback); err != nil {
		s.log.Error("Model returned malformed feedback", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	score := OverallScore(feedback["overall_score"])
	if err := s.scores.AddScore(ctx, username, score); err != nil {
		return nil, fmt.Errorf("failed to save score: %w", err)
	}

	session.Transcript = ""
	session.QuestionNo = 0
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}

	s.log.Info("Interview scored", zap.String("username", username), zap.Int("score", score))
	return feedback, nil
}

// History returns the last five scores, oldest first. Once five scores exist a progress
// suggestion is generated and cached for that exact history.
func (s *ScoringService) History(ctx context.Context, username string) (*ScoreHistory, error) {
	scores, err := s.scores.RecentScores(ctx, username, historySize)
	if err != nil {
		return nil, err
	}

	switch {
	case len(scores) == 0:
		return &ScoreHistory{Scores: []int{}, Suggestion: noHistoryMessage}, nil
	case len(scores) < historySize:
		return &ScoreHistory{Scores: scores, Suggestion: shortHistoryMessage}, nil
	}

	key := cache.SuggestionKey(username, scores)
	var suggestion string
	if ok, err := s.cache.GetJSON(ctx, key, &suggestion); err != nil {
		s.log.Warn("Suggestion cache read failed", zap.Error(err))
	} else if ok {
		return &ScoreHistory{Scores: scores, Suggestion: suggestion}, nil
	}

	prompt, err := s.prompts.Render(models.PromptScoreProgress, map[string]any{"Scores": scores})
	if err != nil {
		return nil, err
	}
	suggestion, err = s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate progress suggestion: %w", err)
	}
	suggestion = strings.TrimSpace(suggestion)

	if err := s.cache.SetJSON(ctx, key, suggestion, s.cacheTTL); err != nil {
		s.log.Warn("Suggestion cache write failed", zap.Error(err))
	}
	return &ScoreHistory{Scores: scores, Suggestion: suggestion}, nil
}

// Timeline returns the user's full score history and the final scores of analysed
// interviews, both for charting.
func (s *ScoringService) Timeline(ctx context.Context, username string) (scores, finals []repository.TimelineDataPoint, err error) {
	scores, err = s.scores.ScoreTimeline(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	finals, err = s.scores.FinalScoreTimeline(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	return scores, finals, nil
}

// OverallScore extracts the leading integer of an "x/10" score, 0 when there is none.
func OverallScore(v any) int {
	var raw string
	switch val := v.(type) {
	case string:
		raw = val
	case float64:
		return int(val)
	default:
		return 0
	}

	digits := scoreDigits.FindString(raw)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
