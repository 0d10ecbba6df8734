package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"interview-coach/internal/generation"
	"interview-coach/internal/metrics"
	"interview-coach/internal/models"

	"go.uber.org/zap"
)

// BehaviourSource supplies a user's most recent behaviour metrics.
type BehaviourSource interface {
	Latest(ctx context.Context, username string) (models.BehaviourMetrics, error)
}

// AnalysisMetrics is the behaviour breakdown echoed back with a final analysis.
type AnalysisMetrics struct {
	FocusScore        float64 `json:"focusScore"`
	PostureScore      float64 `json:"postureScore"`
	CalmnessScore     float64 `json:"calmnessScore"`
	OffScreenPercent  float64 `json:"offScreenPercent"`
	BadPosturePercent float64 `json:"badPosturePercent"`
	Duration          int     `json:"duration"`
}

// FinalAnalysisResult combines the interview and behaviour scores with coaching feedback.
type FinalAnalysisResult struct {
	Success           bool            `json:"success"`
	InterviewScore    float64         `json:"interviewScore"`
	BehaviourScore    float64         `json:"behaviourScore"`
	FinalScore        float64         `json:"finalScore"`
	BehaviourFeedback []string        `json:"behaviourFeedback"`
	Tips              []string        `json:"tips"`
	Metrics           AnalysisMetrics `json:"metrics"`
	FallbackFeedback  bool            `json:"fallbackFeedback,omitempty"`
}

type coachingFeedback struct {
	BehaviourFeedback []string `json:"behaviourFeedback"`
	Tips              []string `json:"tips"`
}

type AnalysisService struct {
	log       *zap.Logger
	gen       ContentGenerator
	prompts   *models.PromptLibrary
	analyses  AnalysisStore
	behaviour BehaviourSource
}

func NewAnalysisService(log *zap.Logger, gen ContentGenerator, prompts *models.PromptLibrary, analyses AnalysisStore, behaviour BehaviourSource) *AnalysisService {
	return &AnalysisService{log: log, gen: gen, prompts: prompts, analyses: analyses, behaviour: behaviour}
}

// FinalAnalysis weights the interview score 70/30 against the behaviour score and asks the
// model for behaviour coaching. When bm is nil the user's latest metrics are used. A reply
// that is not valid JSON is replaced by feedback derived from the scores.
func (s *AnalysisService) FinalAnalysis(ctx context.Context, username string, interviewScore float64, bm *models.BehaviourMetrics) (*FinalAnalysisResult, error) {
	if math.IsNaN(interviewScore) || interviewScore < 0 || interviewScore > 10 {
		return nil, ErrInvalidScore
	}

	if bm == nil {
		latest, err := s.behaviour.Latest(ctx, username)
		if err != nil {
			return nil, err
		}
		bm = &latest
	} else if err := validateMetrics(*bm); err != nil {
		return nil, err
	}

	calmness := metrics.Calmness(bm.MovementJitterScore)
	finalScore := metrics.FinalScore(interviewScore, bm.BehaviourScore)

	prompt, err := s.prompts.Render(models.PromptBehaviourAnalysis, map[string]any{
		"InterviewScore":    interviewScore,
		"BehaviourScore":    bm.BehaviourScore,
		"Duration":          bm.Duration,
		"FocusScore":        bm.FocusScore,
		"OffScreenPercent":  bm.OffScreenPercent,
		"PostureScore":      bm.PostureScore,
		"BadPosturePercent": bm.BadPosturePercent,
		"CalmnessScore":     calmness,
		"JitterScore":       bm.MovementJitterScore,
	})
	if err != nil {
		return nil, err
	}

	text, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate behaviour analysis: %w", err)
	}

	result := &FinalAnalysisResult{
		Success:        true,
		InterviewScore: interviewScore,
		BehaviourScore: bm.BehaviourScore,
		FinalScore:     finalScore,
		Metrics: AnalysisMetrics{
			FocusScore:        bm.FocusScore,
			PostureScore:      bm.PostureScore,
			CalmnessScore:     metrics.Round1(calmness),
			OffScreenPercent:  metrics.Round1(bm.OffScreenPercent),
			BadPosturePercent: metrics.Round1(bm.BadPosturePercent),
			Duration:          int(math.Round(bm.Duration)),
		},
	}

	var feedback coachingFeedback
	if err := generation.ParseModelJSON(text, &feedback); err != nil {
		s.log.Warn("Model returned malformed behaviour analysis, using fallback feedback",
			zap.String("username", username), zap.Error(err))
		feedback = fallbackFeedback(*bm, calmness)
		result.FallbackFeedback = true
	}
	result.BehaviourFeedback = nonNil(feedback.BehaviourFeedback)
	result.Tips = nonNil(feedback.Tips)

	record := &models.FinalAnalysis{
		Username:          username,
		InterviewScore:    interviewScore,
		BehaviourScore:    bm.BehaviourScore,
		FinalScore:        finalScore,
		FocusScore:        bm.FocusScore,
		PostureScore:      bm.PostureScore,
		CalmnessScore:     result.Metrics.CalmnessScore,
		OffScreenPercent:  result.Metrics.OffScreenPercent,
		BadPosturePercent: result.Metrics.BadPosturePercent,
		BehaviourFeedback: result.BehaviourFeedback,
		Tips:              result.Tips,
	}
	if err := s.analyses.SaveFinalAnalysis(ctx, record); err != nil {
		s.log.Error("Failed to save final analysis", zap.String("username", username), zap.Error(err))
	}

	return result, nil
}

// validateMetrics rejects client-supplied metrics outside the ranges the aggregator produces.
func validateMetrics(bm models.BehaviourMetrics) error {
	scores := map[string]float64{
		"focusScore":          bm.FocusScore,
		"postureScore":        bm.PostureScore,
		"movementJitterScore": bm.MovementJitterScore,
		"behaviourScore":      bm.BehaviourScore,
	}
	for name, v := range scores {
		if !inRange(v, 0, 10) {
			return fmt.Errorf("%w: %s must be between 0 and 10", ErrInvalidMetrics, name)
		}
	}
	if !inRange(bm.OffScreenPercent, 0, 100) || !inRange(bm.BadPosturePercent, 0, 100) {
		return fmt.Errorf("%w: percentages must be between 0 and 100", ErrInvalidMetrics)
	}
	if math.IsNaN(bm.Duration) || math.IsInf(bm.Duration, 0) || bm.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidMetrics)
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func fallbackFeedback(bm models.BehaviourMetrics, calmness float64) coachingFeedback {
	verdict := func(score float64, good, bad string) string {
		if score >= 7 {
			return good
		}
		return bad
	}

	return coachingFeedback{
		BehaviourFeedback: []string{
			fmt.Sprintf("Your behaviour score is %g/10.", bm.BehaviourScore),
			fmt.Sprintf("Focus score: %g/10 - %s.", bm.FocusScore,
				verdict(bm.FocusScore, "Good eye contact maintained", "Try to maintain more consistent eye contact")),
			fmt.Sprintf("Posture score: %g/10 - %s.", bm.PostureScore,
				verdict(bm.PostureScore, "Maintained professional posture", "Work on sitting upright and aligned")),
			fmt.Sprintf("Calmness: %.1f/10 - %s.", calmness,
				verdict(calmness, "Appeared calm and confident", "Showed signs of nervousness")),
		},
		Tips: []string{
			"Practice mock interviews to build confidence.",
			"Focus on maintaining eye contact with the camera.",
			"Sit upright with shoulders back for better posture.",
			"Take deep breaths before answering to reduce nervousness.",
			"Use hand gestures naturally to appear more engaged.",
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// StoredAnalysis is a persisted final analysis as returned to the client.
type StoredAnalysis struct {
	CreatedAt         time.Time       `json:"createdAt"`
	InterviewScore    float64         `json:"interviewScore"`
	BehaviourScore    float64         `json:"behaviourScore"`
	FinalScore        float64         `json:"finalScore"`
	BehaviourFeedback []string        `json:"behaviourFeedback"`
	Tips              []string        `json:"tips"`
	Metrics           AnalysisMetrics `json:"metrics"`
}

// LatestAnalysis returns the user's most recently saved final analysis.
func (s *AnalysisService) LatestAnalysis(ctx context.Context, username string) (*StoredAnalysis, error) {
	a, err := s.analyses.LatestFinalAnalysis(ctx, username)
	if err != nil {
		return nil, err
	}
	return &StoredAnalysis{
		CreatedAt:         a.CreatedAt,
		InterviewScore:    a.InterviewScore,
		BehaviourScore:    a.BehaviourScore,
		FinalScore:        a.FinalScore,
		BehaviourFeedback: nonNil(a.BehaviourFeedback),
		Tips:              nonNil(a.Tips),
		Metrics: AnalysisMetrics{
			FocusScore:        a.FocusScore,
			PostureScore:      a.PostureScore,
			CalmnessScore:     a.CalmnessScore,
			OffScreenPercent:  a.OffScreenPercent,
			BadPosturePercent: a.BadPosturePercent,
		},
	}, nil
}
