// Package metrics reduces sampled gaze and pose histories into behaviour scores.
// Every function here is pure: inputs are read, never modified.
package metrics

import (
	"math"
	"time"

	"interview-coach/internal/models"
)

// Composite weights for the behaviour score.
const (
	focusWeight    = 0.4
	postureWeight  = 0.4
	calmnessWeight = 0.2

	interviewWeight = 0.7
	behaviourWeight = 0.3

	// neutralScore is reported when there is no data to judge.
	neutralScore = 5.0
	maxScore     = 10.0
)

// Aggregate reduces the sampled buffers into a BehaviourMetrics record. Sub-scores are
// combined unrounded; only the reported fields are rounded to one decimal.
func Aggregate(gaze []models.GazeSample, poses []models.PoseSample, elapsed time.Duration, viewport models.Viewport) models.BehaviourMetrics {
	g := ComputeGaze(gaze, viewport)
	p := ComputePosture(poses)
	m := ComputeMovement(poses)

	return models.BehaviourMetrics{
		Duration:            elapsed.Seconds(),
		OffScreenPercent:    Round1(g.OffScreenPercent),
		FocusScore:          Round1(g.Focus),
		BadPosturePercent:   Round1(p.BadPosturePercent),
		PostureScore:        Round1(p.Posture),
		MovementJitterScore: Round1(m.Jitter),
		BehaviourScore:      Round1(BehaviourScore(g.Focus, p.Posture, m.Jitter)),
		SampleCount: models.SampleCount{
			Gaze:    len(gaze),
			Posture: len(poses),
		},
	}
}

// BehaviourScore weights focus, posture and calmness into a 0-10 composite.
func BehaviourScore(focus, posture, jitter float64) float64 {
	score := focusWeight*focus + postureWeight*posture + calmnessWeight*Calmness(jitter)
	return clamp(score, 0, maxScore)
}

// Calmness is the inverse of the jitter score.
func Calmness(jitter float64) float64 {
	return math.Max(0, maxScore-jitter)
}

// FinalScore blends the interview content score with the behaviour score (70/30).
func FinalScore(interviewScore, behaviourScore float64) float64 {
	return Round1(interviewWeight*interviewScore + behaviourWeight*behaviourScore)
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
