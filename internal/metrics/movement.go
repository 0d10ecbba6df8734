package metrics

import (
	"math"

	"interview-coach/internal/models"
)

const (
	// movementScale is the average nose displacement (normalized units) treated as maximal intensity.
	movementScale = 0.08
	// rapidMovementThreshold flags a single frame-to-frame displacement as rapid.
	rapidMovementThreshold = 0.05
)

// MovementResult holds the jitter reduction of a pose history.
type MovementResult struct {
	Jitter      float64
	Intensity   float64
	RapidRatio  float64
	PairsJudged int
}

// ComputeMovement measures head jitter from nose displacement between consecutive complete
// pose samples. Fewer than two samples, or no comparable pair, yields zero jitter.
func ComputeMovement(poses []models.PoseSample) MovementResult {
	if len(poses) < 2 {
		return MovementResult{}
	}

	var (
		totalMovement float64
		rapid         int
		pairs         int
	)

	for i := 1; i < len(poses); i++ {
		prev, curr := poses[i-1], poses[i]
		if len(prev) < MinLandmarks || len(curr) < MinLandmarks {
			continue
		}

		prevNose, currNose := prev[LandmarkNose], curr[LandmarkNose]
		movement := math.Hypot(currNose.X-prevNose.X, currNose.Y-prevNose.Y)

		totalMovement += movement
		pairs++
		if movement > rapidMovementThreshold {
			rapid++
		}
	}

	if pairs == 0 {
		return MovementResult{}
	}

	intensity := math.Min(1, (totalMovement/float64(pairs))/movementScale)
	rapidRatio := float64(rapid) / float64(pairs)

	return MovementResult{
		Jitter:      math.Min(maxScore, intensity*5+rapidRatio*5),
		Intensity:   intensity,
		RapidRatio:  rapidRatio,
		PairsJudged: pairs,
	}
}
