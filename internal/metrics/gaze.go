package metrics

import (
	"math"

	"interview-coach/internal/models"
)

// gazeDisplacementScale is the average point-to-point displacement (px) treated as fully unfocused.
const gazeDisplacementScale = 180.0

// GazeResult holds the focus reduction of a gaze history.
type GazeResult struct {
	OffScreenPercent float64
	Focus            float64
	SampleSize       int
}

// ComputeGaze derives the off-screen share and the 0-10 focus score from a gaze history.
// A viewport without a positive width and height disables the off-screen check.
func ComputeGaze(samples []models.GazeSample, viewport models.Viewport) GazeResult {
	if len(samples) == 0 {
		return GazeResult{OffScreenPercent: 0, Focus: neutralScore}
	}

	checkBounds := viewport.Width > 0 && viewport.Height > 0
	offScreen := 0
	displacement := 0.0

	for i, point := range samples {
		if checkBounds && isOffScreen(point, viewport) {
			offScreen++
		}
		if i > 0 {
			prev := samples[i-1]
			displacement += math.Hypot(point.X-prev.X, point.Y-prev.Y)
		}
	}

	offScreenRatio := float64(offScreen) / float64(len(samples))
	avgDisplacement := displacement / math.Max(1, float64(len(samples)-1))
	normalizedVariance := math.Min(1, avgDisplacement/gazeDisplacementScale)

	quality := 0.6*(1-offScreenRatio) + 0.4*(1-normalizedVariance)

	return GazeResult{
		OffScreenPercent: offScreenRatio * 100,
		Focus:            clamp(quality, 0, 1) * maxScore,
		SampleSize:       len(samples),
	}
}

func isOffScreen(p models.GazeSample, v models.Viewport) bool {
	return p.X < 0 || p.X > v.Width || p.Y < 0 || p.Y > v.Height
}
