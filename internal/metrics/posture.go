package metrics

import (
	"math"

	"interview-coach/internal/models"
)

// Pose landmark indices.
const (
	LandmarkNose          = 0
	LandmarkLeftShoulder  = 11
	LandmarkRightShoulder = 12
	LandmarkLeftHip       = 23
	LandmarkRightHip      = 24

	// MinLandmarks is the landmark count of a complete pose; shorter samples are skipped.
	MinLandmarks = 33
)

const (
	shoulderTolerance = 0.2
	headTolerance     = 0.25
	restingTorsoLean  = 0.35
	torsoTolerance    = 0.25

	// Samples scoring below this quality count as bad posture.
	badPostureThreshold = 0.6
)

// PostureResult holds the posture reduction of a pose history.
type PostureResult struct {
	BadPosturePercent float64
	Posture           float64
	SampleSize        int
}

// ComputePosture scores shoulder levelness, head centering and torso lean for each complete
// pose sample and averages them into a 0-10 posture score.
func ComputePosture(poses []models.PoseSample) PostureResult {
	var (
		total float64
		valid int
		bad   int
	)

	for _, pose := range poses {
		quality, ok := PostureQuality(pose)
		if !ok {
			continue
		}
		total += quality
		valid++
		if quality < badPostureThreshold {
			bad++
		}
	}

	if valid == 0 {
		return PostureResult{BadPosturePercent: 0, Posture: neutralScore}
	}

	return PostureResult{
		BadPosturePercent: float64(bad) / float64(valid) * 100,
		Posture:           clamp(total/float64(valid), 0, 1) * maxScore,
		SampleSize:        valid,
	}
}

// PostureQuality returns the [0,1] alignment quality of a single pose, or false when the
// pose lacks the landmarks needed to judge it.
func PostureQuality(pose models.PoseSample) (float64, bool) {
	if len(pose) < MinLandmarks {
		return 0, false
	}

	leftShoulder := pose[LandmarkLeftShoulder]
	rightShoulder := pose[LandmarkRightShoulder]
	nose := pose[LandmarkNose]
	leftHip := pose[LandmarkLeftHip]
	rightHip := pose[LandmarkRightHip]

	shoulderYDiff := math.Abs(leftShoulder.Y - rightShoulder.Y)
	headOffset := math.Abs(nose.X - (leftShoulder.X+rightShoulder.X)/2)
	shoulderMidY := (leftShoulder.Y + rightShoulder.Y) / 2
	hipMidY := (leftHip.Y + rightHip.Y) / 2
	torsoLean := math.Abs(shoulderMidY - hipMidY)

	shoulderScore := linearPenalty(shoulderYDiff, shoulderTolerance)
	headScore := linearPenalty(headOffset, headTolerance)
	torsoScore := linearPenalty(math.Abs(torsoLean-restingTorsoLean), torsoTolerance)

	return clamp((shoulderScore+headScore+torsoScore)/3, 0, 1), true
}

// linearPenalty maps a deviation to 1 at zero falling linearly to 0 at tolerance.
func linearPenalty(deviation, tolerance float64) float64 {
	return 1 - math.Min(1, deviation/tolerance)
}
