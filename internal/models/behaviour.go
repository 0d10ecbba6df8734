package models

// GazeSample is an estimated on-screen point the user is looking at.
type GazeSample struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

// Landmark is a single pose keypoint in normalized [0,1] coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility,omitempty"`
}

// PoseSample is the index-addressed landmark set produced for one video frame.
type PoseSample []Landmark

// Viewport is the reference frame used to decide whether a gaze point is off screen.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type SampleCount struct {
	Gaze    int `json:"gaze"`
	Posture int `json:"posture"`
}

// BehaviourMetrics is the per-session reduction of the gaze and pose buffers.
type BehaviourMetrics struct {
	Duration            float64     `json:"duration"`
	OffScreenPercent    float64     `json:"offScreenPercent"`
	FocusScore          float64     `json:"focusScore"`
	BadPosturePercent   float64     `json:"badPosturePercent"`
	PostureScore        float64     `json:"postureScore"`
	MovementJitterScore float64     `json:"movementJitterScore"`
	BehaviourScore      float64     `json:"behaviourScore"`
	SampleCount         SampleCount `json:"sampleCount"`
}
