package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"interview-coach/internal/models"
)

// Stream message types sent by the capture client.
const (
	MessageStart  = "start"
	MessageGaze   = "gaze"
	MessagePose   = "pose"
	MessageFinish = "finish"

	// MessageMetrics and MessageError are sent back to the client.
	MessageMetrics = "metrics"
	MessageError   = "error"
)

var (
	ErrFeedBusy      = errors.New("feed already attached")
	ErrForeignSource = errors.New("feed cannot attach to a different source")
)

// Message is one frame of the capture stream. Which fields are set depends on Type.
type Message struct {
	Type      string                   `json:"type"`
	X         float64                  `json:"x,omitempty"`
	Y         float64                  `json:"y,omitempty"`
	Timestamp int64                    `json:"timestamp,omitempty"`
	Landmarks []models.Landmark        `json:"landmarks,omitempty"`
	Viewport  *models.Viewport         `json:"viewport,omitempty"`
	Metrics   *models.BehaviourMetrics `json:"metrics,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// Stream is a capture source fed by client-side perception. The browser runs the gaze and
// pose models and forwards their observations; Stream hands them to whichever feeds are
// attached.
type Stream struct {
	id   string
	gaze *GazeFeed
	pose *PoseFeed
}

// NewStream creates a stream identified by id.
func NewStream(id string) *Stream {
	s := &Stream{id: id}
	s.gaze = &GazeFeed{stream: s}
	s.pose = &PoseFeed{stream: s}
	return s
}

func (s *Stream) ID() string { return s.id }

// Gaze returns the stream's gaze tracker.
func (s *Stream) Gaze() *GazeFeed { return s.gaze }

// Pose returns the stream's pose estimator.
func (s *Stream) Pose() *PoseFeed { return s.pose }

// Dispatch routes an observation message to the attached feed. It reports whether the
// message type was an observation.
func (s *Stream) Dispatch(msg Message) bool {
	switch msg.Type {
	case MessageGaze:
		s.gaze.deliver(models.GazeSample{X: msg.X, Y: msg.Y, Timestamp: msg.Timestamp})
		return true
	case MessagePose:
		s.pose.deliver(models.PoseSample(msg.Landmarks))
		return true
	default:
		return false
	}
}

// GazeFeed adapts a Stream to the GazeTracker interface.
type GazeFeed struct {
	stream *Stream
	mu     sync.Mutex
	onGaze func(models.GazeSample)
}

func (f *GazeFeed) Begin(_ context.Context, src Source, onGaze func(models.GazeSample)) error {
	if src != Source(f.stream) {
		return fmt.Errorf("gaze feed %s: %w", f.stream.id, ErrForeignSource)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onGaze != nil {
		return ErrFeedBusy
	}
	f.onGaze = onGaze
	return nil
}

func (f *GazeFeed) End() error {
	f.mu.Lock()
	f.onGaze = nil
	f.mu.Unlock()
	return nil
}

func (f *GazeFeed) deliver(sample models.GazeSample) {
	f.mu.Lock()
	cb := f.onGaze
	f.mu.Unlock()
	if cb != nil {
		cb(sample)
	}
}

// PoseFeed adapts a Stream to the PoseEstimator interface.
type PoseFeed struct {
	stream *Stream
	mu     sync.Mutex
	onPose func(models.PoseSample)
}

func (f *PoseFeed) Begin(_ context.Context, src Source, onPose func(models.PoseSample)) error {
	if src != Source(f.stream) {
		return fmt.Errorf("pose feed %s: %w", f.stream.id, ErrForeignSource)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onPose != nil {
		return ErrFeedBusy
	}
	f.onPose = onPose
	return nil
}

func (f *PoseFeed) Close() error {
	f.mu.Lock()
	f.onPose = nil
	f.mu.Unlock()
	return nil
}

func (f *PoseFeed) deliver(pose models.PoseSample) {
	f.mu.Lock()
	cb := f.onPose
	f.mu.Unlock()
	if cb != nil {
		cb(pose)
	}
}
