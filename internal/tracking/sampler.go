// Package tracking samples live gaze and pose observations into bounded rolling
// buffers for behaviour scoring.
package tracking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"interview-coach/internal/metrics"
	"interview-coach/internal/models"
	"interview-coach/internal/observability"

	"go.uber.org/zap"
)

// ErrNoSource is returned when tracking is started without a capture source.
var ErrNoSource = errors.New("no capture source for behaviour tracking")

// Source is a live capture stream that perception backends attach to.
type Source interface {
	ID() string
}

// GazeTracker estimates where on screen the user is looking. onGaze fires whenever a new
// estimate is ready, at whatever rate the tracker runs.
type GazeTracker interface {
	Begin(ctx context.Context, src Source, onGaze func(models.GazeSample)) error
	End() error
}

// PoseEstimator produces body landmarks for processed frames of the source.
type PoseEstimator interface {
	Begin(ctx context.Context, src Source, onPose func(models.PoseSample)) error
	Close() error
}

// Options configures a Sampler.
type Options struct {
	Interval time.Duration
	Window   time.Duration
	Viewport models.Viewport
}

// Sampler copies the most recent gaze point and pose snapshot into rolling buffers on a
// fixed tick, decoupling irregular perception callbacks from the recording cadence.
type Sampler struct {
	log      *zap.Logger
	gaze     GazeTracker
	pose     PoseEstimator
	interval time.Duration
	now      func() time.Time

	tracking atomic.Bool

	// lifecycle serializes StartTracking and StopTracking.
	lifecycle  sync.Mutex
	cancelTick context.CancelFunc
	tickDone   chan struct{}
	gazeActive bool
	poseActive bool

	mu           sync.Mutex
	gazeBuf      *RollingBuffer[models.GazeSample]
	poseBuf      *RollingBuffer[models.PoseSample]
	lastGaze     *models.GazeSample
	lastPose     models.PoseSample
	viewport     models.Viewport
	startedAt    time.Time
	stoppedAt    time.Time
	lastActivity time.Time
}

// NewSampler creates a Sampler over the given perception backends. Either backend may be nil.
func NewSampler(log *zap.Logger, gaze GazeTracker, pose PoseEstimator, opts Options) *Sampler {
	interval := opts.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	window := opts.Window
	if window <= 0 {
		window = 60 * time.Second
	}
	capacity := int(window / interval)

	return &Sampler{
		log:      log,
		gaze:     gaze,
		pose:     pose,
		interval: interval,
		now:      time.Now,
		gazeBuf:  NewRollingBuffer[models.GazeSample](capacity),
		poseBuf:  NewRollingBuffer[models.PoseSample](capacity),
		viewport: opts.Viewport,
	}
}

// StartTracking resets the buffers, attaches both perception backends to src and starts
// the sampling tick. Calling it while already tracking is a no-op. Backend failures are
// logged and leave the corresponding buffer empty.
func (s *Sampler) StartTracking(ctx context.Context, src Source) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.tracking.Load() {
		return nil
	}
	if src == nil {
		return ErrNoSource
	}

	now := s.now()
	s.mu.Lock()
	s.gazeBuf.Reset()
	s.poseBuf.Reset()
	s.lastGaze = nil
	s.lastPose = nil
	s.startedAt = now
	s.stoppedAt = time.Time{}
	s.lastActivity = now
	s.mu.Unlock()

	s.tracking.Store(true)

	if s.gaze != nil {
		if err := s.gaze.Begin(ctx, src, s.onGaze); err != nil {
			s.log.Warn("Gaze tracker initialization failed", zap.String("source", src.ID()), zap.Error(err))
		} else {
			s.gazeActive = true
		}
	}
	if s.pose != nil {
		if err := s.pose.Begin(ctx, src, s.onPose); err != nil {
			s.log.Warn("Pose estimator initialization failed", zap.String("source", src.ID()), zap.Error(err))
		} else {
			s.poseActive = true
		}
	}

	tickCtx, cancel := context.WithCancel(context.Background())
	s.cancelTick = cancel
	s.tickDone = make(chan struct{})
	go s.run(tickCtx, s.tickDone)

	observability.TrackingSessions.Inc()
	s.log.Debug("Behaviour tracking started", zap.String("source", src.ID()), zap.Duration("interval", s.interval))
	return nil
}

// StopTracking halts sampling. The tick is stopped before the perception backends are
// released so nothing is written mid-teardown. Safe to call repeatedly. Buffers are
// kept so BehaviourData still reports the finished session.
func (s *Sampler) StopTracking() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.tracking.Swap(false) {
		return
	}

	if s.cancelTick != nil {
		s.cancelTick()
		<-s.tickDone
		s.cancelTick = nil
	}

	if s.poseActive {
		if err := s.pose.Close(); err != nil {
			s.log.Warn("Error closing pose estimator", zap.Error(err))
		}
		s.poseActive = false
	}
	if s.gazeActive {
		if err := s.gaze.End(); err != nil {
			s.log.Warn("Error ending gaze tracker", zap.Error(err))
		}
		s.gazeActive = false
	}

	s.mu.Lock()
	s.lastGaze = nil
	s.lastPose = nil
	s.stoppedAt = s.now()
	s.mu.Unlock()

	observability.TrackingSessions.Dec()
	s.log.Debug("Behaviour tracking stopped")
}

// IsTracking reports whether the sampler is running.
func (s *Sampler) IsTracking() bool {
	return s.tracking.Load()
}

// SetViewport replaces the reference frame for the off-screen check.
func (s *Sampler) SetViewport(v models.Viewport) {
	s.mu.Lock()
	s.viewport = v
	s.mu.Unlock()
}

// LastActivity returns the time of the most recent perception callback or start.
func (s *Sampler) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// BehaviourData reduces the current buffers into BehaviourMetrics. Before any sample
// arrives it returns the neutral defaults.
func (s *Sampler) BehaviourData() models.BehaviourMetrics {
	s.mu.Lock()
	gaze := s.gazeBuf.Snapshot()
	poses := s.poseBuf.Snapshot()
	viewport := s.viewport

	var elapsed time.Duration
	switch {
	case s.startedAt.IsZero():
	case !s.stoppedAt.IsZero():
		elapsed = s.stoppedAt.Sub(s.startedAt)
	default:
		elapsed = s.now().Sub(s.startedAt)
	}
	s.mu.Unlock()

	return metrics.Aggregate(gaze, poses, elapsed, viewport)
}

func (s *Sampler) onGaze(sample models.GazeSample) {
	if !s.tracking.Load() {
		return
	}
	s.mu.Lock()
	s.lastGaze = &sample
	s.lastActivity = s.now()
	s.mu.Unlock()
}

func (s *Sampler) onPose(pose models.PoseSample) {
	if !s.tracking.Load() || pose == nil {
		return
	}
	snapshot := make(models.PoseSample, len(pose))
	copy(snapshot, pose)

	s.mu.Lock()
	s.lastPose = snapshot
	s.lastActivity = s.now()
	s.mu.Unlock()
}

func (s *Sampler) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.record()
		}
	}
}

// record copies the latest observations, if any, into the buffers.
func (s *Sampler) record() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastGaze != nil {
		s.gazeBuf.Push(*s.lastGaze)
		observability.SamplesRecorded.WithLabelValues("gaze").Inc()
	}
	if s.lastPose != nil {
		// lastPose is replaced, never mutated, so the buffer can share it.
		s.poseBuf.Push(s.lastPose)
		observability.SamplesRecorded.WithLabelValues("pose").Inc()
	}
}
