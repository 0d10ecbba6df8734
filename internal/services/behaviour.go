package services

import (
	"context"
	"fmt"
	"time"

	"interview-coach/internal/cache"
	"interview-coach/internal/metrics"
	"interview-coach/internal/models"
	"interview-coach/internal/tracking"
	"interview-coach/internal/utils"

	"go.uber.org/zap"
)

// BehaviourService owns the per-user behaviour samplers and remembers each user's latest
// metrics for the final analysis.
type BehaviourService struct {
	log      *zap.Logger
	registry *tracking.Registry
	cache    cache.Store
	cacheTTL time.Duration
	opts     tracking.Options
}

func NewBehaviourService(log *zap.Logger, registry *tracking.Registry, store cache.Store, cacheTTL time.Duration, opts tracking.Options) *BehaviourService {
	return &BehaviourService{
		log:      log,
		registry: registry,
		cache:    store,
		cacheTTL: cacheTTL,
		opts:     opts,
	}
}

// Begin creates a capture stream for the user and starts sampling it. A viewport from the
// client replaces the configured default.
func (s *BehaviourService) Begin(ctx context.Context, username string, viewport *models.Viewport) (*tracking.Stream, *tracking.Sampler, error) {
	suffix, err := utils.GenerateSecureToken(6)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create stream id: %w", err)
	}
	stream := tracking.NewStream(username + "/" + suffix)

	opts := s.opts
	if viewport != nil && viewport.Width > 0 && viewport.Height > 0 {
		opts.Viewport = *viewport
	}

	sampler := tracking.NewSampler(s.log.With(zap.String("username", username)), stream.Gaze(), stream.Pose(), opts)
	s.registry.Register(username, sampler)
	if err := sampler.StartTracking(ctx, stream); err != nil {
		s.registry.Remove(username, sampler)
		return nil, nil, err
	}
	return stream, sampler, nil
}

// Finish stops the sampler and returns its final metrics. They become the user's latest
// only while the sampler is still the registered one; a session superseded by a newer
// Begin never overwrites the newer session's result.
func (s *BehaviourService) Finish(ctx context.Context, username string, sampler *tracking.Sampler) models.BehaviourMetrics {
	sampler.StopTracking()
	m := sampler.BehaviourData()
	if !s.registry.Remove(username, sampler) {
		s.log.Debug("Superseded behaviour session finished, metrics not stored", zap.String("username", username))
		return m
	}
	s.remember(ctx, username, m)
	return m
}

// Aggregate reduces client-side buffers into metrics and stores them as the user's latest.
func (s *BehaviourService) Aggregate(ctx context.Context, username string, gaze []models.GazeSample, poses []models.PoseSample,
	duration time.Duration, viewport *models.Viewport) models.BehaviourMetrics {
	vp := s.opts.Viewport
	if viewport != nil {
		vp = *viewport
	}
	m := metrics.Aggregate(gaze, poses, duration, vp)
	s.remember(ctx, username, m)
	return m
}

// Latest returns the metrics of the user's running sampler, or else the most recently
// stored metrics.
func (s *BehaviourService) Latest(ctx context.Context, username string) (models.BehaviourMetrics, error) {
	if sampler, ok := s.registry.Get(username); ok && sampler.IsTracking() {
		return sampler.BehaviourData(), nil
	}

	m, ok, err := cache.LatestBehaviour(ctx, s.cache, username)
	if err != nil {
		return models.BehaviourMetrics{}, err
	}
	if !ok {
		return models.BehaviourMetrics{}, ErrNoBehaviourData
	}
	return m, nil
}

func (s *BehaviourService) remember(ctx context.Context, username string, m models.BehaviourMetrics) {
	if err := cache.SaveBehaviour(ctx, s.cache, username, m, s.cacheTTL); err != nil {
		s.log.Warn("Failed to cache behaviour metrics", zap.String("username", username), zap.Error(err))
	}
}
