package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"interview-coach/internal/cache"
	"interview-coach/internal/config"
	"interview-coach/internal/database"
	"interview-coach/internal/generation"
	"interview-coach/internal/handlers"
	logger "interview-coach/internal/logging"
	"interview-coach/internal/models"
	"interview-coach/internal/repository"
	"interview-coach/internal/router"
	"interview-coach/internal/services"
	"interview-coach/internal/tracking"
	"interview-coach/internal/transcription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const redisConnectAttempts = 5

// setup loads configuration and the full logger.
func setup() (*zap.Logger, error) {
	boot := logger.Bootstrap()
	if err := config.Init(projectRoot, boot); err != nil {
		return nil, err
	}

	log, err := logger.Init(projectRoot, config.Current().Logging)
	if err != nil {
		return nil, err
	}
	return log, nil
}

func runMigrate() error {
	log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := database.Init(log); err != nil {
		return err
	}
	defer database.Close()

	return database.Migrate(log)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	conf := config.Current()

	if err := database.Init(log); err != nil {
		return err
	}
	defer database.Close()
	if err := database.Migrate(log); err != nil {
		return err
	}
	store := repository.NewPostgres(database.DB)

	promptsFile := conf.Server.PromptsFile
	if promptsFile != "" && !filepath.IsAbs(promptsFile) {
		promptsFile = filepath.Join(projectRoot, promptsFile)
	}
	prompts, err := models.LoadPrompts(promptsFile)
	if err != nil {
		return err
	}

	resultCache, redisCache := connectCache(ctx, log, conf.Redis)
	if redisCache != nil {
		defer redisCache.Close()
	}

	gemini, err := generation.NewGemini(ctx, conf.Generation.APIKey)
	if err != nil {
		return err
	}
	defer gemini.Close()
	gen := generation.NewClient(log, gemini, generation.Options{
		Models:         conf.Generation.Models,
		MaxRetryRounds: conf.Generation.MaxRetryRounds,
		BaseBackoff:    conf.Generation.BaseBackoff,
		RequestTimeout: conf.Generation.RequestTimeout,
	})

	registry := tracking.NewRegistry()
	trackingOpts := tracking.Options{
		Interval: conf.Tracking.SampleInterval,
		Window:   conf.Tracking.Window,
		Viewport: models.Viewport{Width: conf.Tracking.ViewportWidth, Height: conf.Tracking.ViewportHeight},
	}

	authService := services.NewAuthService(log, store, conf.Auth.JWTSecret, conf.Auth.TokenTTL)
	behaviourService := services.NewBehaviourService(log, registry, resultCache, conf.Redis.TTL, trackingOpts)
	interviewService := services.NewInterviewService(log, store, gen, prompts)
	scoringService := services.NewScoringService(log, store, store, gen, prompts, resultCache, conf.Redis.TTL)
	resumeService := services.NewResumeService(log, gen, prompts)
	analysisService := services.NewAnalysisService(log, gen, prompts, store, behaviourService)

	sweeper := services.NewSweeper(log, registry, conf.Tracking.IdleTimeout, conf.Tracking.SweepInterval)
	config.OnReload(func(c *config.Config) {
		sweeper.SetIdleTimeout(c.Tracking.IdleTimeout)
	})
	sweeper.Start(ctx)

	healthDeps := map[string]handlers.Pinger{}
	if redisCache != nil {
		healthDeps["redis"] = redisCache
	}

	gin.SetMode(gin.ReleaseMode)
	r := router.Setup(log, router.Options{
		FrontendURL: conf.Server.FrontendURL,
		BodyLimitMB: conf.Server.BodyLimitMB,
	}, authService, router.Handlers{
		Auth:      handlers.NewAuthHandler(log, authService),
		Interview: handlers.NewInterviewHandler(log, interviewService),
		Score:     handlers.NewScoreHandler(log, scoringService),
		Resume:    handlers.NewResumeHandler(log, resumeService),
		Profile:   handlers.NewProfileHandler(log, store, transcription.NewAssemblyAI(log, conf.Transcription.APIKey)),
		Behaviour: handlers.NewBehaviourHandler(log, behaviourService, analysisService, conf.Server.FrontendURL),
		Health:    handlers.Health(healthDeps),
	})

	srv := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	if n := registry.StopAll(); n > 0 {
		log.Info("Stopped behaviour trackers", zap.Int("count", n))
	}
	log.Info("Server stopped")
	return nil
}

// connectCache tries Redis a few times and falls back to running without a cache.
func connectCache(ctx context.Context, log *zap.Logger, conf config.RedisConfig) (cache.Store, *cache.RedisCache) {
	var lastErr error
	for i := 0; i < redisConnectAttempts; i++ {
		rc, err := cache.NewRedisCache(ctx, conf.Addr, conf.Password, conf.DB)
		if err == nil {
			log.Info("Connected to Redis", zap.String("addr", conf.Addr))
			return rc, rc
		}
		lastErr = err
		log.Warn("Redis connection attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if i < redisConnectAttempts-1 {
			select {
			case <-ctx.Done():
				return cache.Noop{}, nil
			case <-time.After(time.Duration(i+1) * time.Second):
			}
		}
	}
	log.Warn("Running without cache", zap.Error(lastErr))
	return cache.Noop{}, nil
}
