// Package generation calls the remote text-generation model with model fallback and
// exponential back-off when every model is rate limited.
package generation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"interview-coach/internal/observability"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

var (
	// ErrAllModelsFailed is returned once every model has been rate limited in every round.
	ErrAllModelsFailed = errors.New("all backup models failed")
	ErrNoModels        = errors.New("no generation models configured")
)

// Generator performs a single generation call against one model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// StatusError is a remote failure carrying an HTTP-like status code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation failed with status %d: %s", e.Code, e.Message)
}

var (
	rateLimitMarkers = []string{"resource exhausted", "resource_exhausted", "quota", "overloaded"}
	// Status codes only count as standalone numbers, not as digits inside ids.
	rateLimitCodes = regexp.MustCompile(`\b(?:429|503)\b`)
)

// IsRateLimited reports whether err is a quota, throttling or overload failure that is
// worth retrying on another model.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && isRetryableCode(statusErr.Code) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && isRetryableCode(apiErr.Code) {
		return true
	}

	msg := strings.ToLower(err.Error())
	if rateLimitCodes.MatchString(msg) {
		return true
	}
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isRetryableCode(code int) bool {
	return code == 429 || code == 503
}

// Options configures a Client.
type Options struct {
	Models         []string
	MaxRetryRounds int
	BaseBackoff    time.Duration
	RequestTimeout time.Duration
}

// Client tries each configured model in order, falling through to the next on rate
// limiting. When the whole list is exhausted it backs off and restarts from the first
// model, up to MaxRetryRounds extra rounds.
type Client struct {
	log  *zap.Logger
	gen  Generator
	opts Options

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(log *zap.Logger, gen Generator, opts Options) *Client {
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = time.Second
	}
	if opts.MaxRetryRounds < 0 {
		opts.MaxRetryRounds = 0
	}
	return &Client{
		log:   log.Named("generation"),
		gen:   gen,
		opts:  opts,
		sleep: sleepContext,
	}
}

// GenerateContent returns the text produced for prompt by the first model that answers.
// Errors other than rate limiting are returned immediately without trying further models.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	models := c.opts.Models
	if len(models) == 0 {
		return "", ErrNoModels
	}

	start := time.Now()
	defer func() { observability.GenerationLatency.Observe(time.Since(start).Seconds()) }()

	round, index := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		model := models[index]
		text, err := c.attempt(ctx, model, prompt)
		if err == nil {
			observability.GenerationAttempts.WithLabelValues(model, "success").Inc()
			if round > 0 || index > 0 {
				c.log.Info("Generation succeeded on fallback", zap.String("model", model), zap.Int("round", round))
			}
			return text, nil
		}

		if !IsRateLimited(err) {
			observability.GenerationAttempts.WithLabelValues(model, "error").Inc()
			return "", fmt.Errorf("model %s: %w", model, err)
		}

		observability.GenerationAttempts.WithLabelValues(model, "rate_limited").Inc()
		c.log.Warn("Model rate limited, trying next", zap.String("model", model), zap.Int("round", round), zap.Error(err))

		index++
		if index < len(models) {
			continue
		}

		if round >= c.opts.MaxRetryRounds {
			c.log.Error("All models rate limited", zap.Int("rounds", round+1))
			return "", fmt.Errorf("%w after %d rounds: %v", ErrAllModelsFailed, round+1, err)
		}

		delay := c.opts.BaseBackoff << round
		observability.GenerationBackoffs.Inc()
		c.log.Info("Backing off before retrying model list", zap.Duration("delay", delay), zap.Int("round", round+1))
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
		round++
		index = 0
	}
}

func (c *Client) attempt(ctx context.Context, model, prompt string) (string, error) {
	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}
	return c.gen.Generate(ctx, model, prompt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
