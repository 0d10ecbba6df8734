package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_Defaults(t *testing.T) {
	require.NoError(t, Init(t.TempDir(), zap.NewNop()))

	assert.Equal(t, "3000", Current().Server.Port)
	assert.Equal(t, 8, Current().Server.BodyLimitMB)
	assert.Equal(t, 2, Current().Generation.MaxRetryRounds)
	assert.Equal(t, time.Second, Current().Generation.BaseBackoff)
	assert.Len(t, Current().Generation.Models, 5)
	assert.Equal(t, "gemini-2.0-flash", Current().Generation.Models[0])
	assert.Equal(t, 500*time.Millisecond, Current().Tracking.SampleInterval)
	assert.Equal(t, 120, Current().Tracking.BufferCapacity())
	assert.Equal(t, 24*time.Hour, Current().Auth.TokenTTL)
}

func TestInit_FileAndEnvOverride(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0755))
	yaml := "server:\n  port: \"8080\"\ntracking:\n  sample_interval: 250ms\n  window: 30s\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(yaml), 0644))
	t.Setenv("MOCKINT_REDIS_ADDR", "cache:6380")

	require.NoError(t, Init(root, zap.NewNop()))

	assert.Equal(t, "8080", Current().Server.Port)
	assert.Equal(t, "cache:6380", Current().Redis.Addr)
	assert.Equal(t, 120, Current().Tracking.BufferCapacity())
	assert.Equal(t, "db", Current().Database.Host)
}

func TestInit_MalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte("server: [unclosed"), 0644))

	assert.Error(t, Init(root, zap.NewNop()))
}

func TestBufferCapacity(t *testing.T) {
	assert.Equal(t, 0, TrackingConfig{}.BufferCapacity())
	assert.Equal(t, 10, TrackingConfig{SampleInterval: time.Second, Window: 10 * time.Second}.BufferCapacity())
}

func TestReload_SwapsSnapshotAndNotifies(t *testing.T) {
	require.NoError(t, Init(t.TempDir(), zap.NewNop()))
	before := Current()
	t.Cleanup(func() {
		mu.Lock()
		listeners = nil
		mu.Unlock()
	})

	var got time.Duration
	OnReload(func(c *Config) { got = c.Tracking.IdleTimeout })

	v := viper.New()
	setDefaults(v)
	v.Set("tracking.idle_timeout", "5m")
	require.NoError(t, reload(v))

	assert.Equal(t, 5*time.Minute, got)
	assert.Equal(t, 5*time.Minute, Current().Tracking.IdleTimeout)
	assert.Equal(t, 2*time.Minute, before.Tracking.IdleTimeout)
	assert.NotSame(t, before, Current())
}
