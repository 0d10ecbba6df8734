package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally. A reload
// replaces the pointer, never the struct it points to; read it through Current once the
// file watch is running.
var Conf *Config

var (
	mu        sync.RWMutex
	listeners []func(*Config)
)

// Current returns the active configuration snapshot.
func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return Conf
}

// OnReload registers fn to receive each configuration loaded after a file change. Most
// settings are read once at start-up; only components subscribed here pick up changes
// (currently the tracker idle timeout).
func OnReload(fn func(*Config)) {
	mu.Lock()
	listeners = append(listeners, fn)
	mu.Unlock()
}

// Config struct is the top-level configuration structure.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Generation    GenerationConfig    `mapstructure:"generation"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Tracking      TrackingConfig      `mapstructure:"tracking"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port        string `mapstructure:"port"`
	FrontendURL string `mapstructure:"frontend_url"`
	BodyLimitMB int    `mapstructure:"body_limit_mb"`
	PromptsFile string `mapstructure:"prompts_file"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AuthConfig holds JWT signing settings.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// GenerationConfig holds settings for the text-generation model.
type GenerationConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Models         []string      `mapstructure:"models"`
	MaxRetryRounds int           `mapstructure:"max_retry_rounds"`
	BaseBackoff    time.Duration `mapstructure:"base_backoff"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// TranscriptionConfig holds settings for the speech-to-text service.
type TranscriptionConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// RedisConfig holds cache connection settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// TrackingConfig holds behaviour sampler settings.
type TrackingConfig struct {
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	Window         time.Duration `mapstructure:"window"`
	ViewportWidth  float64       `mapstructure:"viewport_width"`
	ViewportHeight float64       `mapstructure:"viewport_height"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.frontend_url", "")
	v.SetDefault("server.body_limit_mb", 8)
	v.SetDefault("server.prompts_file", "")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "interview-db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("generation.models", []string{
		"gemini-2.0-flash",
		"gemini-2.5-flash",
		"gemini-2.0-pro",
		"gemini-2.0-flash-lite",
		"gemini-2.5-flash-lite",
	})
	v.SetDefault("generation.max_retry_rounds", 2)
	v.SetDefault("generation.base_backoff", time.Second)
	v.SetDefault("generation.request_timeout", 60*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)

	// 60s window at 500ms gives 120 samples per buffer
	v.SetDefault("tracking.sample_interval", 500*time.Millisecond)
	v.SetDefault("tracking.window", 60*time.Second)
	v.SetDefault("tracking.viewport_width", 1280.0)
	v.SetDefault("tracking.viewport_height", 720.0)
	v.SetDefault("tracking.idle_timeout", 2*time.Minute)
	v.SetDefault("tracking.sweep_interval", 30*time.Second)
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("MOCKINT") // e.g., MOCKINT_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	next := new(Config)
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	mu.Lock()
	Conf = next
	mu.Unlock()

	// Set up a watch for configuration changes for hot-reloading
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := reload(v); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})
	v.WatchConfig()

	log.Info("Configuration loaded successfully")
	return nil
}

// reload decodes a fresh snapshot, swaps it in and notifies the listeners.
func reload(v *viper.Viper) error {
	next := new(Config)
	if err := v.Unmarshal(next); err != nil {
		return err
	}

	mu.Lock()
	Conf = next
	fns := append(([]func(*Config))(nil), listeners...)
	mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return nil
}

// BufferCapacity is the number of samples a rolling buffer keeps for the configured window.
func (t TrackingConfig) BufferCapacity() int {
	if t.SampleInterval <= 0 {
		return 0
	}
	return int(t.Window / t.SampleInterval)
}
