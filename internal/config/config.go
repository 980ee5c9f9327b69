// Package config loads process configuration from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Weather source tags.
const (
	ProviderWeatherAPI = "weatherapi"
	ProviderFAA        = "faa"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// Port serving /metrics for the sweeper
	MetricsPort int

	LogLevel string

	Weather    WeatherConfig
	Redis      RedisConfig
	OpenAI     OpenAIConfig
	SMTP       SMTPConfig
	Sweep      SweepConfig
	Reschedule RescheduleConfig
	Auth       AuthConfig

	// Base URL used to build links in outgoing emails
	AppBaseURL string

	// OpenTelemetry collector endpoint (gRPC)
	OTELEndpoint string
}

type WeatherConfig struct {
	Primary   string
	APIKey    string
	APIURL    string
	MetarURL  string
	Timeout   time.Duration
	RateLimit float64
	CacheTTL  time.Duration
}

// RedisConfig configures the weather cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// SMTPConfig configures mail delivery. An empty Host selects the log notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type SweepConfig struct {
	Interval    time.Duration
	Horizon     time.Duration
	Concurrency int
	ReapExpired bool
}

type RescheduleConfig struct {
	TTL time.Duration
}

type AuthConfig struct {
	JWTSecret string
	RateLimit float64
	RateBurst int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("port", 6161)
	v.SetDefault("metrics_port", 6162)
	v.SetDefault("log_level", "info")

	v.SetDefault("weather.primary", ProviderWeatherAPI)
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.api_url", "https://api.weatherapi.com/v1")
	v.SetDefault("weather.metar_url", "https://aviationweather.gov/cgi-bin/data/metar.php")
	v.SetDefault("weather.timeout", 20*time.Second)
	v.SetDefault("weather.rate_limit", 5.0)
	v.SetDefault("weather.cache_ttl", 10*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.timeout", 45*time.Second)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "noreply@flightwx.local")
	v.SetDefault("smtp.timeout", 20*time.Second)

	v.SetDefault("app.base_url", "http://localhost:3000")

	v.SetDefault("sweep.interval", time.Hour)
	v.SetDefault("sweep.horizon", 24*time.Hour)
	v.SetDefault("sweep.concurrency", 1)
	v.SetDefault("sweep.reap_expired", true)

	v.SetDefault("reschedule.ttl", 48*time.Hour)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.rate_limit", 10.0)
	v.SetDefault("auth.rate_burst", 20)

	v.SetDefault("otel.endpoint", "localhost:4317")
}

// Load reads configuration. Precedence, lowest first: defaults, the YAML file at path
// (or ./flightwx.yaml when path is empty and the file exists), environment variables.
// Nested keys map to env names with "." replaced by "_", e.g. weather.api_key -> WEATHER_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The OTel SDK's conventional variable wins over our key.
	_ = v.BindEnv("otel.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_ENDPOINT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("flightwx")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		DatabaseURL: v.GetString("database_url"),
		HTTPPort:    v.GetInt("port"),
		MetricsPort: v.GetInt("metrics_port"),
		LogLevel:    v.GetString("log_level"),
		Weather: WeatherConfig{
			Primary:   strings.ToLower(v.GetString("weather.primary")),
			APIKey:    v.GetString("weather.api_key"),
			APIURL:    v.GetString("weather.api_url"),
			MetarURL:  v.GetString("weather.metar_url"),
			Timeout:   v.GetDuration("weather.timeout"),
			RateLimit: v.GetFloat64("weather.rate_limit"),
			CacheTTL:  v.GetDuration("weather.cache_ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  v.GetString("openai.api_key"),
			BaseURL: v.GetString("openai.base_url"),
			Model:   v.GetString("openai.model"),
			Timeout: v.GetDuration("openai.timeout"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
			Timeout:  v.GetDuration("smtp.timeout"),
		},
		Sweep: SweepConfig{
			Interval:    v.GetDuration("sweep.interval"),
			Horizon:     v.GetDuration("sweep.horizon"),
			Concurrency: v.GetInt("sweep.concurrency"),
			ReapExpired: v.GetBool("sweep.reap_expired"),
		},
		Reschedule: RescheduleConfig{
			TTL: v.GetDuration("reschedule.ttl"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			RateLimit: v.GetFloat64("auth.rate_limit"),
			RateBurst: v.GetInt("auth.rate_burst"),
		},
		AppBaseURL:   strings.TrimRight(v.GetString("app.base_url"), "/"),
		OTELEndpoint: v.GetString("otel.endpoint"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required (env: DATABASE_URL)")
	}
	switch c.Weather.Primary {
	case ProviderWeatherAPI, ProviderFAA:
	default:
		return fmt.Errorf("invalid weather.primary %q: must be %q or %q", c.Weather.Primary, ProviderWeatherAPI, ProviderFAA)
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive, got %v", c.Sweep.Interval)
	}
	if c.Sweep.Horizon <= 0 {
		return fmt.Errorf("sweep.horizon must be positive, got %v", c.Sweep.Horizon)
	}
	if c.Sweep.Concurrency < 1 {
		return fmt.Errorf("sweep.concurrency must be at least 1, got %d", c.Sweep.Concurrency)
	}
	if c.SMTP.Timeout <= 0 {
		return fmt.Errorf("smtp.timeout must be positive, got %v", c.SMTP.Timeout)
	}
	if c.Reschedule.TTL <= 0 {
		return fmt.Errorf("reschedule.ttl must be positive, got %v", c.Reschedule.TTL)
	}
	return nil
}
