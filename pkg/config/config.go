package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	applogger "DiabScreen/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. DIABSCREEN_ARTIFACTS_DIR.
const EnvPrefix = "DIABSCREEN"

type Config struct {
	Environment string `yaml:"environment" default:"development"`

	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`

	Logging struct {
		applogger.Config `yaml:",inline"`
		Collector        struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"diabscreen.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"500ms"`
	} `yaml:"metrics"`

	Artifacts struct {
		Dir           string        `yaml:"dir" default:"artifacts"`
		ModelURL      string        `yaml:"model_url"`
		ThresholdURL  string        `yaml:"threshold_url"`
		ModelFile     string        `yaml:"model_file" default:"reduced_rf_model.json"`
		ThresholdFile string        `yaml:"threshold_file" default:"screening_threshold.json"`
		FetchTimeout  time.Duration `yaml:"fetch_timeout" default:"2m"`
		S3Region      string        `yaml:"s3_region" default:"us-east-1"`
		S3Endpoint    string        `yaml:"s3_endpoint"`
	} `yaml:"artifacts"`

	Model struct {
		Backend   string        `yaml:"backend" default:"local"`
		Version   string        `yaml:"version" default:"1.0.0"`
		RemoteURL string        `yaml:"remote_url"`
		Timeout   time.Duration `yaml:"timeout" default:"3s"`
	} `yaml:"model"`

	RateLimit struct {
		Enabled bool          `yaml:"enabled"`
		Backend string        `yaml:"backend" default:"memory"` // memory (token bucket), window or redis (fixed window)
		Burst   int           `yaml:"burst" default:"20"`
		PerSec  float64       `yaml:"per_second" default:"5"`
		Window  time.Duration `yaml:"window" default:"1m"`
		Limit   int64         `yaml:"limit" default:"120"`
	} `yaml:"ratelimit"`

	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"diabscreen"`
	} `yaml:"redis"`

	Events struct {
		BufferSize  int `yaml:"buffer_size" default:"1024"`
		MaxAttempts int `yaml:"max_attempts" default:"3"`

		Kafka struct {
			Enabled      bool          `yaml:"enabled"`
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"screening.events"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"snappy"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			Linger       time.Duration `yaml:"linger" default:"200ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`

		ClickHouse struct {
			Enabled     bool          `yaml:"enabled"`
			Host        string        `yaml:"host" default:"localhost"`
			Port        int           `yaml:"port" default:"9000"`
			Database    string        `yaml:"database" default:"diabscreen"`
			Table       string        `yaml:"table" default:"screening_events"`
			User        string        `yaml:"user" default:"default"`
			Password    string        `yaml:"password"`
			UseHTTP     bool          `yaml:"use_http"`
			AsyncInsert bool          `yaml:"async_insert" default:"true"`
			DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"clickhouse"`

		Redis struct {
			Enabled bool  `yaml:"enabled"`
			MaxLen  int64 `yaml:"max_len" default:"10000"`
		} `yaml:"redis"`

		WebSocket struct {
			Enabled bool   `yaml:"enabled" default:"true"`
			Path    string `yaml:"path" default:"/ws/screenings"`
		} `yaml:"websocket"`
	} `yaml:"events"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML file on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// envOverrides lists the settings that can be changed from the environment.
// Unset variables leave the YAML value alone.
type envOverrides struct {
	Environment        string   `envconfig:"ENVIRONMENT"`
	ServerHost         string   `envconfig:"SERVER_HOST"`
	ServerPort         int      `envconfig:"SERVER_PORT"`
	LogLevel           string   `envconfig:"LOG_LEVEL"`
	LogFormat          string   `envconfig:"LOG_FORMAT"`
	ArtifactsDir       string   `envconfig:"ARTIFACTS_DIR"`
	ModelURL           string   `envconfig:"MODEL_URL"`
	ThresholdURL       string   `envconfig:"THRESHOLD_URL"`
	S3Region           string   `envconfig:"S3_REGION"`
	S3Endpoint         string   `envconfig:"S3_ENDPOINT"`
	ModelBackend       string   `envconfig:"MODEL_BACKEND"`
	ModelVersion       string   `envconfig:"MODEL_VERSION"`
	ModelRemoteURL     string   `envconfig:"MODEL_REMOTE_URL"`
	RateLimitEnabled   *bool    `envconfig:"RATELIMIT_ENABLED"`
	RedisHost          string   `envconfig:"REDIS_HOST"`
	RedisPort          int      `envconfig:"REDIS_PORT"`
	RedisPassword      string   `envconfig:"REDIS_PASSWORD"`
	KafkaEnabled       *bool    `envconfig:"KAFKA_ENABLED"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic         string   `envconfig:"KAFKA_TOPIC"`
	ClickHouseEnabled  *bool    `envconfig:"CLICKHOUSE_ENABLED"`
	ClickHouseHost     string   `envconfig:"CLICKHOUSE_HOST"`
	ClickHouseUser     string   `envconfig:"CLICKHOUSE_USER"`
	ClickHousePassword string   `envconfig:"CLICKHOUSE_PASSWORD"`
	RedisEventsEnabled *bool    `envconfig:"REDIS_EVENTS_ENABLED"`
}

// LoadWithEnv loads config from YAML and then applies DIABSCREEN_* overrides.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	env.apply(c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	for name, raw := range map[string]string{
		"artifacts.model_url":     c.Artifacts.ModelURL,
		"artifacts.threshold_url": c.Artifacts.ThresholdURL,
	} {
		if raw == "" {
			continue
		}
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	switch c.Model.Backend {
	case "local":
	case "remote":
		if c.Model.RemoteURL == "" {
			return fmt.Errorf("model.remote_url is required when model.backend is 'remote'")
		}
	default:
		return fmt.Errorf("model.backend must be 'local' or 'remote', got '%s'", c.Model.Backend)
	}
	if c.Model.Version == "" {
		return fmt.Errorf("model.version is required")
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case "memory", "window", "redis":
		default:
			return fmt.Errorf("ratelimit.backend must be 'memory', 'window' or 'redis', got '%s'", c.RateLimit.Backend)
		}
	}
	if c.Events.Kafka.Enabled && len(c.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("events.kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Logging.Collector.Enabled && !c.Events.Kafka.Enabled {
		return fmt.Errorf("logging.collector requires events.kafka to be enabled")
	}
	return nil
}

func (e *envOverrides) apply(c *Config) {
	setString(&c.Environment, e.Environment)
	setString(&c.Server.Host, e.ServerHost)
	setInt(&c.Server.Port, e.ServerPort)
	setString(&c.Logging.Level, e.LogLevel)
	setString(&c.Logging.Format, e.LogFormat)
	setString(&c.Artifacts.Dir, e.ArtifactsDir)
	setString(&c.Artifacts.ModelURL, e.ModelURL)
	setString(&c.Artifacts.ThresholdURL, e.ThresholdURL)
	setString(&c.Artifacts.S3Region, e.S3Region)
	setString(&c.Artifacts.S3Endpoint, e.S3Endpoint)
	setString(&c.Model.Backend, e.ModelBackend)
	setString(&c.Model.Version, e.ModelVersion)
	setString(&c.Model.RemoteURL, e.ModelRemoteURL)
	setBool(&c.RateLimit.Enabled, e.RateLimitEnabled)
	setString(&c.Redis.Host, e.RedisHost)
	setInt(&c.Redis.Port, e.RedisPort)
	setString(&c.Redis.Password, e.RedisPassword)
	setBool(&c.Events.Kafka.Enabled, e.KafkaEnabled)
	if len(e.KafkaBrokers) > 0 {
		c.Events.Kafka.Brokers = e.KafkaBrokers
	}
	setString(&c.Events.Kafka.Topic, e.KafkaTopic)
	setBool(&c.Events.ClickHouse.Enabled, e.ClickHouseEnabled)
	setString(&c.Events.ClickHouse.Host, e.ClickHouseHost)
	setString(&c.Events.ClickHouse.User, e.ClickHouseUser)
	setString(&c.Events.ClickHouse.Password, e.ClickHousePassword)
	setBool(&c.Events.Redis.Enabled, e.RedisEventsEnabled)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
