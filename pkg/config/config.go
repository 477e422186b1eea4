package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when CATGALLERY_CONFIG is unset.
const DefaultFile = "catgallery.yaml"

type CatAPIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	PageSize int           `yaml:"page_size"`
	Order    string        `yaml:"order"`
	Timeout  time.Duration `yaml:"timeout"`
}

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type Config struct {
	ServerPort       string        `yaml:"server_port"`
	CatAPI           CatAPIConfig  `yaml:"cat_api"`
	Breaker          BreakerConfig `yaml:"breaker"`
	Kafka            KafkaConfig   `yaml:"kafka"`
	Tracing          TracingConfig `yaml:"tracing"`
	ErrorLogInterval int           `yaml:"error_log_interval"`
}

func Default() *Config {
	return &Config{
		ServerPort: "8080",
		CatAPI: CatAPIConfig{
			BaseURL:  "https://api.thecatapi.com/v1/",
			PageSize: 10,
			Timeout:  10 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxFailures: 3,
			OpenTimeout: 30 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: "gallery_snapshots",
		},
		Tracing: TracingConfig{
			ServiceName: "catgallery",
		},
		ErrorLogInterval: 10,
	}
}

// Load builds the configuration from defaults, then the YAML file, then the
// environment. A .env file in the working directory is loaded first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path, explicit := os.LookupEnv("CATGALLERY_CONFIG")
	if !explicit {
		path = DefaultFile
	}
	if err := loadFile(path, cfg, explicit); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadFile overlays path onto cfg. A missing default file is not an error.
func loadFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	slog.Debug("Loaded config file", "path", path)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.CatAPI.BaseURL = getEnv("CAT_API_BASE_URL", cfg.CatAPI.BaseURL)
	cfg.CatAPI.PageSize = getIntEnv("CAT_API_PAGE_SIZE", cfg.CatAPI.PageSize)
	cfg.CatAPI.Order = getEnv("CAT_API_ORDER", cfg.CatAPI.Order)
	cfg.CatAPI.Timeout = getDurationEnv("CAT_API_TIMEOUT", cfg.CatAPI.Timeout)
	cfg.Breaker.MaxFailures = uint32(getIntEnv("BREAKER_MAX_FAILURES", int(cfg.Breaker.MaxFailures)))
	cfg.Breaker.OpenTimeout = getDurationEnv("BREAKER_OPEN_TIMEOUT", cfg.Breaker.OpenTimeout)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.ErrorLogInterval = getIntEnv("ERROR_LOG_INTERVAL", cfg.ErrorLogInterval)

	if brokers, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitList(brokers)
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerPort == "" {
		errs = append(errs, errors.New("server port is required"))
	} else if p, err := strconv.Atoi(c.ServerPort); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("server port %q is not a valid port", c.ServerPort))
	}

	u, err := url.Parse(c.CatAPI.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("cat api base url %q must be an absolute http(s) url", c.CatAPI.BaseURL))
	}
	if c.CatAPI.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.CatAPI.PageSize))
	}
	if c.CatAPI.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("cat api timeout must be positive, got %s", c.CatAPI.Timeout))
	}
	if c.Breaker.MaxFailures == 0 {
		errs = append(errs, errors.New("breaker max failures must be positive"))
	}
	if c.Breaker.OpenTimeout <= 0 {
		errs = append(errs, fmt.Errorf("breaker open timeout must be positive, got %s", c.Breaker.OpenTimeout))
	}
	if c.KafkaEnabled() && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	if c.ErrorLogInterval <= 0 {
		errs = append(errs, fmt.Errorf("error log interval must be positive, got %d", c.ErrorLogInterval))
	}
	return errors.Join(errs...)
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func (c *Config) TracingEnabled() bool {
	return c.Tracing.Endpoint != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
		slog.Warn("Ignoring invalid integer", "key", key, "value", value)
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		// "1m", "30s", or plain seconds
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
		slog.Warn("Ignoring invalid duration", "key", key, "value", value)
	}
	return fallback
}
