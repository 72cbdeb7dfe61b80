package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"SmartMoney/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"5m"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		RunRateLimit    struct {
			Capacity     float64 `yaml:"capacity" default:"3"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"0.05"`
		} `yaml:"run_rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"30s"`
	} `yaml:"metrics"`
	Screener struct {
		Benchmark    string        `yaml:"benchmark" default:"^JKSE" validate:"required"`
		Period       string        `yaml:"period" default:"6mo" validate:"required"`
		Interval     string        `yaml:"interval" default:"1d" validate:"required"`
		BatchSize    int           `yaml:"batch_size" default:"50" validate:"min=1"`
		UniverseFile string        `yaml:"universe_file" default:"config/tickers.txt"`
		Tickers      []string      `yaml:"tickers"`
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"1h"`
		RunTimeout   time.Duration `yaml:"run_timeout" default:"30m"`
		RunOnStart   bool          `yaml:"run_on_start"`
	} `yaml:"screener"`
	MarketData struct {
		Provider       string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo financego clickhouse"`
		BaseURL        string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		RequestsPerSec float64       `yaml:"requests_per_sec" default:"4" validate:"gt=0"`
		Burst          int           `yaml:"burst" default:"4" validate:"min=1"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"15s"`
		Workers        int           `yaml:"workers" default:"8" validate:"min=1"`
		Timezone       string        `yaml:"timezone" default:"Asia/Jakarta"`
	} `yaml:"market_data"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"smartmoney"`
		Table            string        `yaml:"table" default:"daily_bars"`
		ScoreTable       string        `yaml:"score_table" default:"smart_scores"`
		SnapshotScores   bool          `yaml:"snapshot_scores"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async" default:"true"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"smartmoney.scores"`
		SummaryTopic string   `yaml:"summary_topic" default:"smartmoney.runs"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"500ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"smartmoney"`
	} `yaml:"redis"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. Missing fields fall back
// to their `default` tags.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes raw YAML, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file next to the process is honoured when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SCREENER_UNIVERSE_FILE"); v != "" {
		c.Screener.UniverseFile = v
	}
	if v := os.Getenv("SCREENER_BENCHMARK"); v != "" {
		c.Screener.Benchmark = v
	}
	if v := os.Getenv("SCREENER_PERIOD"); v != "" {
		c.Screener.Period = v
	}
	if v := os.Getenv("SCREENER_INTERVAL"); v != "" {
		c.Screener.Interval = v
	}
	if v := os.Getenv("SCREENER_BATCH_SIZE"); v != "" {
		c.Screener.BatchSize = util.ParseIntDefault(v, c.Screener.BatchSize)
	}
	if v := os.Getenv("MARKET_DATA_PROVIDER"); v != "" {
		c.MarketData.Provider = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			c.Redis.Port = util.ParseIntDefault(port, c.Redis.Port)
		}
		c.Redis.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Screener.UniverseFile == "" && len(c.Screener.Tickers) == 0 {
		return fmt.Errorf("screener.universe_file or screener.tickers is required")
	}
	return nil
}
