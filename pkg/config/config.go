package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Engine struct {
		Symbols            []string      `yaml:"symbols"`
		Quantity           int           `yaml:"quantity"`
		ProposalExpiry     time.Duration `yaml:"proposal_expiry"`
		PollInterval       time.Duration `yaml:"poll_interval"`
		ExpirySweep        time.Duration `yaml:"expiry_sweep"`
		MarketTimezone     string        `yaml:"market_timezone"`
		Timeframe          string        `yaml:"timeframe"`
		AlignedThreshold   float64       `yaml:"aligned_threshold"`
		TechnicalThreshold float64       `yaml:"technical_threshold"`
		VolumeMultiplier   float64       `yaml:"volume_multiplier"`
		Windows            struct {
			Short  int `yaml:"short"`
			Medium int `yaml:"medium"`
			SMA    int `yaml:"sma"`
			Volume int `yaml:"volume"`
		} `yaml:"windows"`
		TargetUsers []string `yaml:"target_users"`
	} `yaml:"engine"`
	Sentiment struct {
		Enabled         bool          `yaml:"enabled"`
		BiasThreshold   float64       `yaml:"bias_threshold"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
		BiasCheck       time.Duration `yaml:"bias_check"`
		MaxArticles     int           `yaml:"max_articles"`
	} `yaml:"sentiment"`
	Alpaca struct {
		APIKey     string `yaml:"api_key"`
		APISecret  string `yaml:"api_secret"`
		DataURL    string `yaml:"data_url"`
		TradingURL string `yaml:"trading_url"`
		Feed       string `yaml:"feed"`
	} `yaml:"alpaca"`
	NewsAPI struct {
		APIKey        string        `yaml:"api_key"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		RateBurst     int           `yaml:"rate_burst"`
	} `yaml:"newsapi"`
	Postgres struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Database string `yaml:"database"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"ssl_mode"`
	} `yaml:"postgres"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Credentials are expected from the environment in most
// deployments; the YAML keys exist for local development.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		c.Alpaca.APISecret = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.NewsAPI.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Engine.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("TARGET_USERS"); v != "" {
		c.Engine.TargetUsers = strings.Split(v, ",")
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Engine.Symbols) == 0 {
		return fmt.Errorf("engine.symbols cannot be empty")
	}
	if len(c.Engine.TargetUsers) == 0 {
		return fmt.Errorf("engine.target_users cannot be empty")
	}
	if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
		return fmt.Errorf("alpaca credentials are required")
	}
	if c.Sentiment.Enabled && c.NewsAPI.APIKey == "" {
		// A missing news key disables sentiment instead of refusing to
		// start; the engine runs technical-only with neutral verdicts.
		c.Sentiment.Enabled = false
	}
	if c.Postgres.Host == "" {
		return fmt.Errorf("postgres.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	return nil
}
