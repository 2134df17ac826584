package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	SourceSynthetic = "synthetic"
	SourceSheets    = "sheets"
	SourceS3        = "s3"
	SourceCSV       = "csv"
	SourcePostgres  = "postgres"

	StoreNone  = "none"
	StoreFile  = "file"
	StoreRedis = "redis"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Source   SourceConfig   `mapstructure:"source" yaml:"source"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type SourceConfig struct {
	Kind         string          `mapstructure:"kind" yaml:"kind"`
	Fallback     bool            `mapstructure:"fallback" yaml:"fallback"`
	FetchTimeout time.Duration   `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	CSVFile      string          `mapstructure:"csv_file" yaml:"csv_file"`
	Sheets       SheetsConfig    `mapstructure:"sheets" yaml:"sheets"`
	S3           S3Config        `mapstructure:"s3" yaml:"s3"`
	Postgres     PostgresConfig  `mapstructure:"postgres" yaml:"postgres"`
	Synthetic    SyntheticConfig `mapstructure:"synthetic" yaml:"synthetic"`
}

type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id"`
	Range           string `mapstructure:"range" yaml:"range"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Key       string `mapstructure:"key" yaml:"key"`
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

type PostgresConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Table string `mapstructure:"table" yaml:"table"`
}

type SyntheticConfig struct {
	Rows int   `mapstructure:"rows" yaml:"rows"`
	Seed int64 `mapstructure:"seed" yaml:"seed"`
	Days int   `mapstructure:"days" yaml:"days"`
}

type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Store         string        `mapstructure:"store" yaml:"store"`
	Dir           string        `mapstructure:"dir" yaml:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled"`
	RateLimitRPS    int      `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst  int      `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	AllowedOrigins  []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	TrustedProxies  []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
}

type setting struct {
	key string
	env string
	def any
}

var settings = []setting{
	{"server.host", "SERVER_HOST", "localhost"},
	{"server.port", "SERVER_PORT", 8084},
	{"server.read_timeout", "SERVER_READ_TIMEOUT", 10 * time.Second},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT", 10 * time.Second},
	{"server.idle_timeout", "SERVER_IDLE_TIMEOUT", 60 * time.Second},
	{"server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT", 30 * time.Second},

	{"source.kind", "SOURCE_KIND", SourceSynthetic},
	{"source.fallback", "SOURCE_FALLBACK", true},
	{"source.fetch_timeout", "SOURCE_FETCH_TIMEOUT", 30 * time.Second},
	{"source.csv_file", "CSV_FILE", "data.csv"},
	{"source.sheets.spreadsheet_id", "SHEETS_SPREADSHEET_ID", ""},
	{"source.sheets.range", "SHEETS_RANGE", "Sales"},
	{"source.sheets.credentials_file", "SHEETS_CREDENTIALS_FILE", ""},
	{"source.sheets.api_key", "SHEETS_API_KEY", ""},
	{"source.s3.bucket", "S3_BUCKET", ""},
	{"source.s3.key", "S3_KEY", "sales.csv"},
	{"source.s3.region", "S3_REGION", "us-east-1"},
	{"source.s3.endpoint", "S3_ENDPOINT", ""},
	{"source.s3.access_key", "S3_ACCESS_KEY", ""},
	{"source.s3.secret_key", "S3_SECRET_KEY", ""},
	{"source.postgres.url", "POSTGRES_URL", ""},
	{"source.postgres.table", "POSTGRES_TABLE", "sales_transactions"},
	{"source.synthetic.rows", "SYNTHETIC_ROWS", 1000},
	{"source.synthetic.seed", "SYNTHETIC_SEED", 42},
	{"source.synthetic.days", "SYNTHETIC_DAYS", 365},

	{"cache.ttl", "CACHE_TTL", 60 * time.Minute},
	{"cache.store", "CACHE_STORE", StoreNone},
	{"cache.dir", "CACHE_DIR", ".cache"},
	{"cache.redis_addr", "REDIS_ADDR", "localhost:6379"},
	{"cache.redis_db", "REDIS_DB", 0},
	{"cache.redis_password", "REDIS_PASSWORD", ""},

	{"logger.level", "LOG_LEVEL", "info"},
	{"logger.format", "LOG_FORMAT", "json"},

	{"security.rate_limit_enabled", "SECURITY_RATE_LIMIT_ENABLED", true},
	{"security.rate_limit_rps", "SECURITY_RATE_LIMIT_RPS", 100},
	{"security.rate_limit_burst", "SECURITY_RATE_LIMIT_BURST", 10},
	{"security.allowed_origins", "SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}},
	{"security.trusted_proxies", "SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}},
}

func newViper() *viper.Viper {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		_ = v.BindEnv(s.key, s.env)
	}
	return v
}

// Default returns the built-in configuration, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
	}
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load resolves configuration from defaults, then the YAML file (configFile,
// or ./kpidash.yaml when present), then the environment. A .env file in the
// working directory is loaded into the environment first.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("kpidash")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if err := c.Source.validate(); err != nil {
		return err
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	validStores := []string{StoreNone, StoreFile, StoreRedis}
	if !slices.Contains(validStores, c.Cache.Store) {
		return fmt.Errorf("invalid cache store %q, must be one of: %s", c.Cache.Store, strings.Join(validStores, ", "))
	}

	if c.Cache.Store == StoreRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("redis address is required for the redis cache store")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text", "console"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func (s SourceConfig) validate() error {
	if s.FetchTimeout <= 0 {
		return fmt.Errorf("source fetch timeout must be positive")
	}

	if s.Synthetic.Rows < 0 || s.Synthetic.Days <= 0 {
		return fmt.Errorf("synthetic rows must be non-negative and days positive")
	}

	switch s.Kind {
	case SourceSynthetic:
	case SourceSheets:
		if s.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("spreadsheet id is required for the sheets source")
		}
		if s.Sheets.Range == "" {
			return fmt.Errorf("sheet range cannot be empty")
		}
	case SourceS3:
		if s.S3.Bucket == "" || s.S3.Key == "" {
			return fmt.Errorf("bucket and key are required for the s3 source")
		}
	case SourceCSV:
		if s.CSVFile == "" {
			return fmt.Errorf("CSV file path cannot be empty")
		}
	case SourcePostgres:
		if s.Postgres.URL == "" {
			return fmt.Errorf("postgres url is required for the postgres source")
		}
		if s.Postgres.Table == "" {
			return fmt.Errorf("postgres table cannot be empty")
		}
	default:
		return fmt.Errorf("unknown source kind %q, must be one of: %s", s.Kind,
			strings.Join([]string{SourceSynthetic, SourceSheets, SourceS3, SourceCSV, SourcePostgres}, ", "))
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// WriteDefault writes the built-in configuration as YAML to path. An existing
// file is left alone unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
