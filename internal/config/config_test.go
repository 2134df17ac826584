package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("Server.Port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}
	if cfg.Source.Kind != SourceSynthetic || !cfg.Source.Fallback {
		t.Errorf("Source = %+v, want synthetic with fallback", cfg.Source)
	}
	if cfg.Source.Sheets.Range != "Sales" {
		t.Errorf("Sheets.Range = %q, want Sales", cfg.Source.Sheets.Range)
	}
	if cfg.Source.Synthetic.Rows != 1000 || cfg.Source.Synthetic.Seed != 42 || cfg.Source.Synthetic.Days != 365 {
		t.Errorf("Synthetic = %+v", cfg.Source.Synthetic)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if len(cfg.Security.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SOURCE_KIND", "sheets")
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-123")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("SOURCE_FALLBACK", "false")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Source.Kind != SourceSheets || cfg.Source.Sheets.SpreadsheetID != "sheet-123" {
		t.Errorf("Source = %+v", cfg.Source)
	}
	if cfg.Source.Fallback {
		t.Error("Source.Fallback should be false")
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}
	if len(cfg.Security.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want 2 entries", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	content := `
source:
  kind: csv
  csv_file: sales.csv
cache:
  ttl: 10m
  store: file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.Kind != SourceCSV || cfg.Source.CSVFile != "sales.csv" {
		t.Errorf("Source = %+v", cfg.Source)
	}
	if cfg.Cache.TTL != 10*time.Minute || cfg.Cache.Store != StoreFile {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Port != 8084 {
		t.Errorf("unset values should keep defaults, Server.Port = %d", cfg.Server.Port)
	}

	// environment wins over the file
	t.Setenv("CSV_FILE", "override.csv")
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source.CSVFile != "override.csv" {
		t.Errorf("CSVFile = %q, want override.csv", cfg.Source.CSVFile)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"unknown source", func(c *Config) { c.Source.Kind = "ftp" }, "unknown source kind"},
		{"sheets without id", func(c *Config) { c.Source.Kind = SourceSheets }, "spreadsheet id"},
		{"s3 without bucket", func(c *Config) { c.Source.Kind = SourceS3 }, "bucket"},
		{"postgres without url", func(c *Config) { c.Source.Kind = SourcePostgres }, "postgres url"},
		{"csv ok", func(c *Config) { c.Source.Kind = SourceCSV }, ""},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "TTL"},
		{"unknown store", func(c *Config) { c.Cache.Store = "memcached" }, "cache store"},
		{"redis without addr", func(c *Config) { c.Cache.Store = StoreRedis; c.Cache.RedisAddr = "" }, "redis address"},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }, "log level"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "log format"},
		{"zero rps", func(c *Config) { c.Security.RateLimitRPS = 0 }, "RPS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "kpidash.yaml")

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Error("expected error when the file already exists")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault(overwrite) error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(default file) error = %v", err)
	}
	if cfg.Cache.TTL != time.Hour || cfg.Source.Sheets.Range != "Sales" {
		t.Errorf("round-tripped config = %+v", cfg)
	}
}
