// Package config loads application configuration from the environment.
//
// Defaults come from a struct literal, overrides from env vars with the
// INSIGHTS_ prefix. A double underscore separates nesting levels, so
// INSIGHTS_SERVER__PORT maps to server.port and
// INSIGHTS_SERVER__READ_TIMEOUT maps to server.read_timeout.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "INSIGHTS_"

type Config struct {
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Database DatabaseConfig `koanf:"database"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Export   ExportConfig   `koanf:"export"`
	Logger   LoggerConfig   `koanf:"logger" validate:"required"`
	Security SecurityConfig `koanf:"security" validate:"required"`
}

// ServerConfig groups HTTP server runtime settings. Timeouts are seconds.
type ServerConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     int    `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout    int    `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout     int    `koanf:"idle_timeout" validate:"required,min=1"`
	ShutdownTimeout int    `koanf:"shutdown_timeout" validate:"required,min=1"`
}

// DatabaseConfig selects the backing store. An empty URL means the
// in-process store fed directly from the CSV file.
type DatabaseConfig struct {
	URL              string `koanf:"url"`
	MaxConns         int32  `koanf:"max_conns" validate:"min=0"`
	ConnectTimeout   int    `koanf:"connect_timeout" validate:"min=0"`
	StatementLogging bool   `koanf:"statement_logging"`
}

type IngestConfig struct {
	CSVFile   string `koanf:"csv_file"`
	BatchSize int    `koanf:"batch_size" validate:"min=1"`
}

// ExportConfig drives the one-shot report exporter. Thresholds is the list
// of minimum-sales arguments the employee report is invoked with, one
// output file each.
type ExportConfig struct {
	Dir        string `koanf:"dir"`
	Thresholds []int  `koanf:"thresholds"`
}

type LoggerConfig struct {
	Level  string `koanf:"level" validate:"required,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `koanf:"rate_limit_enabled"`
	RateLimitRPS    int      `koanf:"rate_limit_rps" validate:"min=1"`
	RateLimitBurst  int      `koanf:"rate_limit_burst" validate:"min=1"`
	AllowedOrigins  []string `koanf:"allowed_origins"`
	TrustedProxies  []string `koanf:"trusted_proxies"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10,
			WriteTimeout:    30,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			MaxConns:       4,
			ConnectTimeout: 10,
		},
		Ingest: IngestConfig{
			CSVFile:   "data.csv",
			BatchSize: 5000,
		},
		Export: ExportConfig{
			Dir:        "reports",
			Thresholds: []int{500, 1000, 2000},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

func Load() (*Config, error) {
	k := koanf.New(".")

	def := defaults()
	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	// Env vars are flat strings, so slice-valued settings (allowed
	// origins, trusted proxies, export thresholds) arrive as one
	// comma-separated value and are split during decode.
	err = k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.StringToTimeDurationHookFunc(),
			),
			Result:           cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// UseDatabase reports whether a PostgreSQL store is configured.
func (c *Config) UseDatabase() bool {
	return c.Database.URL != ""
}

func (c ServerConfig) ReadTimeoutDuration() time.Duration  { return seconds(c.ReadTimeout) }
func (c ServerConfig) WriteTimeoutDuration() time.Duration { return seconds(c.WriteTimeout) }
func (c ServerConfig) IdleTimeoutDuration() time.Duration  { return seconds(c.IdleTimeout) }
func (c ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return seconds(c.ShutdownTimeout)
}

func (c DatabaseConfig) ConnectTimeoutDuration() time.Duration { return seconds(c.ConnectTimeout) }

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
