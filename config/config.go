package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultInstruments is the instrument list scanned when SCRAPE_INSTRUMENTS is unset.
var DefaultInstruments = []string{
	"EURUSD", "GBPUSD", "USDJPY", "USDCHF",
	"AUDUSD", "NZDUSD", "USDCAD", "EURGBP",
	"EURJPY", "EURCHF", "GBPJPY", "GBPCHF",
	"AUDJPY", "AUDNZD", "NZDJPY", "CADJPY",
	"EURAUD", "AUDCAD", "EURNZD", "GBPCAD", "NZDCAD",
}

// Store backends.
const (
	BackendDrive    = "drive"
	BackendLocal    = "local"
	BackendPostgres = "postgres"
)

// Drive credential strategies.
const (
	AuthOAuth          = "oauth"
	AuthServiceAccount = "service_account"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system.
// A Config is built once by Load and passed by value; nothing in the application
// mutates it afterwards.
//
// Example ENV:
//
//	SCRAPE_INSTRUMENTS=EURUSD,GBPUSD
//	DATASET_PARENT=1J6DfKmrhAOOennODNkdIbT56As1zbllA
//	STORE_BACKEND=drive
//	DRIVE_AUTH=service_account
//	DRIVE_CREDENTIALS_FILE=/secrets/sa.json
type Config struct {
	Server   ServerConfig   // HTTP server configuration (api mode)
	Scrape   ScrapeConfig   // Outlook page scraping
	Dataset  DatasetConfig  // Remote dataset identity
	Store    StoreConfig    // Blob store backend selection
	Drive    DriveConfig    // Google Drive credentials
	Postgres PostgresConfig // PostgreSQL connection settings
	RabbitMQ RabbitMQConfig // Optional publisher of persisted batches
	RunLock  RunLockConfig  // Cross-process run guard
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string
}

// ScrapeConfig controls which instruments are scraped and how pages are fetched.
type ScrapeConfig struct {
	Instruments      []string
	BaseURL          string
	Timeout          time.Duration
	RequestsPerSec   float64
	UserAgent        string
	CloudflareBypass bool
}

// DatasetConfig identifies the dataset object by name and parent container.
type DatasetConfig struct {
	Name   string
	Parent string
}

// StoreConfig selects the blob store backend.
type StoreConfig struct {
	Backend  string
	LocalDir string
}

// DriveConfig holds Google Drive credential settings.
type DriveConfig struct {
	Auth            string
	CredentialsFile string
	TokenFile       string
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Enabled turns on the run log even when the dataset lives in another backend.
type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// RabbitMQConfig configures the batch publisher. An empty URL disables it.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// RunLockConfig configures the lock file taken by run mode. An empty path disables it.
type RunLockConfig struct {
	Path string
	TTL  time.Duration
}

// Load builds a Config from defaults, an optional .env file and environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Returns an error naming every missing or invalid key.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", "8080")

	v.SetDefault("SCRAPE_INSTRUMENTS", strings.Join(DefaultInstruments, ","))
	v.SetDefault("SCRAPE_BASE_URL", "https://www.myfxbook.com")
	v.SetDefault("SCRAPE_TIMEOUT", "10s")
	v.SetDefault("SCRAPE_RPS", 1.0)
	v.SetDefault("SCRAPE_USER_AGENT", "")
	v.SetDefault("SCRAPE_CLOUDFLARE_BYPASS", false)

	v.SetDefault("DATASET_NAME", "myfxbook_data.csv")
	v.SetDefault("DATASET_PARENT", "")

	v.SetDefault("STORE_BACKEND", BackendDrive)
	v.SetDefault("STORE_LOCAL_DIR", "./data/store")

	v.SetDefault("DRIVE_AUTH", AuthOAuth)
	v.SetDefault("DRIVE_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("DRIVE_TOKEN_FILE", "token.json")

	v.SetDefault("POSTGRES_ENABLED", false)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "fxpulse")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "fx.sentiment")

	v.SetDefault("RUN_LOCK_FILE", "./data/run.lock")
	v.SetDefault("RUN_LOCK_TTL", "30m")

	// Optionally read from .env if present (common in local dev)
	v.SetConfigFile(".env")
	_ = v.ReadInConfig() // ignore error if no .env

	v.AutomaticEnv()

	cfg := Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
		},
		Scrape: ScrapeConfig{
			Instruments:      splitList(v.GetString("SCRAPE_INSTRUMENTS")),
			BaseURL:          v.GetString("SCRAPE_BASE_URL"),
			Timeout:          v.GetDuration("SCRAPE_TIMEOUT"),
			RequestsPerSec:   v.GetFloat64("SCRAPE_RPS"),
			UserAgent:        v.GetString("SCRAPE_USER_AGENT"),
			CloudflareBypass: v.GetBool("SCRAPE_CLOUDFLARE_BYPASS"),
		},
		Dataset: DatasetConfig{
			Name:   v.GetString("DATASET_NAME"),
			Parent: v.GetString("DATASET_PARENT"),
		},
		Store: StoreConfig{
			Backend:  strings.ToLower(v.GetString("STORE_BACKEND")),
			LocalDir: v.GetString("STORE_LOCAL_DIR"),
		},
		Drive: DriveConfig{
			Auth:            strings.ToLower(v.GetString("DRIVE_AUTH")),
			CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
			TokenFile:       v.GetString("DRIVE_TOKEN_FILE"),
		},
		Postgres: PostgresConfig{
			Enabled:  v.GetBool("POSTGRES_ENABLED"),
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetInt("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			DBName:   v.GetString("POSTGRES_DB"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		RunLock: RunLockConfig{
			Path: v.GetString("RUN_LOCK_FILE"),
			TTL:  v.GetDuration("RUN_LOCK_TTL"),
		},
	}

	// The postgres backend always needs the database.
	if cfg.Store.Backend == BackendPostgres {
		cfg.Postgres.Enabled = true
	}
	cfg.Postgres.URL = cfg.Postgres.DSN()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DSN renders the PostgreSQL connection string used by database/sql.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

// validate collects every missing or invalid key so that a misconfigured
// deployment is fixed in one pass.
func (c Config) validate() error {
	var problems []string

	if c.Server.Port == "" {
		problems = append(problems, "SERVER_PORT")
	}
	if len(c.Scrape.Instruments) == 0 {
		problems = append(problems, "SCRAPE_INSTRUMENTS")
	}
	if c.Scrape.BaseURL == "" {
		problems = append(problems, "SCRAPE_BASE_URL")
	}
	if c.Scrape.Timeout <= 0 {
		problems = append(problems, "SCRAPE_TIMEOUT (must be > 0)")
	}
	if c.Scrape.RequestsPerSec < 0 {
		problems = append(problems, "SCRAPE_RPS (must be >= 0)")
	}
	if c.Dataset.Name == "" {
		problems = append(problems, "DATASET_NAME")
	}

	switch c.Store.Backend {
	case BackendDrive:
		if c.Dataset.Parent == "" {
			problems = append(problems, "DATASET_PARENT")
		}
		switch c.Drive.Auth {
		case AuthOAuth:
			if c.Drive.CredentialsFile == "" {
				problems = append(problems, "DRIVE_CREDENTIALS_FILE")
			}
			if c.Drive.TokenFile == "" {
				problems = append(problems, "DRIVE_TOKEN_FILE")
			}
		case AuthServiceAccount:
			if c.Drive.CredentialsFile == "" {
				problems = append(problems, "DRIVE_CREDENTIALS_FILE")
			}
		default:
			problems = append(problems, fmt.Sprintf("DRIVE_AUTH (unknown %q)", c.Drive.Auth))
		}
	case BackendLocal:
		if c.Store.LocalDir == "" {
			problems = append(problems, "STORE_LOCAL_DIR")
		}
	case BackendPostgres:
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND (unknown %q)", c.Store.Backend))
	}

	if c.Postgres.Enabled {
		if c.Postgres.Host == "" {
			problems = append(problems, "POSTGRES_HOST")
		}
		if c.Postgres.Port == 0 {
			problems = append(problems, "POSTGRES_PORT")
		}
		if c.Postgres.User == "" {
			problems = append(problems, "POSTGRES_USER")
		}
		if c.Postgres.DBName == "" {
			problems = append(problems, "POSTGRES_DB")
		}
	}

	if c.RabbitMQ.URL != "" && c.RabbitMQ.Exchange == "" {
		problems = append(problems, "RABBITMQ_EXCHANGE")
	}
	if c.RunLock.Path != "" && c.RunLock.TTL <= 0 {
		problems = append(problems, "RUN_LOCK_TTL (must be > 0)")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}

// splitList parses a comma or whitespace separated list, dropping empty items.
// Order and duplicates are preserved.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(f))
	}
	return out
}
