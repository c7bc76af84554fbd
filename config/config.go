// Package config loads the YAML configuration shared by the API server and
// the challengectl CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"challengeflow/analytics"
	"challengeflow/snapshot"
)

type ServerConfig struct {
	Addr         string        `yaml:"addr"` // :8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"` // default: violations
}

// RecordsConfig selects where dispute records are read from. Derived tables
// (monthly reports, snapshots) always live in Postgres.
type RecordsConfig struct {
	Driver string      `yaml:"driver"` // postgres | mongo
	Mongo  MongoConfig `yaml:"mongo"`
}

type AnalyticsConfig struct {
	SavingsPerPoint    float64       `yaml:"savings_per_point"`
	PercentilePerPoint float64       `yaml:"percentile_per_point"`
	PercentileCap      float64       `yaml:"percentile_cap"`
	TrendMonths        int           `yaml:"trend_months"`
	MaxTrendMonths     int           `yaml:"max_trend_months"`
	HighScore          float64       `yaml:"high_score"`
	LowScore           float64       `yaml:"low_score"`
	SnapshotTTL        time.Duration `yaml:"snapshot_ttl"`
	Timezone           string        `yaml:"timezone"`
}

// Client is an API client allowed to exchange its secret for a bearer token.
type Client struct {
	ID         string `yaml:"id"`
	SecretHash string `yaml:"secret_hash"` // bcrypt
	CompanyID  string `yaml:"company_id"`  // empty for operators
	Role       string `yaml:"role"`        // carrier | operator
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Clients   []Client      `yaml:"clients"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Records   RecordsConfig   `yaml:"records"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
}

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

func Default() Config {
	d := analytics.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MaxConnLifetime: time.Hour,
		},
		Records: RecordsConfig{
			Driver: DriverPostgres,
			Mongo:  MongoConfig{Database: "challengeflow", Collection: "violations"},
		},
		Analytics: AnalyticsConfig{
			SavingsPerPoint:    d.SavingsPerPoint,
			PercentilePerPoint: d.PercentilePerPoint,
			PercentileCap:      d.PercentileCap,
			TrendMonths:        d.TrendMonths,
			MaxTrendMonths:     d.MaxTrendMonths,
			HighScore:          d.HighScore,
			LowScore:           d.LowScore,
			SnapshotTTL:        snapshot.DefaultTTL,
			Timezone:           "UTC",
		},
		Auth: AuthConfig{TokenTTL: 24 * time.Hour},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path loads defaults and environment only.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("CHALLENGEFLOW_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("CHALLENGEFLOW_MONGO_URI"); v != "" {
		c.Records.Mongo.URI = v
	}
}

func (c Config) Validate() error {
	var errs []error
	switch c.Records.Driver {
	case DriverPostgres:
	case DriverMongo:
		if c.Records.Mongo.URI == "" {
			errs = append(errs, errors.New("records.mongo.uri is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("records.driver %q must be postgres or mongo", c.Records.Driver))
	}
	if c.Analytics.PercentileCap < 0 || c.Analytics.SavingsPerPoint < 0 {
		errs = append(errs, errors.New("analytics constants must not be negative"))
	}
	if c.Analytics.MaxTrendMonths > 0 && c.Analytics.TrendMonths > c.Analytics.MaxTrendMonths {
		errs = append(errs, errors.New("analytics.trend_months must not exceed max_trend_months"))
	}
	if c.Analytics.LowScore > c.Analytics.HighScore {
		errs = append(errs, errors.New("analytics.low_score must not exceed high_score"))
	}
	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("analytics.timezone: %w", err))
	}
	for i, cl := range c.Auth.Clients {
		if cl.ID == "" || cl.SecretHash == "" {
			errs = append(errs, fmt.Errorf("auth.clients[%d]: id and secret_hash are required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Engine converts the analytics section into the engine configuration.
func (c Config) Engine() analytics.Config {
	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return analytics.Config{
		SavingsPerPoint:    c.Analytics.SavingsPerPoint,
		PercentilePerPoint: c.Analytics.PercentilePerPoint,
		PercentileCap:      c.Analytics.PercentileCap,
		TrendMonths:        c.Analytics.TrendMonths,
		MaxTrendMonths:     c.Analytics.MaxTrendMonths,
		HighScore:          c.Analytics.HighScore,
		LowScore:           c.Analytics.LowScore,
		Location:           loc,
	}
}

func (c Config) SnapshotPolicy() snapshot.Policy {
	return snapshot.Policy{TTL: c.Analytics.SnapshotTTL}
}

// Logger builds the process logger from the log section. Unknown levels fall
// back to info.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
