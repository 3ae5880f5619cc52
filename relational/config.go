package relational

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Dialect is the SQL flavour of a relational registry.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// ParseDialect accepts "postgres", "postgresql" and "mysql", ignoring case.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return "", fmt.Errorf("relational: unsupported dialect %q", s)
	}
}

// DriverName is the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	if d == MySQL {
		return "mysql"
	}
	return "pgx"
}

const defaultMaxIdleTime = 2 * time.Second

// Config holds the settings of a relational client.
type Config struct {
	Dialect     Dialect
	DSN         string
	MaxIdleTime time.Duration
}

// ConfigFromEnv reads DATABASE_DIALECT, DATABASE_DSN and the optional
// DATABASE_MAX_IDLE_TIME (a time.Duration string).
func ConfigFromEnv() (Config, error) {
	dialect, err := ParseDialect(os.Getenv("DATABASE_DIALECT"))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Dialect:     dialect,
		DSN:         os.Getenv("DATABASE_DSN"),
		MaxIdleTime: defaultMaxIdleTime,
	}
	if v := os.Getenv("DATABASE_MAX_IDLE_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("relational: DATABASE_MAX_IDLE_TIME %q: %w", v, err)
		}
		cfg.MaxIdleTime = d
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := ParseDialect(string(c.Dialect)); err != nil {
		return err
	}
	if c.DSN == "" {
		return errors.New("relational: DATABASE_DSN is required")
	}
	return nil
}
