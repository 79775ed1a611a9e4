package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks invariants that would otherwise only surface as runtime
// failures deep inside a request.
func (c *AppConfig) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port out of range: %d", c.App.Port)
	}
	if c.JWT.Secret == "" && c.App.Env != "development" {
		return errors.New("jwt.secret must be set outside development")
	}
	if c.JWT.TokenTTL <= 0 {
		return errors.New("jwt.token_ttl must be positive")
	}
	if _, err := c.Policy.ParseCoverageEndDate(); err != nil {
		return err
	}
	if c.RateLimit.WindowDuration <= 0 {
		return errors.New("rate_limit.window_duration must be positive")
	}
	return nil
}

// Addr returns the host:port pair the HTTP server listens on.
func (a AppSettings) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// DSN builds a pgx connection string.
func (p PostgresSettings) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// Addr returns the Redis host:port pair.
func (r RedisSettings) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ParseCoverageEndDate resolves the configured cutoff to midnight UTC of
// that calendar date.
func (p PolicySettings) ParseCoverageEndDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", p.CoverageEndDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("policy.coverage_end_date: %w", err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
