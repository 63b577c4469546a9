package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Session token defaults.
const (
	DefaultSessionTTL    = 24 * time.Hour
	DefaultSessionIssuer = "form-autofill"
	DefaultSessionLeeway = 30 * time.Second
)

// SessionConfig holds the signing settings for hosted-backend session tokens.
type SessionConfig struct {
	Secret string        `validate:"required"`
	TTL    time.Duration `validate:"min=1m"`
	Issuer string        `validate:"required"`
	// Leeway tolerates clock skew between the CLI that issued a token and
	// the server validating it.
	Leeway time.Duration `validate:"min=0"`
}

// LoadSessionConfig reads AUTOFILL_SESSION_SECRET, AUTOFILL_SESSION_TTL (a
// duration such as "12h"), AUTOFILL_SESSION_ISSUER and AUTOFILL_SESSION_LEEWAY.
// JWT_SECRET and JWT_EXPIRATION_HOURS are accepted when the AUTOFILL_
// variables are unset.
func LoadSessionConfig() (*SessionConfig, error) {
	cfg := &SessionConfig{
		Secret: firstEnv("AUTOFILL_SESSION_SECRET", "JWT_SECRET"),
		TTL:    DefaultSessionTTL,
		Issuer: DefaultSessionIssuer,
		Leeway: DefaultSessionLeeway,
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("AUTOFILL_SESSION_SECRET (or JWT_SECRET) is required but not set")
	}

	if v := os.Getenv("AUTOFILL_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTOFILL_SESSION_TTL: %w", err)
		}
		cfg.TTL = ttl
	} else if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %w", err)
		}
		cfg.TTL = time.Duration(hours) * time.Hour
	}
	if v := os.Getenv("AUTOFILL_SESSION_ISSUER"); v != "" {
		cfg.Issuer = v
	}
	if v := os.Getenv("AUTOFILL_SESSION_LEEWAY"); v != "" {
		leeway, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTOFILL_SESSION_LEEWAY: %w", err)
		}
		cfg.Leeway = leeway
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field bounds and that the skew allowance is shorter than
// the token lifetime.
func (c *SessionConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("session config error: '%s' failed '%s' validation", verrs[0].StructField(), verrs[0].Tag())
		}
		return fmt.Errorf("session config error: %w", err)
	}
	if c.Leeway >= c.TTL {
		return fmt.Errorf("session config error: leeway %s must be shorter than TTL %s", c.Leeway, c.TTL)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
