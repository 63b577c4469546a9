package ratelimit

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultLimit applies to endpoints without their own configuration.
const defaultLimit = 600

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// EndpointConfig is the token bucket for one backend operation. Limit
// tokens refill per Window into a bucket of Burst capacity (Limit when 0).
// A Path ending in "/" matches as a prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Defaults is the configuration used without environment overrides.
func Defaults() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    defaultLimit,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-operation limits. Classification
// and auto-add calls spend model credits and are limited hardest.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/v1/classify-fields", Method: http.MethodPost, Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/v1/auto-add-decision", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/v1/credits", Method: http.MethodGet, Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// LoadConfig reads AUTOFILL_RATE_LIMIT_* variables over Defaults. The
// unprefixed RATE_LIMIT_* names are still honored when the new ones are
// unset. AUTOFILL_RATE_LIMIT_ENDPOINTS overrides single operations, for
// example "classify-fields=30/1m:5,credits=off".
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if v := rateEnv("ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTOFILL_RATE_LIMIT_ENABLED %q: %w", v, err)
		}
		cfg.Enabled = enabled
	}
	if !cfg.Enabled {
		return cfg, nil
	}

	if v := rateEnv("DEFAULT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid AUTOFILL_RATE_LIMIT_DEFAULT_LIMIT %q", v)
		}
		cfg.DefaultLimit = n
	}
	for name, dst := range map[string]*time.Duration{
		"DEFAULT_WINDOW":   &cfg.DefaultWindow,
		"CLEANUP_INTERVAL": &cfg.CleanupInterval,
	} {
		if v := rateEnv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("invalid AUTOFILL_RATE_LIMIT_%s %q: %w", name, v, err)
			}
			*dst = d
		}
	}

	cfg.Whitelist = parseClientList(rateEnv("WHITELIST"))
	cfg.Blacklist = parseClientList(rateEnv("BLACKLIST"))

	if v := os.Getenv("AUTOFILL_RATE_LIMIT_ENDPOINTS"); v != "" {
		if err := applyEndpointOverrides(cfg.EndpointConfigs, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// rateEnv returns AUTOFILL_RATE_LIMIT_<name>, falling back to RATE_LIMIT_<name>.
func rateEnv(name string) string {
	if v := os.Getenv("AUTOFILL_RATE_LIMIT_" + name); v != "" {
		return v
	}
	return os.Getenv("RATE_LIMIT_" + name)
}

// applyEndpointOverrides parses "op=limit/window[:burst]" entries separated
// by commas. An op is the path after /v1/, and "off" disables its limit.
func applyEndpointOverrides(configs []EndpointConfig, spec string) error {
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		op, rule, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("invalid endpoint rate limit %q: want op=limit/window", entry)
		}
		ep := findOperation(configs, strings.TrimSpace(op))
		if ep == nil {
			return fmt.Errorf("invalid endpoint rate limit %q: unknown operation %q", entry, op)
		}

		rule = strings.TrimSpace(rule)
		if rule == "off" {
			ep.Limit = 0
			continue
		}
		rate, burst, hasBurst := strings.Cut(rule, ":")
		limit, window, ok := strings.Cut(rate, "/")
		if !ok {
			return fmt.Errorf("invalid endpoint rate limit %q: want op=limit/window", entry)
		}
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid endpoint rate limit %q: bad limit %q", entry, limit)
		}
		w, err := time.ParseDuration(window)
		if err != nil || w <= 0 {
			return fmt.Errorf("invalid endpoint rate limit %q: bad window %q", entry, window)
		}
		ep.Limit, ep.Window, ep.Burst = n, w, 0
		if hasBurst {
			b, err := strconv.Atoi(burst)
			if err != nil || b <= 0 {
				return fmt.Errorf("invalid endpoint rate limit %q: bad burst %q", entry, burst)
			}
			ep.Burst = b
		}
	}
	return nil
}

func findOperation(configs []EndpointConfig, op string) *EndpointConfig {
	for i := range configs {
		if strings.TrimPrefix(configs[i].Path, "/v1/") == op {
			return &configs[i]
		}
	}
	return nil
}

// parseClientList splits a comma-separated list of client IDs.
func parseClientList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			result[id] = true
		}
	}
	return result
}
