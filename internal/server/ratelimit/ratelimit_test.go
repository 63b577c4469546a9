package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg *Config) (*Limiter, *clock) {
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l.now = c.now
	return l, c
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	l, c := newTestLimiter(&Config{
		Enabled:         true,
		EndpointConfigs: []EndpointConfig{{Path: "/v1/classify-fields", Method: "POST", Limit: 60, Window: time.Minute, Burst: 3}},
	})

	for i := 0; i < 3; i++ {
		ok, info := l.Allow("1.2.3.4", "/v1/classify-fields", "POST")
		require.True(t, ok, "request %d", i)
		assert.Equal(t, 60, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	ok, info := l.Allow("1.2.3.4", "/v1/classify-fields", "POST")
	assert.False(t, ok)
	assert.Equal(t, time.Second, info.RetryAfter)

	c.advance(time.Second)
	ok, _ = l.Allow("1.2.3.4", "/v1/classify-fields", "POST")
	assert.True(t, ok)
}

func TestLimiter_ClientsAndEndpointsIsolated(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1,
		DefaultWindow:   time.Hour,
		EndpointConfigs: []EndpointConfig{{Path: "/v1/credits", Method: "GET", Limit: 1, Window: time.Hour}},
	})

	ok, _ := l.Allow("a", "/v1/credits", "GET")
	assert.True(t, ok)
	ok, _ = l.Allow("a", "/v1/credits", "GET")
	assert.False(t, ok)

	ok, _ = l.Allow("b", "/v1/credits", "GET")
	assert.True(t, ok, "other client has its own bucket")
	ok, _ = l.Allow("a", "/other", "GET")
	assert.True(t, ok, "default limit is per endpoint")
}

func TestLimiter_ListsAndDisabled(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:      true,
		DefaultLimit: 1, DefaultWindow: time.Hour,
		Whitelist: map[string]bool{"trusted": true},
		Blacklist: map[string]bool{"banned": true},
	})
	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("trusted", "/v1/credits", "GET")
		assert.True(t, ok)
	}
	ok, _ := l.Allow("banned", "/v1/credits", "GET")
	assert.False(t, ok)

	off, _ := newTestLimiter(&Config{Enabled: false})
	ok, _ = off.Allow("anyone", "/v1/classify-fields", "POST")
	assert.True(t, ok)
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	for i := 0; i < 10; i++ {
		ok, info := l.Allow("c", "/health", "GET")
		assert.True(t, ok)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	l, c := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	l.Allow("c", "/x", "GET")
	c.advance(2 * idleBucketTTL)
	l.evictIdle()
	assert.Empty(t, l.buckets)
}

func TestLimiter_StopIdempotent(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, CleanupInterval: time.Millisecond})
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/v1/", Method: "POST", Limit: 5},
		{Path: "/v1/classify-fields", Method: "POST", Limit: 10},
	}

	assert.Equal(t, 10, MatchEndpoint("/v1/classify-fields", "POST", configs).Limit)
	assert.Equal(t, 5, MatchEndpoint("/v1/auto-add-decision", "POST", configs).Limit)
	assert.Nil(t, MatchEndpoint("/v1/classify-fields", "GET", configs))
	assert.Zero(t, MatchEndpoint("/health", "GET", configs).Limit)
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Enabled)
				assert.Equal(t, defaultLimit, cfg.DefaultLimit)
				assert.Equal(t, DefaultEndpointConfigs(), cfg.EndpointConfigs)
			},
		},
		{
			name: "prefixed variables win over legacy names",
			env: map[string]string{
				"AUTOFILL_RATE_LIMIT_DEFAULT_LIMIT": "42",
				"RATE_LIMIT_DEFAULT_LIMIT":          "7",
				"RATE_LIMIT_DEFAULT_WINDOW":         "30s",
				"AUTOFILL_RATE_LIMIT_WHITELIST":     "10.0.0.1, 10.0.0.2",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 42, cfg.DefaultLimit)
				assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
				assert.True(t, cfg.Whitelist["10.0.0.2"])
			},
		},
		{
			name: "disabled",
			env:  map[string]string{"RATE_LIMIT_ENABLED": "false"},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Enabled)
			},
		},
		{
			name: "endpoint overrides",
			env:  map[string]string{"AUTOFILL_RATE_LIMIT_ENDPOINTS": "classify-fields=30/1m:5, credits=off"},
			check: func(t *testing.T, cfg *Config) {
				classify := MatchEndpoint("/v1/classify-fields", "POST", cfg.EndpointConfigs)
				assert.Equal(t, 30, classify.Limit)
				assert.Equal(t, time.Minute, classify.Window)
				assert.Equal(t, 5, classify.Burst)
				assert.Zero(t, MatchEndpoint("/v1/credits", "GET", cfg.EndpointConfigs).Limit)
				assert.Equal(t, 60, MatchEndpoint("/v1/auto-add-decision", "POST", cfg.EndpointConfigs).Limit)
			},
		},
		{
			name:    "bad enabled flag",
			env:     map[string]string{"AUTOFILL_RATE_LIMIT_ENABLED": "sometimes"},
			wantErr: "invalid AUTOFILL_RATE_LIMIT_ENABLED",
		},
		{
			name:    "bad window",
			env:     map[string]string{"RATE_LIMIT_DEFAULT_WINDOW": "soon"},
			wantErr: "invalid AUTOFILL_RATE_LIMIT_DEFAULT_WINDOW",
		},
		{
			name:    "unknown operation",
			env:     map[string]string{"AUTOFILL_RATE_LIMIT_ENDPOINTS": "fill=10/1m"},
			wantErr: `unknown operation "fill"`,
		},
		{
			name:    "missing window",
			env:     map[string]string{"AUTOFILL_RATE_LIMIT_ENDPOINTS": "credits=10"},
			wantErr: "want op=limit/window",
		},
		{
			name:    "bad burst",
			env:     map[string]string{"AUTOFILL_RATE_LIMIT_ENDPOINTS": "credits=10/1m:0"},
			wantErr: `bad burst "0"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{"ENABLED", "DEFAULT_LIMIT", "DEFAULT_WINDOW", "CLEANUP_INTERVAL", "WHITELIST", "BLACKLIST"} {
				t.Setenv("AUTOFILL_RATE_LIMIT_"+name, "")
				t.Setenv("RATE_LIMIT_"+name, "")
			}
			t.Setenv("AUTOFILL_RATE_LIMIT_ENDPOINTS", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
