//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/types"
)

// These tests require a running Redis server.
// Set TEST_REDIS_URL, e.g. redis://localhost:6379/15
func getTestRedis(t *testing.T) *Redis {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}

	r, err := ConnectRedis(context.Background(), url, time.Minute, nil)
	require.NoError(t, err)
	return r
}

func TestIntegration_Redis_RoundTrip(t *testing.T) {
	r := getTestRedis(t)
	defer r.Close()
	ctx := context.Background()

	key := "test-" + Fingerprint(types.FieldDescriptor{Label: "Email"})
	r.Set(ctx, key, []types.Candidate{{Type: types.Email, Score: 0.92, Reasons: []string{"llm"}}})

	e, ok := r.Get(ctx, key)
	require.True(t, ok)
	require.Len(t, e.Candidates, 1)
	assert.Equal(t, types.Email, e.Candidates[0].Type)

	r.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, ok = r.Get(ctx, key)
	assert.False(t, ok)
}
