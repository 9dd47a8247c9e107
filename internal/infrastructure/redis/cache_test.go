package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client, err := NewClient(context.Background(), Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewCache(client, "test:"+uuid.NewString()+":")
}

func TestCache_RoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	type doc struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	var got doc
	hit, err := c.GetJSON(ctx, "deal:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, "deal:1", doc{ID: "1", Name: "first"}, time.Minute))

	hit, err = c.GetJSON(ctx, "deal:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, doc{ID: "1", Name: "first"}, got)

	require.NoError(t, c.Delete(ctx, "deal:1", "deal:2"))
	hit, err = c.GetJSON(ctx, "deal:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
