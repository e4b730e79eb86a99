package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyedClient struct{ key string }

func (k *keyedClient) Complete(context.Context, string, string) (string, error) { return k.key, nil }

func newTestCache(builds *int) *ClientCache {
	cache := NewClientCache(Config{APIKey: "default-key"})
	cache.build = func(cfg Config) (Client, error) {
		*builds++
		if cfg.APIKey == "" {
			return nil, ErrConfiguration
		}
		return &keyedClient{key: cfg.APIKey}, nil
	}
	return cache
}

func TestClientCacheReusesClientForSameKey(t *testing.T) {
	builds := 0
	cache := newTestCache(&builds)

	first, err := cache.Get("key-a")
	require.NoError(t, err)
	second, err := cache.Get("key-a")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
}

func TestClientCacheRebuildsOnKeyChange(t *testing.T) {
	builds := 0
	cache := newTestCache(&builds)

	first, err := cache.Get("key-a")
	require.NoError(t, err)
	second, err := cache.Get("key-b")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, builds)
	out, _ := second.Complete(context.Background(), "", "")
	assert.Equal(t, "key-b", out)
}

func TestClientCacheFallsBackToConfiguredKey(t *testing.T) {
	builds := 0
	cache := newTestCache(&builds)

	client, err := cache.Get("")
	require.NoError(t, err)
	out, _ := client.Complete(context.Background(), "", "")
	assert.Equal(t, "default-key", out)
}

func TestClientCacheInvalidate(t *testing.T) {
	builds := 0
	cache := newTestCache(&builds)

	_, err := cache.Get("key-a")
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Get("key-a")
	require.NoError(t, err)

	assert.Equal(t, 2, builds)
}

func TestClientCacheMissingKey(t *testing.T) {
	cache := NewClientCache(Config{})
	_, err := cache.Get("")
	assert.ErrorIs(t, err, ErrConfiguration)
}
