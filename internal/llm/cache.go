package llm

import "sync"

// ClientCache holds one client per credential. The client is built on first use,
// reused while the key is unchanged and rebuilt when a different key is presented.
type ClientCache struct {
	mu     sync.Mutex
	cfg    Config
	key    string
	client Client
	build  func(Config) (Client, error)
}

func NewClientCache(cfg Config) *ClientCache {
	return &ClientCache{
		cfg: cfg,
		build: func(c Config) (Client, error) {
			return NewOpenAIClient(c)
		},
	}
}

// Get returns the cached client for apiKey. An empty apiKey falls back to the
// key the cache was configured with.
func (c *ClientCache) Get(apiKey string) (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if apiKey == "" {
		apiKey = c.cfg.APIKey
	}
	if c.client != nil && apiKey == c.key {
		return c.client, nil
	}

	cfg := c.cfg
	cfg.APIKey = apiKey
	client, err := c.build(cfg)
	if err != nil {
		return nil, err
	}
	c.client = client
	c.key = apiKey
	return client, nil
}

// Invalidate drops the cached client so the next Get builds a new one.
func (c *ClientCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = nil
	c.key = ""
}
