package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/config"
)

// ErrCacheMiss is returned when a key is not cached
var ErrCacheMiss = errors.New("key not found in cache")

// Update is broadcast to a session's clients after every write
type Update struct {
	SessionKey string    `json:"session_key"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Action     string    `json:"action"`
	At         time.Time `json:"at"`
}

// RedisCache provides caching and update fan-out using Redis
type RedisCache struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
	prefix  string
	channel string
}

// NewRedisCache creates a new Redis cache. A disabled cache accepts every
// call and stores nothing.
func NewRedisCache(cfg config.RedisConfig, updates config.UpdatesConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		enabled: true,
		ttl:     cfg.TTL,
		prefix:  cfg.Prefix,
		channel: updates.Channel,
	}, nil
}

// Enabled reports whether values are actually cached and updates published
func (c *RedisCache) Enabled() bool {
	return c.enabled
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return ErrCacheMiss
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return errors.Wrap(err, "failed to get value from Redis")
	}

	if err := json.Unmarshal(data, value); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}

	return nil
}

// Set stores a value in cache with the configured expiration
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}

	return nil
}

// Delete removes cached keys
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete value from Redis")
	}
	return nil
}

// Publish broadcasts an update on the updates channel
func (c *RedisCache) Publish(ctx context.Context, update Update) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(update)
	if err != nil {
		return errors.Wrap(err, "failed to marshal update")
	}
	if err := c.client.Publish(ctx, c.channel, data).Err(); err != nil {
		return errors.Wrap(err, "failed to publish update")
	}
	return nil
}

// Subscribe streams the updates of one session until ctx is done
func (c *RedisCache) Subscribe(ctx context.Context, sessionKey string) (<-chan Update, error) {
	if !c.enabled {
		return nil, errors.New("cache is disabled")
	}

	pubsub := c.client.Subscribe(ctx, c.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "failed to subscribe to updates")
	}

	out := make(chan Update)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var update Update
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					log.Warn().Err(err).Msg("Discarding malformed update")
					continue
				}
				if update.SessionKey != sessionKey {
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}

	return c.client.Close()
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// SessionCartsKey generates a cache key for a session's cart list
func SessionCartsKey(sessionKey string) string {
	return fmt.Sprintf("carts:%s", sessionKey)
}

// NotebookKey generates a cache key for a session's notebook
func NotebookKey(sessionKey string) string {
	return fmt.Sprintf("notebook:%s", sessionKey)
}
