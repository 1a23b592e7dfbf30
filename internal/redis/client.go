package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"tailor_tracker/internal/lifecycle"
)

var (
	KeyItemStatus = "order_item:status:%s"

	DefaultStatusTTL = 10 * time.Minute
)

type Client struct {
	rdb       *redis.Client
	statusTTL time.Duration
	owner     string
}

func Initialize(redisURL string, statusTTL time.Duration) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewClient(rdb, statusTTL), nil
}

// NewClient wraps an existing connection.
func NewClient(rdb *redis.Client, statusTTL time.Duration) *Client {
	if statusTTL <= 0 {
		statusTTL = DefaultStatusTTL
	}
	return &Client{rdb: rdb, statusTTL: statusTTL, owner: uuid.NewString()}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) SetItemStatus(ctx context.Context, id uuid.UUID, status lifecycle.Status) error {
	return c.rdb.Set(ctx, fmt.Sprintf(KeyItemStatus, id), string(status), c.statusTTL).Err()
}

func (c *Client) GetItemStatus(ctx context.Context, id uuid.UUID) (lifecycle.Status, bool, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf(KeyItemStatus, id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get item status: %w", err)
	}
	return lifecycle.Normalize(val), true, nil
}

// AcquireLock takes key for ttl unless another holder has it.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, c.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Deletes the key only while this client still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *Client) ReleaseLock(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, c.rdb, []string{key}, c.owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
