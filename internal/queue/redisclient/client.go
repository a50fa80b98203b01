package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps a Redis connection with the two list operations the
// notification pipeline needs.
type Client struct {
	rdb *redis.Client
}

func New(cfg Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  0, // BRPOP manages its own deadline
		WriteTimeout: 2 * time.Second,
	})

	return &Client{rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Push enqueues a payload at the head of the list.
func (c *Client) Push(ctx context.Context, key, payload string) error {
	return c.rdb.LPush(ctx, key, payload).Err()
}

// Pop blocks up to timeout for the next payload from the tail of the
// list. An empty string with a nil error means the wait timed out.
func (c *Client) Pop(ctx context.Context, key string, timeout time.Duration) (string, error) {
	res, err := c.rdb.BRPop(ctx, timeout, key).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}

		return "", err
	}

	// BRPOP answers [key, value].
	if len(res) != 2 {
		return "", nil
	}

	return res[1], nil
}
