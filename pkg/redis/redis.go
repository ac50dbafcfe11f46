package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ConnectionInfo holds Redis connection parameters.
type ConnectionInfo struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

type Client = goredis.Client

// NewConnection creates a client and verifies it with a PING.
func NewConnection(ctx context.Context, info ConnectionInfo) (*Client, error) {
	if info.Timeout <= 0 {
		info.Timeout = 3 * time.Second
	}
	opts := &goredis.Options{
		Addr:         info.Addr,
		Password:     info.Password,
		DB:           info.DB,
		MaxRetries:   info.MaxRetries,
		DialTimeout:  info.DialTimeout,
		ReadTimeout:  info.Timeout,
		WriteTimeout: info.Timeout,
	}

	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, info.Timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", info.Addr, err)
	}

	return rdb, nil
}

// Close closes c, tolerating nil.
func Close(c *Client) {
	if c == nil {
		return
	}
	_ = c.Close()
}
