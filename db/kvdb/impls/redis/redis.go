package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/db/kvdb"

	lowimpl "github.com/redis/go-redis/v9"
)

type Client struct {
	Conf   *kvdb.Conf
	Logger *zap.Logger

	internal *lowimpl.Client
}

var _ kvdb.Client = (*Client)(nil)

// Init connects and pings
func (c *Client) Init(ctx context.Context) error {
	c.internal = lowimpl.NewClient(&lowimpl.Options{
		Addr:     c.Conf.Addr(),
		Password: c.Conf.PW,
		DB:       c.Conf.DB,
	})
	if err := c.internal.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	c.Logger.Info("redis client initialized",
		zap.String("addr", c.Conf.Addr()), zap.Int("db", c.Conf.DB), zap.String("key_prefix", c.Conf.KeyPrefix))
	return nil
}

func (c *Client) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}

func (c *Client) GetConf() *kvdb.Conf {
	return c.Conf
}

func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	return c.internal.Del(ctx, keys...).Result()
}

// Expire reports false when the key does not exist
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return c.internal.Expire(ctx, key, expiration).Result()
}

func (c *Client) ScanKeys(ctx context.Context, cursor any, match string, scanBatchSize int) ([]string, any, error) {
	var cur uint64
	if cursor != nil {
		cur = cursor.(uint64)
	}
	if match == "" {
		match = "*"
	}
	keys, next, err := c.internal.Scan(ctx, cur, match, int64(scanBatchSize)).Result()
	if err != nil {
		return nil, nil, err
	}
	if next == 0 {
		return keys, nil, nil
	}
	return keys, next, nil
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.internal.Incr(ctx, key).Result()
}

// SetFields writes a record hash in one HSET
func (c *Client) SetFields(ctx context.Context, key string, fields map[string]any) error {
	return c.internal.HSet(ctx, key, fields).Err()
}

func (c *Client) GetField(ctx context.Context, key string, field string) (string, bool, error) {
	val, err := c.internal.HGet(ctx, key, field).Result()
	if errors.Is(err, lowimpl.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
