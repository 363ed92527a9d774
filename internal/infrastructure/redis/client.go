package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ErrMiss is returned when a cache key is absent.
var ErrMiss = errors.New("cache: miss")

// Op names used in Error.
const (
	OpGet    = "GET"
	OpSet    = "SET"
	OpHGet   = "HGET"
	OpHSet   = "HSET"
	OpExpire = "EXPIRE"
	OpDel    = "DEL"
)

// Error wraps a failed Redis command with its name.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Client is a thin byte-oriented wrapper around rueidis.
type Client struct {
	client rueidis.Client
}

// NewClient connects to Redis.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis addrs is required")
	}
	c, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	return &Client{client: c}, nil
}

func newClient(c rueidis.Client) *Client {
	return &Client{client: c}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (c *Client) Close() {
	c.client.Close()
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, &Error{Op: OpGet, Err: err}
	}
	return data, nil
}

func (c *Client) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := c.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return &Error{Op: OpSet, Err: err}
	}
	return nil
}

func (c *Client) HGet(ctx context.Context, key, field string) ([]byte, error) {
	data, err := c.client.Do(ctx, c.client.B().Hget().Key(key).Field(field).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, &Error{Op: OpHGet, Err: err}
	}
	return data, nil
}

// HSetWithTTL writes one hash field and (re)sets the expiry of the whole hash.
func (c *Client) HSetWithTTL(ctx context.Context, key, field string, value []byte, ttl time.Duration) error {
	cmd := c.client.B().Hset().Key(key).FieldValue().FieldValue(field, rueidis.BinaryString(value)).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return &Error{Op: OpHSet, Err: err}
	}
	expire := c.client.B().Expire().Key(key).Seconds(int64(ttl.Seconds())).Build()
	if err := c.client.Do(ctx, expire).Error(); err != nil {
		return &Error{Op: OpExpire, Err: err}
	}
	return nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Do(ctx, c.client.B().Del().Key(keys...).Build()).Error(); err != nil {
		return &Error{Op: OpDel, Err: err}
	}
	return nil
}
