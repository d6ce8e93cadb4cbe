package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Deny(ctx context.Context, tokenID string, ttl time.Duration) error
	Denied(ctx context.Context, tokenID string) (bool, error)
}

const keyRevokedToken = "todorbac:revoked:"

type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist connects to url (redis://host:port/db) and pings it.
func NewRedisDenylist(ctx context.Context, url string) (*RedisDenylist, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisDenylist{client: client}, nil
}

func (d *RedisDenylist) Deny(ctx context.Context, tokenID string, ttl time.Duration) error {
	return d.client.Set(ctx, keyRevokedToken+tokenID, 1, ttl).Err()
}

func (d *RedisDenylist) Denied(ctx context.Context, tokenID string) (bool, error) {
	err := d.client.Get(ctx, keyRevokedToken+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *RedisDenylist) Close() error {
	return d.client.Close()
}
