// Package rd provides a Redis client used as the ingest queue transport
package rd

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures redis connectivity
type Config struct {
	Addr     string
	Password string
	DB       int
}

// RD is a redis client wrapper
type RD struct {
	Client *redis.Client
}

// Open creates a redis client and verifies connectivity once
func Open(ctx context.Context, cfg Config) (*RD, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	toCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(toCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &RD{Client: c}, nil
}

// Close closes the client
func (r *RD) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
