package store

import (
	"context"
	"errors"
	"time"

	"eventsink/internal/platform/store/rd"

	"github.com/redis/go-redis/v9"
)

// rdAdapter wraps rd.RD and implements the Redis seam
type rdAdapter struct {
	r *rd.RD
}

func newRDAdapter(r *rd.RD) *rdAdapter { return &rdAdapter{r: r} }

// BRPopLPush atomically moves the tail of source to the head of dest,
// blocking up to timeout. Returns ErrEmpty when nothing arrived in time.
func (a *rdAdapter) BRPopLPush(ctx context.Context, source, dest string, timeout time.Duration) ([]byte, error) {
	v, err := a.r.Client.BRPopLPush(ctx, source, dest, timeout).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	return v, nil
}

func (a *rdAdapter) LPush(ctx context.Context, key string, value []byte) error {
	return a.r.Client.LPush(ctx, key, value).Err()
}

func (a *rdAdapter) LRem(ctx context.Context, key string, count int64, value []byte) error {
	return a.r.Client.LRem(ctx, key, count, value).Err()
}

func (a *rdAdapter) Ping(ctx context.Context) error {
	if a == nil || a.r == nil {
		return errors.New("rd: nil adapter")
	}
	return a.r.Client.Ping(ctx).Err()
}

func (a *rdAdapter) Close() error { return a.r.Close() }
