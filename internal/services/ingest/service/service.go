// Package service runs the fixed worker pool draining the upload queue
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"eventsink/internal/modkit"
	"eventsink/internal/platform/logger"
	"eventsink/internal/services/ingest/domain"
)

// Config sizes the pool. Workers is fixed for the life of the process.
type Config struct {
	Workers   int    `validate:"gte=1,lte=256"`
	QueueName string `validate:"required"`
}

var validate = validator.New()

// Svc is the worker pool. It implements domain.RunnerPort.
type Svc struct {
	log   logger.Logger
	cfg   Config
	ports domain.Ports
}

// New validates the config and builds the pool
func New(deps modkit.Deps, ports domain.Ports, cfg Config) (*Svc, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("ingest config: %w", err)
	}
	return &Svc{
		log:   deps.Log.With().Str("component", "ingest").Logger(),
		cfg:   cfg,
		ports: ports,
	}, nil
}

// Run starts the workers and blocks until ctx is cancelled and every
// worker has finished its in-flight record. Workers never stop
// mid-record: cancellation is observed between pulls only.
func (s *Svc) Run(ctx context.Context) error {
	s.log.Info().
		Int("workers", s.cfg.Workers).
		Str("queue", s.cfg.QueueName).
		Msg("worker pool starting")

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.worker(ctx, fmt.Sprintf("worker-%d", n))
		}(i)
	}
	wg.Wait()
	s.log.Info().Msg("worker pool drained")
	return nil
}

func (s *Svc) worker(ctx context.Context, name string) {
	wctx := logger.WithIngest(ctx, name, s.cfg.QueueName)
	log := logger.C(wctx)

	for {
		rec, err := s.ports.Queue.Pull(wctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("queue pull failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		s.process(wctx, rec)
	}
}

// process runs one record end to end. Per-event problems were absorbed
// during classification; only an undecodable record or a failed commit
// reaches the dead-letter list.
func (s *Svc) process(ctx context.Context, rec domain.Record) {
	log := logger.C(ctx)

	b, err := s.ports.Decoder.Decode(rec.Data)
	if err != nil {
		log.Error().Err(err).
			Int("bytes", len(rec.Data)).
			Msg("undecodable record, moving to dead letters")
		s.reject(ctx, rec)
		return
	}

	evs := s.ports.Classifier.ClassifyAll(ctx, &b)

	stored, err := s.ports.Writer.CommitBatch(ctx, &b, evs)
	if err != nil {
		log.Error().Err(err).
			Str("sha512", b.Request.SHA512).
			Msg("commit failed, moving to dead letters")
		s.reject(ctx, rec)
		return
	}
	if !stored {
		log.Debug().Str("sha512", b.Request.SHA512).Msg("duplicate request dropped")
	} else {
		log.Debug().
			Str("sha512", b.Request.SHA512).
			Int("events", len(evs)).
			Msg("request committed")
	}
	if err := s.ports.Queue.Ack(ctx, rec); err != nil {
		log.Error().Err(err).Msg("ack failed")
	}
}

func (s *Svc) reject(ctx context.Context, rec domain.Record) {
	if err := s.ports.Queue.Reject(ctx, rec); err != nil {
		logger.C(ctx).Error().Err(err).Msg("reject failed, record may be stuck in processing list")
	}
}
