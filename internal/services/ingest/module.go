// Package ingest assembles the worker pool, its queue adapter, and the
// events module ports it drains into
package ingest

import (
	"time"

	"eventsink/internal/adapters/queue/redisq"
	"eventsink/internal/modkit"
	"eventsink/internal/platform/config"
	eventsdom "eventsink/internal/services/events/domain"
	"eventsink/internal/services/ingest/domain"
	"eventsink/internal/services/ingest/service"
)

// Options is everything the module reads from configuration
type Options struct {
	Workers     int
	QueueName   string
	PullTimeout time.Duration
}

// OptionsFromConfig reads CORE_INGEST_* settings
func OptionsFromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_INGEST_")
	return Options{
		Workers:     c.MayInt("WORKERS", 4),
		QueueName:   c.MayString("QUEUE", "eventsink"),
		PullTimeout: c.MayDuration("PULL_TIMEOUT", 5*time.Second),
	}
}

// Module owns the pool lifecycle
type Module struct {
	name  string
	ports domain.RunnerPort
}

// New wires the Redis queue adapter and the pool against the events
// module ports
func New(deps modkit.Deps, ev eventsdom.Ports, opt Options, opts ...modkit.Option) (*Module, error) {
	queue := redisq.New(deps.RD, redisq.Options{
		Queue:       opt.QueueName,
		PullTimeout: opt.PullTimeout,
	})

	svc, err := service.New(deps, domain.Ports{
		Queue:      queue,
		Decoder:    ev.Decoder,
		Classifier: ev.Classifier,
		Writer:     ev.Writer,
	}, service.Config{
		Workers:   opt.Workers,
		QueueName: opt.QueueName,
	})
	if err != nil {
		return nil, err
	}

	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("ingest"),
		modkit.WithPorts[domain.RunnerPort](svc),
	}, opts...)...)

	return &Module{name: b.Name, ports: svc}, nil
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Runner returns the pool entry point
func (m *Module) Runner() domain.RunnerPort { return m.ports }
