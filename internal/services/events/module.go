// Package events assembles the classification service into a module
package events

import (
	"eventsink/internal/modkit"
	"eventsink/internal/services/events/domain"
	"eventsink/internal/services/events/schema"
	"eventsink/internal/services/events/service"
)

// Module exposes envelope decoding, classification and batch persistence
type Module struct {
	name  string
	ports domain.Ports
}

// New builds the module around a frozen registry
func New(deps modkit.Deps, reg *schema.Registry, opts ...modkit.Option) *Module {
	svc := service.New(deps, reg)

	ports := domain.Ports{
		Decoder:    service.NewDecoder(),
		Classifier: svc,
		Writer:     svc,
	}
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("events"),
		modkit.WithPorts(ports),
	}, opts...)...)

	return &Module{name: b.Name, ports: ports}
}

// Name implements modkit.Module
func (m *Module) Name() string { return m.name }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
