// Package catalog declares the event schemas this deployment understands.
// Everything not listed here lands in the unknown tables with its payload
// kept verbatim, so adding a schema later is enough to make sense of old
// traffic.
package catalog

import (
	"github.com/google/uuid"

	"eventsink/internal/core/variant"
	"eventsink/internal/services/events/domain"
	"eventsink/internal/services/events/schema"
)

// NewRegistry builds and freezes the full production registry
func NewRegistry() *schema.Registry {
	r := schema.NewRegistry()
	RegisterAll(r)
	r.Freeze()
	return r
}

// RegisterAll adds every catalog schema to an unfrozen registry
func RegisterAll(r *schema.Registry) {
	for _, e := range singulars {
		r.MustRegister(domain.CategorySingular, uuid.MustParse(e.id), e.schema)
	}
	for _, e := range aggregates {
		r.MustRegister(domain.CategoryAggregate, uuid.MustParse(e.id), e.schema)
	}
	for _, e := range sequences {
		r.MustRegister(domain.CategorySequence, uuid.MustParse(e.id), e.schema)
	}
}

type entry struct {
	id     string
	schema schema.Schema
}

var singulars = []entry{
	{
		id: "9af2cc74-d6dd-423f-ac44-600a6eee2d96",
		schema: schema.Schema{
			Name:        "uptime",
			PayloadType: "(xx)",
			Extract: func(p variant.Value) (domain.FieldSet, error) {
				up, err := int64At(p, 0)
				if err != nil {
					return nil, err
				}
				boots, err := int64At(p, 1)
				if err != nil {
					return nil, err
				}
				return domain.FieldSet{
					"accumulated_uptime": up,
					"number_of_boots":    boots,
				}, nil
			},
		},
	},
	{
		id: "d84b9a19-9353-73eb-70bf-f91a584abcbd",
		schema: schema.Schema{
			Name:        "live-usb-booted",
			PayloadType: "",
		},
	},
	{
		id: "00d7bc1e-ec93-4c53-ae78-a6b40450be4a",
		schema: schema.Schema{
			Name:        "launched-equivalent-existing-flatpak",
			PayloadType: "(sas)",
			Extract: func(p variant.Value) (domain.FieldSet, error) {
				app, err := stringAt(p, 0)
				if err != nil {
					return nil, err
				}
				argvNode, err := p.Child(1)
				if err != nil {
					return nil, err
				}
				argv, err := argvNode.Strings()
				if err != nil {
					return nil, err
				}
				return domain.FieldSet{
					"replacement_app_id": app,
					"argv":               argv,
				}, nil
			},
		},
	},
	{
		id: "0bba3340-52e3-41a2-854f-e6ed36621379",
		schema: schema.Schema{
			Name:        "linux-package-opened",
			PayloadType: "as",
			Extract:     argvFields,
		},
	},
	{
		id: "cf09194a-3090-4782-ab03-87b2f1515aed",
		schema: schema.Schema{
			Name:        "windows-app-opened",
			PayloadType: "as",
			Extract:     argvFields,
		},
	},
	{
		id: "38eb48f8-e131-9b57-77c6-35e0590c82fd",
		schema: schema.Schema{
			Name:        "network-id",
			PayloadType: "u",
			Extract: func(p variant.Value) (domain.FieldSet, error) {
				id, err := p.AsUint32()
				if err != nil {
					return nil, err
				}
				return domain.FieldSet{"network_id": int64(id)}, nil
			},
		},
	},
}

var aggregates = []entry{
	{
		id: "9c33a734-7ed8-4348-9e39-3c27f4dc2e62",
		schema: schema.Schema{
			Name:        "daily-app-usage",
			PayloadType: "s",
			Extract: func(p variant.Value) (domain.FieldSet, error) {
				app, err := p.AsString()
				if err != nil {
					return nil, err
				}
				return domain.FieldSet{"app_id": app}, nil
			},
		},
	},
}

var sequences = []entry{
	{
		id: "b5e11a3d-13f8-4219-84fd-c9ba0bf3d1f0",
		schema: schema.Schema{
			Name:        "shell-app-is-open",
			PayloadType: "s",
			Extract: func(p variant.Value) (domain.FieldSet, error) {
				app, err := p.AsString()
				if err != nil {
					return nil, err
				}
				return domain.FieldSet{"app_id": app}, nil
			},
		},
	},
	{
		id: "7587784b-c8ea-4ade-95ae-7e6b20dfc9cf",
		schema: schema.Schema{
			Name:        "user-is-logged-in",
			PayloadType: "",
		},
	},
}

func argvFields(p variant.Value) (domain.FieldSet, error) {
	argv, err := p.Strings()
	if err != nil {
		return nil, err
	}
	return domain.FieldSet{"argv": argv}, nil
}

func int64At(p variant.Value, i int) (int64, error) {
	c, err := p.Child(i)
	if err != nil {
		return 0, err
	}
	return c.AsInt64()
}

func stringAt(p variant.Value, i int) (string, error) {
	c, err := p.Child(i)
	if err != nil {
		return "", err
	}
	return c.AsString()
}
