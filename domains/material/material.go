// Package material creates materials and material instances and edits
// their parameters.
package material

import (
	"context"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const Domain = "material"

type Module struct {
	host *host.Host
}

func New(h *host.Host) *Module {
	return &Module{host: h}
}

func (m *Module) Domain() string { return Domain }

func (m *Module) Descriptors() []registry.Descriptor {
	h := m.host
	return []registry.Descriptor{
		{
			Name:        "material.create",
			Description: "Create a base material",
			Params:      []registry.Param{kit.Required("material_path", registry.TypeString, "Material path")},
			Handler:     kit.OnHost(h, m.create),
		},
		{
			Name:        "material.create_instance",
			Description: "Create a material instance of a parent material",
			Params: []registry.Param{
				kit.Required("instance_path", registry.TypeString, "Instance path"),
				kit.Required("parent_path", registry.TypeString, "Parent material or instance"),
			},
			Handler: kit.OnHost(h, m.createInstance),
		},
		{
			Name:        "material.get_parameters",
			Description: "List parameters with inherited values and overrides",
			Params:      []registry.Param{kit.Required("material_path", registry.TypeString, "Material or instance path")},
			Handler:     kit.OnHost(h, m.parameters),
		},
		{
			Name:        "material.set_parameter",
			Description: "Set a scalar, vector or switch parameter",
			Params: []registry.Param{
				kit.Required("material_path", registry.TypeString, "Material or instance path"),
				kit.Required("parameter_name", registry.TypeString, "Parameter name"),
				kit.Required("value", registry.TypeAny, "Number, bool or vector"),
			},
			Handler: kit.OnHost(h, m.setParameter),
		},
	}
}

func (m *Module) material(path string) (*host.Asset, error) {
	return m.host.Project.GetClass(path, host.ClassMaterial, host.ClassMaterialInstance)
}

func (m *Module) describe(a *host.Asset) (any, error) {
	params, err := m.host.Project.ResolveParameters(a)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"material_path": a.Path,
		"class":         a.Class,
		"parameters":    params,
	}
	if a.Material.IsInstance() {
		out["parent"] = a.Material.Parent
	}
	return out, nil
}

func (m *Module) create(ctx context.Context, args registry.Args) (any, error) {
	path, err := kit.AssetPath(args, "material_path")
	if err != nil {
		return nil, err
	}
	a := &host.Asset{Path: path, Class: host.ClassMaterial}
	if err := m.host.Project.Add(a); err != nil {
		return nil, err
	}
	return m.describe(a)
}

func (m *Module) createInstance(ctx context.Context, args registry.Args) (any, error) {
	path, err := kit.AssetPath(args, "instance_path")
	if err != nil {
		return nil, err
	}
	parent, err := m.material(args.String("parent_path"))
	if err != nil {
		return nil, err
	}
	a := &host.Asset{
		Path:         path,
		Class:        host.ClassMaterialInstance,
		Dependencies: []string{parent.Path},
		Properties:   map[string]any{"parent": parent.Path},
	}
	if err := m.host.Project.Add(a); err != nil {
		return nil, err
	}
	return m.describe(a)
}

func (m *Module) parameters(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.material(args.String("material_path"))
	if err != nil {
		return nil, err
	}
	return m.describe(a)
}

func (m *Module) setParameter(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.material(args.String("material_path"))
	if err != nil {
		return nil, err
	}
	if err := m.host.Project.SetMaterialParameter(a, args.String("parameter_name"), args["value"]); err != nil {
		return nil, err
	}
	return m.describe(a)
}
