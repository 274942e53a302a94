// Package mesh builds procedural mesh sections on actors.
package mesh

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const (
	Domain     = "mesh"
	actorClass = "ProceduralMeshActor"
)

type Module struct {
	host *host.Host
}

func New(h *host.Host) *Module {
	return &Module{host: h}
}

func (m *Module) Domain() string { return Domain }

func (m *Module) Descriptors() []registry.Descriptor {
	h := m.host
	section := kit.Optional("section_index", registry.TypeInteger, "Section index; omitted means all sections (or the next free one on create)")

	return []registry.Descriptor{
		{
			Name:        "mesh.create_section",
			Description: "Create or replace a mesh section, spawning a procedural mesh actor when actor_path is omitted",
			Params: []registry.Param{
				kit.Required("vertices", registry.TypeArray, "Vertex positions, each [x, y, z]"),
				kit.Required("triangles", registry.TypeArray, "Vertex indices, three per triangle"),
				section,
				kit.Optional("actor_path", registry.TypeString, "Existing actor to add the section to"),
				kit.Optional("actor_name", registry.TypeString, "Label of the actor to spawn"),
				kit.Optional("location", registry.TypeVector, "Location of the spawned actor"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.createSection),
		},
		{
			Name:        "mesh.clear",
			Description: "Clear one section or all sections",
			Params: []registry.Param{
				kit.Required("actor_path", registry.TypeString, "Actor label or path"),
				section,
				kit.World,
			},
			Handler: kit.OnHost(h, m.clear),
		},
		{
			Name:        "mesh.set_material",
			Description: "Assign a material to one section or all sections",
			Params: []registry.Param{
				kit.Required("actor_path", registry.TypeString, "Actor label or path"),
				kit.Required("material_path", registry.TypeString, "Material or material instance path"),
				section,
				kit.World,
			},
			Handler: kit.OnHost(h, m.setMaterial),
		},
	}
}

func summary(actor *host.Actor) map[string]any {
	sections, vertices, triangles := actor.Mesh.Stats()
	return map[string]any{
		"actor_path":     actor.Path,
		"section_count":  sections,
		"vertex_count":   vertices,
		"triangle_count": triangles,
	}
}

func (m *Module) createSection(ctx context.Context, args registry.Args) (any, error) {
	vertices, err := args.Vectors("vertices")
	if err != nil {
		return nil, err
	}
	triangles, err := args.Ints("triangles")
	if err != nil {
		return nil, err
	}
	verts := make([]host.Vector, len(vertices))
	for i, v := range vertices {
		verts[i] = v
	}
	if err := host.ValidateMesh(verts, triangles); err != nil {
		return nil, &registry.ArgumentError{Field: "triangles", Reason: err.Error()}
	}

	w, err := kit.ResolveWorld(m.host, args)
	if err != nil {
		return nil, err
	}

	var actor *host.Actor
	spawned := false
	if args.Has("actor_path") {
		if actor, err = w.Find(args.String("actor_path")); err != nil {
			return nil, err
		}
	} else {
		tf := kit.Transform(args, host.IdentityTransform())
		if actor, err = w.Spawn(actorClass, args.String("actor_name"), tf); err != nil {
			return nil, &registry.ArgumentError{Field: "actor_name", Reason: err.Error()}
		}
		spawned = true
	}
	if actor.Mesh == nil {
		actor.Mesh = host.NewProcMesh()
	}

	s, err := actor.Mesh.CreateSection(args.Int("section_index", -1), verts, triangles)
	if err != nil {
		return nil, err
	}

	out := summary(actor)
	out["section_index"] = s.Index
	out["spawned"] = spawned
	return out, nil
}

func (m *Module) component(args registry.Args) (*host.Actor, error) {
	_, actor, err := kit.ResolveActor(m.host, args)
	if err != nil {
		return nil, err
	}
	if actor.Mesh == nil {
		return nil, fmt.Errorf("%w: %s has no procedural mesh component", host.ErrNoComponent, actor.Label)
	}
	return actor, nil
}

func (m *Module) clear(ctx context.Context, args registry.Args) (any, error) {
	actor, err := m.component(args)
	if err != nil {
		return nil, err
	}
	n, err := actor.Mesh.Clear(args.Int("section_index", -1))
	if err != nil {
		return nil, err
	}
	out := summary(actor)
	out["cleared"] = n
	return out, nil
}

func (m *Module) setMaterial(ctx context.Context, args registry.Args) (any, error) {
	actor, err := m.component(args)
	if err != nil {
		return nil, err
	}
	mat, err := m.host.Project.GetClass(args.String("material_path"), host.ClassMaterial, host.ClassMaterialInstance)
	if err != nil {
		return nil, err
	}
	touched, err := actor.Mesh.SetMaterial(args.Int("section_index", -1), mat.Path)
	if err != nil {
		return nil, err
	}
	out := summary(actor)
	out["material_path"] = mat.Path
	out["sections"] = touched
	return out, nil
}
