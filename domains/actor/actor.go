// Package actor lists, inspects, spawns and deletes actors in the editor or
// play world, and reports the components attached to them.
package actor

import (
	"context"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const Domain = "actor"

type Module struct {
	host *host.Host
}

func New(h *host.Host) *Module {
	return &Module{host: h}
}

func (m *Module) Domain() string { return Domain }

func (m *Module) Descriptors() []registry.Descriptor {
	h := m.host
	actorPath := kit.Required("actor_path", registry.TypeString, "Actor label or path")

	spawnParams := []registry.Param{
		kit.Required("class", registry.TypeString, "Actor class or Blueprint path"),
		kit.Optional("actor_name", registry.TypeString, "Actor label"),
	}
	spawnParams = append(spawnParams, kit.TransformParams()...)
	spawnParams = append(spawnParams, kit.World)

	return []registry.Descriptor{
		{
			Name:        "actor.list",
			Description: "List actors in a world",
			Params: []registry.Param{
				kit.Optional("class_filter", registry.TypeString, "Only actors of this class"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.list),
		},
		{
			Name:        "actor.get",
			Description: "Describe an actor and its components",
			Params:      []registry.Param{actorPath, kit.World},
			Handler:     kit.OnHost(h, m.get),
		},
		{
			Name:        "actor.components",
			Description: "List an actor's scene and non-scene components",
			Params: []registry.Param{
				actorPath,
				kit.Optional("include_transforms", registry.TypeBoolean, "Include the root component's relative transform"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.components),
		},
		{
			Name:        "actor.spawn",
			Description: "Spawn an actor",
			Params:      spawnParams,
			Handler:     kit.OnHost(h, m.spawn),
		},
		{
			Name:        "actor.delete",
			Description: "Delete an actor",
			Params:      []registry.Param{actorPath, kit.World},
			Handler:     kit.OnHost(h, m.delete),
		},
	}
}

func (m *Module) list(ctx context.Context, args registry.Args) (any, error) {
	w, err := kit.ResolveWorld(m.host, args)
	if err != nil {
		return nil, err
	}
	actors := w.List(args.String("class_filter"))
	infos := make([]host.ActorInfo, 0, len(actors))
	for _, a := range actors {
		infos = append(infos, a.Info())
	}
	return map[string]any{"world": w.Kind, "actors": infos, "count": len(infos)}, nil
}

func (m *Module) get(ctx context.Context, args registry.Args) (any, error) {
	w, a, err := kit.ResolveActor(m.host, args)
	if err != nil {
		return nil, err
	}
	return map[string]any{"world": w.Kind, "actor": a.Info()}, nil
}

func (m *Module) spawn(ctx context.Context, args registry.Args) (any, error) {
	w, err := kit.ResolveWorld(m.host, args)
	if err != nil {
		return nil, err
	}
	class := args.String("class")
	// Blueprint classes must exist in the project; native classes are taken
	// as given.
	if len(class) > 0 && class[0] == '/' {
		bp, err := m.host.Project.GetClass(class, host.ClassBlueprint)
		if err != nil {
			return nil, err
		}
		class = bp.Path
	}

	a, err := w.Spawn(class, args.String("actor_name"), kit.Transform(args, host.IdentityTransform()))
	if err != nil {
		return nil, &registry.ArgumentError{Field: "actor_name", Reason: err.Error()}
	}
	m.host.Log.Add(host.CategoryWorld, host.VerbosityLog, "Spawned %s (%s) in %s world", a.Label, a.Class, w.Kind)
	return map[string]any{"world": w.Kind, "actor": a.Info()}, nil
}

func (m *Module) delete(ctx context.Context, args registry.Args) (any, error) {
	w, err := kit.ResolveWorld(m.host, args)
	if err != nil {
		return nil, err
	}
	a, err := w.Remove(args.String("actor_path"))
	if err != nil {
		return nil, err
	}
	m.host.Log.Add(host.CategoryWorld, host.VerbosityLog, "Destroyed %s in %s world", a.Label, w.Kind)
	return map[string]any{"world": w.Kind, "deleted": a.Path}, nil
}
