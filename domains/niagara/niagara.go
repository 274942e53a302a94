// Package niagara spawns and controls particle systems and edits Niagara
// system assets.
package niagara

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const (
	Domain     = "niagara"
	actorClass = "NiagaraActor"
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
	systemPath := kit.Required("system_path", registry.TypeString, "NiagaraSystem asset path")
	actorPath := kit.Required("actor_path", registry.TypeString, "Actor label or path")

	spawnParams := []registry.Param{systemPath}
	spawnParams = append(spawnParams, kit.TransformParams()...)
	spawnParams = append(spawnParams,
		kit.Optional("auto_activate", registry.TypeBoolean, "Activate on spawn, default true"),
		kit.Optional("actor_name", registry.TypeString, "Actor label"),
		kit.World,
	)

	return []registry.Descriptor{
		{
			Name:        "niagara.spawn_system",
			Description: "Spawn a Niagara system actor",
			Params:      spawnParams,
			Handler:     kit.OnHost(h, m.spawn),
		},
		{
			Name:        "niagara.set_parameter",
			Description: "Override a user parameter on a spawned system",
			Params: []registry.Param{
				actorPath,
				kit.Required("parameter_name", registry.TypeString, "User parameter name"),
				kit.Required("value", registry.TypeAny, "Number, bool or vector"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.setParameter),
		},
		{
			Name:        "niagara.get_system_info",
			Description: "Show a system's emitters and user parameters",
			Params:      []registry.Param{systemPath},
			Handler:     kit.OnHost(h, m.systemInfo),
		},
		{
			Name:        "niagara.add_emitter",
			Description: "Add an emitter to a system",
			Params: []registry.Param{
				systemPath,
				kit.Required("emitter_name", registry.TypeString, "Emitter name"),
			},
			Handler: kit.OnHost(h, m.addEmitter),
		},
		{
			Name:        "niagara.remove_emitter",
			Description: "Remove an emitter from a system",
			Params: []registry.Param{
				systemPath,
				kit.Required("emitter_name", registry.TypeString, "Emitter name"),
			},
			Handler: kit.OnHost(h, m.removeEmitter),
		},
		{
			Name:        "niagara.activate",
			Description: "Activate a spawned system",
			Params: []registry.Param{
				actorPath,
				kit.Optional("reset", registry.TypeBoolean, "Restart if already active"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.activate),
		},
		{
			Name:        "niagara.deactivate",
			Description: "Deactivate a spawned system",
			Params:      []registry.Param{actorPath, kit.World},
			Handler:     kit.OnHost(h, m.deactivate),
		},
	}
}

func (m *Module) system(path string) (*host.Asset, error) {
	return m.host.Project.GetClass(path, host.ClassNiagaraSystem)
}

func (m *Module) component(args registry.Args) (*host.Actor, *host.Asset, error) {
	_, actor, err := kit.ResolveActor(m.host, args)
	if err != nil {
		return nil, nil, err
	}
	if actor.Niagara == nil {
		return nil, nil, fmt.Errorf("%w: %s has no Niagara component", host.ErrNoComponent, actor.Label)
	}
	sys, err := m.system(actor.Niagara.System)
	if err != nil {
		return nil, nil, err
	}
	return actor, sys, nil
}

func state(actor *host.Actor) map[string]any {
	overrides := make(map[string]any, len(actor.Niagara.Overrides))
	for k, v := range actor.Niagara.Overrides {
		overrides[k] = v
	}
	return map[string]any{
		"actor_path":  actor.Path,
		"system":      actor.Niagara.System,
		"active":      actor.Niagara.Active,
		"activations": actor.Niagara.Activations,
		"overrides":   overrides,
	}
}

func (m *Module) spawn(ctx context.Context, args registry.Args) (any, error) {
	sys, err := m.system(args.String("system_path"))
	if err != nil {
		return nil, err
	}
	w, err := kit.ResolveWorld(m.host, args)
	if err != nil {
		return nil, err
	}
	actor, err := w.Spawn(actorClass, args.String("actor_name"), kit.Transform(args, host.IdentityTransform()))
	if err != nil {
		return nil, &registry.ArgumentError{Field: "actor_name", Reason: err.Error()}
	}
	actor.Niagara = &host.NiagaraComponent{System: sys.Path}
	if args.Bool("auto_activate", true) {
		actor.Niagara.Activate(false)
	}
	m.host.Log.Add(host.CategoryWorld, host.VerbosityLog, "Spawned %s with %s in %s world", actor.Label, sys.Path, w.Kind)

	out := state(actor)
	out["transform"] = actor.Transform
	out["world"] = w.Kind
	return out, nil
}

func (m *Module) setParameter(ctx context.Context, args registry.Args) (any, error) {
	actor, sys, err := m.component(args)
	if err != nil {
		return nil, err
	}
	if err := actor.Niagara.SetParameter(sys.Niagara, args.String("parameter_name"), args["value"]); err != nil {
		return nil, err
	}
	return state(actor), nil
}

func (m *Module) systemInfo(ctx context.Context, args registry.Args) (any, error) {
	sys, err := m.system(args.String("system_path"))
	if err != nil {
		return nil, err
	}
	return sys.Niagara.Describe(sys.Path), nil
}

func (m *Module) addEmitter(ctx context.Context, args registry.Args) (any, error) {
	sys, err := m.system(args.String("system_path"))
	if err != nil {
		return nil, err
	}
	if err := sys.Niagara.AddEmitter(args.String("emitter_name")); err != nil {
		return nil, err
	}
	return sys.Niagara.Describe(sys.Path), nil
}

func (m *Module) removeEmitter(ctx context.Context, args registry.Args) (any, error) {
	sys, err := m.system(args.String("system_path"))
	if err != nil {
		return nil, err
	}
	if err := sys.Niagara.RemoveEmitter(args.String("emitter_name")); err != nil {
		return nil, err
	}
	return sys.Niagara.Describe(sys.Path), nil
}

func (m *Module) activate(ctx context.Context, args registry.Args) (any, error) {
	actor, _, err := m.component(args)
	if err != nil {
		return nil, err
	}
	changed := actor.Niagara.Activate(args.Bool("reset", false))
	out := state(actor)
	out["changed"] = changed
	return out, nil
}

func (m *Module) deactivate(ctx context.Context, args registry.Args) (any, error) {
	actor, _, err := m.component(args)
	if err != nil {
		return nil, err
	}
	changed := actor.Niagara.Deactivate()
	out := state(actor)
	out["changed"] = changed
	return out, nil
}
