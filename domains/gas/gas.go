// Package gas drives the gameplay ability system on actors: components,
// ability grants, effects and attributes.
package gas

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const Domain = "gas"

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

	return []registry.Descriptor{
		{
			Name:        "gas.add_component",
			Description: "Add an ability system component with default attributes",
			Params:      []registry.Param{actorPath, kit.World},
			Handler:     kit.OnHost(h, m.addComponent),
		},
		{
			Name:        "gas.grant_ability",
			Description: "Grant a GameplayAbility asset",
			Params: []registry.Param{
				actorPath,
				kit.Required("ability_class", registry.TypeString, "GameplayAbility asset path"),
				kit.Optional("level", registry.TypeInteger, "Ability level, default 1"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.grant),
		},
		{
			Name:        "gas.revoke_ability",
			Description: "Revoke abilities by class or gameplay tag",
			Params: []registry.Param{
				actorPath,
				kit.Optional("ability_class", registry.TypeString, "GameplayAbility asset path"),
				kit.Optional("ability_tag", registry.TypeString, "Gameplay tag; matches child tags too"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.revoke),
		},
		{
			Name:        "gas.list_abilities",
			Description: "List granted abilities",
			Params:      []registry.Param{actorPath, kit.World},
			Handler:     kit.OnHost(h, m.listAbilities),
		},
		{
			Name:        "gas.apply_effect",
			Description: "Apply a GameplayEffect asset",
			Params: []registry.Param{
				actorPath,
				kit.Required("effect_class", registry.TypeString, "GameplayEffect asset path"),
				kit.Optional("effect_level", registry.TypeNumber, "Effect level, default 1"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.applyEffect),
		},
		{
			Name:        "gas.get_attributes",
			Description: "Read attribute base and current values",
			Params:      []registry.Param{actorPath, kit.World},
			Handler:     kit.OnHost(h, m.attributes),
		},
		{
			Name:        "gas.set_attribute",
			Description: "Set an attribute's base and current value",
			Params: []registry.Param{
				actorPath,
				kit.Required("attribute_name", registry.TypeString, "Attribute name, e.g. Health"),
				kit.Required("attribute_value", registry.TypeNumber, "New value"),
				kit.World,
			},
			Handler: kit.OnHost(h, m.setAttribute),
		},
	}
}

func (m *Module) addComponent(ctx context.Context, args registry.Args) (any, error) {
	_, actor, err := kit.ResolveActor(m.host, args)
	if err != nil {
		return nil, err
	}
	added := actor.Abilities == nil
	if added {
		actor.Abilities = host.NewAbilitySystem()
	}
	return map[string]any{
		"actor_path": actor.Path,
		"added":      added,
		"attributes": actor.Abilities.AttributeList(),
	}, nil
}

func (m *Module) system(args registry.Args) (*host.Actor, error) {
	_, actor, err := kit.ResolveActor(m.host, args)
	if err != nil {
		return nil, err
	}
	if actor.Abilities == nil {
		return nil, fmt.Errorf("%w: %s has no ability system component", host.ErrNoComponent, actor.Label)
	}
	return actor, nil
}

func (m *Module) grant(ctx context.Context, args registry.Args) (any, error) {
	actor, err := m.system(args)
	if err != nil {
		return nil, err
	}
	ability, err := m.host.Project.GetClass(args.String("ability_class"), host.ClassGameplayAbility)
	if err != nil {
		return nil, err
	}
	level := args.Int("level", 1)
	if level < 1 {
		return nil, &registry.ArgumentError{Field: "level", Reason: "must be at least 1"}
	}
	spec := actor.Abilities.Grant(ability, level)
	spec.Tags = append([]string(nil), spec.Tags...)
	return map[string]any{"actor_path": actor.Path, "granted": spec}, nil
}

func (m *Module) revoke(ctx context.Context, args registry.Args) (any, error) {
	class, tag := args.String("ability_class"), args.String("ability_tag")
	if class == "" && tag == "" {
		return nil, &registry.ArgumentError{Field: "ability_class", Reason: "ability_class or ability_tag is required"}
	}
	actor, err := m.system(args)
	if err != nil {
		return nil, err
	}
	removed, err := actor.Abilities.Revoke(class, tag)
	if err != nil {
		return nil, err
	}
	return map[string]any{"actor_path": actor.Path, "revoked": removed, "count": len(removed)}, nil
}

func (m *Module) listAbilities(ctx context.Context, args registry.Args) (any, error) {
	actor, err := m.system(args)
	if err != nil {
		return nil, err
	}
	abilities := actor.Abilities.AbilityList()
	return map[string]any{"actor_path": actor.Path, "abilities": abilities, "count": len(abilities)}, nil
}

func (m *Module) applyEffect(ctx context.Context, args registry.Args) (any, error) {
	actor, err := m.system(args)
	if err != nil {
		return nil, err
	}
	effect, err := m.host.Project.GetClass(args.String("effect_class"), host.ClassGameplayEffect)
	if err != nil {
		return nil, err
	}
	level := args.Float("effect_level", 1)
	if level <= 0 {
		return nil, &registry.ArgumentError{Field: "effect_level", Reason: "must be positive"}
	}
	applied, err := actor.Abilities.ApplyEffect(effect, level)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"actor_path": actor.Path,
		"effect":     applied,
		"attributes": actor.Abilities.AttributeList(),
	}, nil
}

func (m *Module) attributes(ctx context.Context, args registry.Args) (any, error) {
	actor, err := m.system(args)
	if err != nil {
		return nil, err
	}
	effects := append([]host.ActiveEffect{}, actor.Abilities.Effects...)
	return map[string]any{
		"actor_path":     actor.Path,
		"attributes":     actor.Abilities.AttributeList(),
		"active_effects": effects,
	}, nil
}

func (m *Module) setAttribute(ctx context.Context, args registry.Args) (any, error) {
	actor, err := m.system(args)
	if err != nil {
		return nil, err
	}
	name := args.String("attribute_name")
	attr, err := actor.Abilities.SetAttribute(name, args.Float("attribute_value", 0))
	if err != nil {
		return nil, err
	}
	return map[string]any{"actor_path": actor.Path, "attribute": host.AttributeView{Name: name, Attribute: attr}}, nil
}
