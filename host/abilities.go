package host

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

var (
	ErrAbilityNotGranted = errors.New("ability not granted")
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrInvalidModifier   = errors.New("invalid effect modifier")
)

// defaultAttributes seed a freshly added ability system component.
var defaultAttributes = map[string]float64{
	"Health":    100,
	"MaxHealth": 100,
	"Mana":      50,
	"MaxMana":   50,
	"Stamina":   100,
}

type AbilitySpec struct {
	Handle int      `json:"handle"`
	Class  string   `json:"ability_class"`
	Level  int      `json:"level"`
	Tags   []string `json:"tags,omitempty"`
}

type Attribute struct {
	Base    float64 `json:"base_value"`
	Current float64 `json:"current_value"`
}

type ActiveEffect struct {
	Handle int     `json:"handle"`
	Class  string  `json:"effect_class"`
	Level  float64 `json:"level"`
	Policy string  `json:"duration_policy"`
}

// AbilitySystem is the gameplay ability component of an actor.
type AbilitySystem struct {
	Abilities  []AbilitySpec         `json:"abilities"`
	Attributes map[string]*Attribute `json:"attributes"`
	Effects    []ActiveEffect        `json:"active_effects"`
	NextHandle int                   `json:"next_handle"`
}

func NewAbilitySystem() *AbilitySystem {
	s := &AbilitySystem{Attributes: map[string]*Attribute{}}
	for name, v := range defaultAttributes {
		s.Attributes[name] = &Attribute{Base: v, Current: v}
	}
	return s
}

func (s *AbilitySystem) handle() int {
	s.NextHandle++
	return s.NextHandle
}

// Grant gives the actor an ability. Granting the same class again raises
// its level instead of adding a second spec.
func (s *AbilitySystem) Grant(ability *Asset, level int) AbilitySpec {
	if level < 1 {
		level = 1
	}
	for i := range s.Abilities {
		if strings.EqualFold(s.Abilities[i].Class, ability.Path) {
			if level > s.Abilities[i].Level {
				s.Abilities[i].Level = level
			}
			return s.Abilities[i]
		}
	}
	spec := AbilitySpec{
		Handle: s.handle(),
		Class:  ability.Path,
		Level:  level,
		Tags:   append([]string(nil), ability.Tags...),
	}
	s.Abilities = append(s.Abilities, spec)
	return spec
}

// Revoke removes abilities matching class or carrying tag (a tag matches
// itself and its children) and returns what was removed.
func (s *AbilitySystem) Revoke(class, tag string) ([]AbilitySpec, error) {
	var kept, removed []AbilitySpec
	for _, spec := range s.Abilities {
		if matchesAbility(spec, class, tag) {
			removed = append(removed, spec)
		} else {
			kept = append(kept, spec)
		}
	}
	if len(removed) == 0 {
		return nil, fmt.Errorf("%w: class=%q tag=%q", ErrAbilityNotGranted, class, tag)
	}
	s.Abilities = kept
	return removed, nil
}

func matchesAbility(spec AbilitySpec, class, tag string) bool {
	if class != "" && strings.EqualFold(spec.Class, NormalizeAssetPath(class)) {
		return true
	}
	if tag == "" {
		return false
	}
	for _, t := range spec.Tags {
		if strings.EqualFold(t, tag) || strings.HasPrefix(strings.ToLower(t), strings.ToLower(tag)+".") {
			return true
		}
	}
	return false
}

type modifier struct {
	Attribute string
	Op        string
	Magnitude float64
}

func parseModifiers(raw any) ([]modifier, error) {
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: modifiers must be a list", ErrInvalidModifier)
	}
	mods := make([]modifier, 0, len(items))
	for i, item := range items {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("%w: modifier %d is not an object", ErrInvalidModifier, i)
		}
		mod := modifier{
			Attribute: cast.ToString(m["attribute"]),
			Op:        strings.ToLower(cast.ToString(m["op"])),
		}
		if mod.Op == "" {
			mod.Op = "add"
		}
		if mod.Magnitude, err = cast.ToFloat64E(m["magnitude"]); err != nil {
			return nil, fmt.Errorf("%w: modifier %d has no numeric magnitude", ErrInvalidModifier, i)
		}
		switch mod.Op {
		case "add", "multiply", "override":
		default:
			return nil, fmt.Errorf("%w: modifier %d has unknown op %q", ErrInvalidModifier, i, mod.Op)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// ApplyEffect applies a GameplayEffect asset. Instant effects change base
// values; others also stay listed as active effects. Additive magnitudes
// scale with level.
func (s *AbilitySystem) ApplyEffect(effect *Asset, level float64) (ActiveEffect, error) {
	if level <= 0 {
		level = 1
	}
	mods, err := parseModifiers(effect.Properties["modifiers"])
	if err != nil {
		return ActiveEffect{}, err
	}
	for _, mod := range mods {
		if _, ok := s.Attributes[mod.Attribute]; !ok {
			return ActiveEffect{}, fmt.Errorf("%w: %s", ErrAttributeNotFound, mod.Attribute)
		}
	}

	policy := cast.ToString(effect.Properties["duration_policy"])
	if policy == "" {
		policy = "instant"
	}
	for _, mod := range mods {
		attr := s.Attributes[mod.Attribute]
		next := applyModifier(attr.Current, mod, level)
		if policy == "instant" {
			attr.Base = applyModifier(attr.Base, mod, level)
		}
		attr.Current = next
	}
	s.clamp()

	ae := ActiveEffect{Handle: s.handle(), Class: effect.Path, Level: level, Policy: policy}
	if policy != "instant" {
		s.Effects = append(s.Effects, ae)
	}
	return ae, nil
}

// applyModifier applies one modifier. Only add scales with level; multiply
// and override use their magnitude as given.
func applyModifier(v float64, mod modifier, level float64) float64 {
	switch mod.Op {
	case "multiply":
		return v * mod.Magnitude
	case "override":
		return mod.Magnitude
	default:
		return v + mod.Magnitude*level
	}
}

// clamp keeps Health and Mana within their maxima and above zero.
func (s *AbilitySystem) clamp() {
	for name, maxName := range map[string]string{"Health": "MaxHealth", "Mana": "MaxMana"} {
		attr, ok := s.Attributes[name]
		limit, hasLimit := s.Attributes[maxName]
		if !ok || !hasLimit {
			continue
		}
		for _, v := range []*float64{&attr.Base, &attr.Current} {
			if *v > limit.Current {
				*v = limit.Current
			}
			if *v < 0 {
				*v = 0
			}
		}
	}
}

// SetAttribute sets both base and current value.
func (s *AbilitySystem) SetAttribute(name string, value float64) (Attribute, error) {
	attr, ok := s.Attributes[name]
	if !ok {
		return Attribute{}, fmt.Errorf("%w: %s", ErrAttributeNotFound, name)
	}
	attr.Base, attr.Current = value, value
	return *attr, nil
}

// AttributeView is a detached attribute listing.
type AttributeView struct {
	Name string `json:"name"`
	Attribute
}

func (s *AbilitySystem) AttributeList() []AttributeView {
	out := make([]AttributeView, 0, len(s.Attributes))
	for name, attr := range s.Attributes {
		out = append(out, AttributeView{Name: name, Attribute: *attr})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *AbilitySystem) AbilityList() []AbilitySpec {
	out := make([]AbilitySpec, len(s.Abilities))
	for i, spec := range s.Abilities {
		spec.Tags = append([]string(nil), spec.Tags...)
		out[i] = spec
	}
	return out
}
