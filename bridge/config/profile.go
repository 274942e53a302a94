package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/editorbridge/domains"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const (
	MinHostTimeout = 10 * time.Millisecond
	MaxHostTimeout = 10 * time.Minute
)

// Profile is a named bridge setup: which domains are served, how long
// host-thread commands may wait, and what content the host starts with.
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// HostTimeout is a Go duration string such as "30s". Empty keeps the
	// bridge default.
	HostTimeout string `json:"host_timeout,omitempty" yaml:"host_timeout,omitempty"`
	// Domains toggles domains by name. Missing domains are enabled.
	Domains map[string]bool `json:"domains,omitempty" yaml:"domains,omitempty"`
	// Seed replaces the built-in sandbox content when set.
	Seed *host.Seed `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Timeout parses HostTimeout. It returns zero when unset.
func (p *Profile) Timeout() (time.Duration, error) {
	if p.HostTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(p.HostTimeout)
	if err != nil {
		return 0, fmt.Errorf("host_timeout: %w", err)
	}
	return d, nil
}

// DisabledDomains lists the domains switched off, sorted.
func (p *Profile) DisabledDomains() []string {
	var out []string
	for name, enabled := range p.Domains {
		if !enabled {
			out = append(out, strings.ToLower(name))
		}
	}
	sort.Strings(out)
	return out
}

// HostSeed returns the profile seed or the built-in sandbox.
func (p *Profile) HostSeed() host.Seed {
	if p.Seed == nil {
		return host.DefaultSeed()
	}
	return *p.Seed
}

// ValidateProfile checks a profile before it is cached or saved.
func ValidateProfile(p *Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}

	timeout, err := p.Timeout()
	if err != nil {
		return err
	}
	if timeout != 0 && (timeout < MinHostTimeout || timeout > MaxHostTimeout) {
		return fmt.Errorf("host_timeout %s must be between %s and %s", timeout, MinHostTimeout, MaxHostTimeout)
	}

	for name := range p.Domains {
		if !domains.Known(name) {
			return fmt.Errorf("unknown domain %q", name)
		}
	}

	if p.Seed != nil {
		if err := validateSeed(p.Seed); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

func validateSeed(s *host.Seed) error {
	if s.Map != "" {
		if err := host.ValidateAssetPath(host.NormalizeAssetPath(s.Map)); err != nil {
			return fmt.Errorf("map: %w", err)
		}
	}

	paths := make(map[string]bool, len(s.Assets))
	for i, a := range s.Assets {
		p := host.NormalizeAssetPath(a.Path)
		if err := host.ValidateAssetPath(p); err != nil {
			return fmt.Errorf("asset %d: %w", i, err)
		}
		if a.Class == "" {
			return fmt.Errorf("asset %s: class is required", a.Path)
		}
		key := strings.ToLower(p)
		if paths[key] {
			return fmt.Errorf("asset %s: duplicate path", a.Path)
		}
		paths[key] = true
	}

	for _, a := range s.Assets {
		for _, dep := range a.Dependencies {
			if !paths[strings.ToLower(host.NormalizeAssetPath(dep))] {
				return fmt.Errorf("asset %s: dependency %s is not in the seed", a.Path, dep)
			}
		}
	}
	return nil
}

// minimalProfile is used when the config directory holds no usable profile.
func minimalProfile() *Profile {
	return &Profile{
		Name:        "default",
		Description: "Built-in sandbox project with every domain enabled",
	}
}
