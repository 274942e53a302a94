package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings are the process-level options read from the environment.
// Command line flags override them.
type Settings struct {
	Addr            string        `env:"MCP_BRIDGE_ADDR"              envDefault:"127.0.0.1:8090"`
	ConfigDir       string        `env:"MCP_BRIDGE_CONFIG_DIR"        envDefault:"configs"`
	Profile         string        `env:"MCP_BRIDGE_PROFILE"           envDefault:"default"`
	HostTimeout     time.Duration `env:"MCP_BRIDGE_HOST_TIMEOUT"`
	DisabledDomains []string      `env:"MCP_BRIDGE_DISABLED_DOMAINS"  envSeparator:","`
	SnapshotDir     string        `env:"MCP_BRIDGE_SNAPSHOT_DIR"      envDefault:"levels"`
	LogLevel        string        `env:"MCP_BRIDGE_LOG_LEVEL"         envDefault:"info"`
	LogFormat       string        `env:"MCP_BRIDGE_LOG_FORMAT"        envDefault:"text"`
	LogFile         string        `env:"MCP_BRIDGE_LOG_FILE"`
	OTelEndpoint    string        `env:"MCP_BRIDGE_OTEL_ENDPOINT"`
}

// LoadSettings parses Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// EffectiveTimeout picks the host-thread timeout: the environment wins over
// the profile, and zero leaves the bridge default.
func (s Settings) EffectiveTimeout(p *Profile) (time.Duration, error) {
	if s.HostTimeout != 0 {
		if s.HostTimeout < MinHostTimeout || s.HostTimeout > MaxHostTimeout {
			return 0, fmt.Errorf("host timeout %s must be between %s and %s", s.HostTimeout, MinHostTimeout, MaxHostTimeout)
		}
		return s.HostTimeout, nil
	}
	if p == nil {
		return 0, nil
	}
	return p.Timeout()
}

// Disabled merges the profile's switched-off domains with the settings'.
func (s Settings) Disabled(p *Profile) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	if p != nil {
		add(p.DisabledDomains())
	}
	add(s.DisabledDomains)
	return out
}
