// Package config provides settings and profile management for the bridge.
//
// Settings:
//
// Process options come from MCP_BRIDGE_* environment variables (a .env
// file is loaded first by the binary) and are overridden by command line
// flags:
//   - MCP_BRIDGE_ADDR, MCP_BRIDGE_CONFIG_DIR, MCP_BRIDGE_PROFILE
//   - MCP_BRIDGE_HOST_TIMEOUT, MCP_BRIDGE_DISABLED_DOMAINS
//   - MCP_BRIDGE_SNAPSHOT_DIR
//   - MCP_BRIDGE_LOG_LEVEL, MCP_BRIDGE_LOG_FORMAT, MCP_BRIDGE_LOG_FILE
//   - MCP_BRIDGE_OTEL_ENDPOINT
//
// Profiles:
//
// A profile is a JSON or YAML file in the config directory naming the
// domains to switch off, the host-thread timeout and the content the
// in-memory editor starts with:
//
//	name: gameplay
//	host_timeout: 10s
//	domains:
//	  pcg: false
//	  niagara: false
//	seed:
//	  project: Arena
//	  map: /Game/Maps/Arena
//	  assets:
//	    - path: /Game/Abilities/GA_Dash
//	      class: GameplayAbility
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	profile, err := manager.Load("gameplay")
//	fallback := manager.Default()
//
// Validation:
//
// Profiles are checked when loaded and before they are saved:
//   - domain names must be known
//   - host_timeout must lie between 10ms and 10m
//   - seed asset paths must be valid and unique
//   - seed dependencies must name assets in the same seed
package config
