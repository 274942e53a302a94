// Package editor answers questions about the bridge and the editor itself.
// Its commands run on the caller's goroutine and only read state that is
// safe to share: the published host status, the output log, bridge
// statistics and the sealed command catalog.
package editor

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/editorbridge/bridge/executor"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const Domain = "editor"

// Catalog lists registered commands. *registry.Registry satisfies it.
type Catalog interface {
	List() []registry.Info
	Domains() []string
}

// StatsSource reports execution bridge counters. *executor.Bridge satisfies it.
type StatsSource interface {
	Stats() executor.Stats
}

type Module struct {
	host    *host.Host
	catalog Catalog
	stats   StatsSource
	version string
}

func New(h *host.Host, catalog Catalog, stats StatsSource, version string) *Module {
	return &Module{host: h, catalog: catalog, stats: stats, version: version}
}

func (m *Module) Domain() string { return Domain }

func (m *Module) Descriptors() []registry.Descriptor {
	return []registry.Descriptor{
		{
			Name:        "editor.status",
			Description: "Report project, world, PIE and bridge status",
			Affinity:    registry.CallerThread,
			Handler:     m.status,
		},
		{
			Name:        "editor.output_log",
			Description: "Read recent output log lines",
			Affinity:    registry.CallerThread,
			Params: []registry.Param{
				kit.Optional("limit", registry.TypeInteger, "Maximum lines, default 100"),
				kit.Optional("category", registry.TypeString, "Only this log category"),
			},
			Handler: m.outputLog,
		},
		{
			Name:        "editor.list_commands",
			Description: "List every registered command with its parameters",
			Affinity:    registry.CallerThread,
			Params: []registry.Param{
				kit.Optional("domain", registry.TypeString, "Only commands of this domain"),
			},
			Handler: m.listCommands,
		},
	}
}

func (m *Module) status(ctx context.Context, args registry.Args) (any, error) {
	st := m.host.Status()
	out := map[string]any{
		"version":     m.version,
		"project":     st.Project,
		"map":         st.Map,
		"pie_active":  st.PIEActive,
		"asset_count": st.Assets,
		"actor_count": st.Actors,
		"uptime":      time.Since(st.StartedAt).Round(time.Second).String(),
		"domains":     m.catalog.Domains(),
	}
	if m.stats != nil {
		out["bridge"] = m.stats.Stats()
	}
	return out, nil
}

func (m *Module) outputLog(ctx context.Context, args registry.Args) (any, error) {
	limit := args.Int("limit", 100)
	if limit < 1 {
		return nil, &registry.ArgumentError{Field: "limit", Reason: "must be at least 1"}
	}
	entries := m.host.Log.Recent(limit, args.String("category"))
	return map[string]any{"entries": entries, "count": len(entries)}, nil
}

func (m *Module) listCommands(ctx context.Context, args registry.Args) (any, error) {
	domain := args.String("domain")
	all := m.catalog.List()
	commands := make([]registry.Info, 0, len(all))
	for _, info := range all {
		if domain == "" || info.Domain == domain {
			commands = append(commands, info)
		}
	}
	return map[string]any{"commands": commands, "count": len(commands)}, nil
}
