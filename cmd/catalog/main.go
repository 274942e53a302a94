// Command catalog prints the command catalog a profile produces, grouped by
// domain, with each command's thread affinity and required parameters.
// --json prints the same entries GET /api/commands serves.
//
//	go run ./cmd/catalog --config-dir configs --profile default
//	go run ./cmd/catalog --json --domain level
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/editorbridge/bridge/config"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

func main() {
	cmd := &cli.Command{
		Name:  "catalog",
		Usage: "print the bridge command catalog for a profile",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "profile directory"},
			&cli.StringFlag{Name: "profile", Value: config.DefaultProfile, Usage: "profile name"},
			&cli.StringFlag{Name: "domain", Usage: "only print this domain"},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of tables"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			infos, err := loadCatalog(cmd.String("config-dir"), cmd.String("profile"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return writeJSON(os.Stdout, infos, cmd.String("domain"))
			}
			return printCatalog(os.Stdout, infos, cmd.String("domain"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadCatalog registers the domains the profile enables against a host
// seeded from it, and returns the resulting catalog.
func loadCatalog(configDir, profileName string) ([]registry.Info, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		return nil, err
	}
	profile := manager.Default()
	if profileName != "" && profileName != config.DefaultProfile {
		if profile, err = manager.Load(profileName); err != nil {
			return nil, err
		}
	}

	h, err := host.New(profile.HostSeed())
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	reg := registry.New()
	if _, err := domains.Register(reg, domains.Options{Host: h, Disabled: profile.DisabledDomains()}); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg.List(), nil
}

// printCatalog writes one table per domain in registration order.
func printCatalog(w io.Writer, infos []registry.Info, only string) error {
	byDomain := make(map[string][]registry.Info)
	for _, info := range infos {
		byDomain[info.Domain] = append(byDomain[info.Domain], info)
	}

	total := 0
	for _, domain := range domains.Names {
		commands := byDomain[domain]
		if len(commands) == 0 || (only != "" && !strings.EqualFold(only, domain)) {
			continue
		}
		total += len(commands)

		fmt.Fprintf(w, "\n=== %s (%d) ===\n", domain, len(commands))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COMMAND\tTHREAD\tREQUIRED")
		for _, c := range commands {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Affinity, requiredParams(c.Params))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\n%d commands\n", total)
	return nil
}

// writeJSON prints catalog entries as {commands, count}, optionally limited
// to one domain.
func writeJSON(w io.Writer, infos []registry.Info, only string) error {
	commands := make([]registry.Info, 0, len(infos))
	for _, c := range infos {
		if only == "" || strings.EqualFold(c.Domain, only) {
			commands = append(commands, c)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"commands": commands,
		"count":    len(commands),
	})
}

func requiredParams(params []registry.Param) string {
	var names []string
	for _, p := range params {
		if p.Required {
			names = append(names, fmt.Sprintf("%s:%s", p.Name, p.Type))
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
