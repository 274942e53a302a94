// Command validate checks the bridge profile files in a config directory
// (../configs unless a directory is given). It checks:
//   - JSON or YAML structure and required fields
//   - host_timeout syntax and range
//   - Domain toggles name known domains
//   - Seed asset paths, classes and dependencies
//   - The seed actually loads into a host and the enabled domains register
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/editorbridge/bridge/config"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// decodeProfile parses a profile by extension. Unknown fields are errors so
// that typos in toggles do not pass silently.
func decodeProfile(filePath string, data []byte) (*config.Profile, error) {
	var p config.Profile
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("Invalid YAML: %v", err)
		}
	default:
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("Invalid JSON: %v", err)
		}
	}
	return &p, nil
}

// validateProfile loads and validates a single profile file.
func validateProfile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	profile, err := decodeProfile(filePath, data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if err := config.ValidateProfile(profile); err != nil {
		result.fail("%v", err)
		return result
	}

	timeout, _ := profile.Timeout()
	if timeout == 0 {
		result.info("Host timeout: bridge default")
	} else {
		result.info("Host timeout: %s", timeout)
	}

	// Load the seed into a real host and register the enabled domains.
	seed := profile.HostSeed()
	h, err := host.New(seed)
	if err != nil {
		result.fail("Seed does not load: %v", err)
		return result
	}
	result.info("Seed: project %s with %d assets, map %s", seed.Project, h.Project.Count(), seed.Map)

	reg := registry.New()
	enabled, err := domains.Register(reg, domains.Options{Host: h, Version: "validate", Disabled: profile.DisabledDomains()})
	if err != nil {
		result.fail("Domains do not register: %v", err)
		return result
	}
	if len(enabled) == 0 {
		result.fail("Every domain is disabled")
		return result
	}
	result.info("Domains: %d enabled (%s), %d commands", len(enabled), strings.Join(enabled, ", "), reg.Len())
	if disabled := profile.DisabledDomains(); len(disabled) > 0 {
		result.info("Disabled: %s", strings.Join(disabled, ", "))
	}

	return result
}

// profileFiles lists *.json, *.yaml and *.yml files in dir, sorted.
func profileFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// duplicateIDs reports profile ids defined by more than one file.
func duplicateIDs(files []string) []string {
	byID := make(map[string][]string)
	for _, f := range files {
		base := filepath.Base(f)
		id := strings.TrimSuffix(base, filepath.Ext(base))
		byID[id] = append(byID[id], base)
	}
	var dups []string
	for id, names := range byID {
		if len(names) > 1 {
			dups = append(dups, fmt.Sprintf("%s (%s)", id, strings.Join(names, ", ")))
		}
	}
	sort.Strings(dups)
	return dups
}

// main validates each profile file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := profileFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding profile files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No profile files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateProfile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	if dups := duplicateIDs(files); len(dups) > 0 {
		allValid = false
		fmt.Printf("\n❌ Profile ids defined more than once: %s\n", strings.Join(dups, "; "))
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All profiles are valid!")
	} else {
		fmt.Println("❌ Some profiles have errors")
		os.Exit(1)
	}
}
