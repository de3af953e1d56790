// Package config loads and validates the hub's YAML configuration: the tool
// server launch list and the provider/model lookup table.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/7divs7/mcp-hub/internal/schema"
)

// ServerSpec is the launch configuration for one tool server subprocess.
// Immutable once parsed.
type ServerSpec struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	CWD     string   `yaml:"cwd"`
}

type serversFile struct {
	Servers []ServerSpec `yaml:"servers"`
}

// ParseServers parses the `servers:` YAML list. Duplicate names are
// last-write-wins (name is the map key); the returned slice preserves first
// appearance order. Names containing the namespace separator are rejected
// since "<server>:<tool>" is the sole disambiguation mechanism.
func ParseServers(data []byte) ([]ServerSpec, error) {
	var file serversFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse servers config: %w", err)
	}

	byName := make(map[string]ServerSpec, len(file.Servers))
	order := make([]string, 0, len(file.Servers))
	for _, spec := range file.Servers {
		if spec.Name == "" {
			return nil, fmt.Errorf("server entry with empty name")
		}
		if strings.Contains(spec.Name, schema.ToolSeparator) {
			return nil, fmt.Errorf("server name %q must not contain %q", spec.Name, schema.ToolSeparator)
		}
		if spec.Command == "" {
			return nil, fmt.Errorf("server %q: command is required", spec.Name)
		}
		if _, seen := byName[spec.Name]; !seen {
			order = append(order, spec.Name)
		}
		byName[spec.Name] = spec
	}

	out := make([]ServerSpec, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out, nil
}

// LoadServers reads and parses the server list at path. A missing file is not
// an error: the hub starts with no servers and waits for an upload.
func LoadServers(path string) ([]ServerSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read servers config %s: %w", path, err)
	}
	return ParseServers(data)
}

// SaveServers persists the raw uploaded YAML so the server set survives a
// restart. The caller validates the bytes with ParseServers first.
func SaveServers(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write servers config %s: %w", path, err)
	}
	return nil
}
