package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overlay is an optional signature file layered on top of the built-in
// tables, so deployments can register in-house SDKs without a rebuild.
type Overlay struct {
	Providers  []Provider  `yaml:"providers"`
	Frameworks []Framework `yaml:"frameworks"`
	Domains    []string    `yaml:"domains"`
}

// LoadOverlay returns a registry combining the built-in tables with the
// signatures declared in the given YAML file.
func LoadOverlay(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature overlay %s: %w", path, err)
	}
	var overlay Overlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse signature overlay %s: %w", path, err)
	}
	return &Registry{
		providers:  append(append([]Provider{}, builtinProviders...), overlay.Providers...),
		frameworks: append(append([]Framework{}, builtinFrameworks...), overlay.Frameworks...),
		domains:    append(append([]string{}, builtinDomains...), overlay.Domains...),
	}, nil
}
