package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileData struct {
	Specs []Spec `yaml:"specs"`
}

// LoadFile builds a registry from the default game data overlaid with the
// specs in a YAML catalog file. A file spec with the same kind+key replaces
// the default outright.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var data fileData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	merged := make([]Spec, 0, len(defaultSpecs)+len(data.Specs))
	override := make(map[string]bool, len(data.Specs))
	for _, s := range data.Specs {
		override[string(s.Kind)+"/"+s.Key] = true
	}
	for _, s := range defaultSpecs {
		if !override[string(s.Kind)+"/"+s.Key] {
			merged = append(merged, s)
		}
	}
	merged = append(merged, data.Specs...)
	return Build(merged)
}
