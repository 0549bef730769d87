// Package catalog holds the static game data: every structure, technology,
// unit and defense type resolves here to an immutable spec. The registry is
// built once at process start and is read-only afterwards.
package catalog

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindStructure  Kind = "structure"
	KindTechnology Kind = "technology"
	KindUnit       Kind = "unit"
	KindDefense    Kind = "defense"
)

// YieldType names the throughput capacity a building's yield feeds.
type YieldType string

const (
	YieldNone         YieldType = ""
	YieldConstruction YieldType = "construction"
	YieldProduction   YieldType = "production"
	YieldResearch     YieldType = "research"
)

var (
	ErrNotFound      = errors.New("catalog: no such spec")
	ErrNoCostDefined = errors.New("catalog: no cost defined for level")
)

// Spec is the immutable static definition of one catalog entry. Per-level
// quantities (energy delta, area, population, yield) scale linearly with level.
type Spec struct {
	Key         string          `yaml:"key"`
	Kind        Kind            `yaml:"kind"`
	Name        string          `yaml:"name"`
	BaseCost    int64           `yaml:"base_cost"`
	CostByLevel map[int]int64   `yaml:"cost_by_level"`
	EnergyDelta int64           `yaml:"energy_delta"` // per level; negative = consumer
	Area        int64           `yaml:"area"`         // per level
	Population  int64           `yaml:"population"`   // per level
	Yield       int64           `yaml:"yield"`        // per level, in YieldType units/hour
	YieldType   YieldType       `yaml:"yield_type"`
	Prereqs     []string        `yaml:"prereqs"` // keys that must be active at the base
}

// Registry is the process-wide kind+key lookup. Never mutated after Build.
type Registry struct {
	specs map[Kind]map[string]Spec
}

// Build validates the given specs and freezes them into a Registry.
func Build(specs []Spec) (*Registry, error) {
	r := &Registry{specs: make(map[Kind]map[string]Spec)}
	for _, s := range specs {
		if s.Key == "" {
			return nil, fmt.Errorf("catalog: spec with empty key")
		}
		switch s.Kind {
		case KindStructure, KindTechnology, KindUnit, KindDefense:
		default:
			return nil, fmt.Errorf("catalog: spec %q has unknown kind %q", s.Key, s.Kind)
		}
		byKey := r.specs[s.Kind]
		if byKey == nil {
			byKey = make(map[string]Spec)
			r.specs[s.Kind] = byKey
		}
		if _, dup := byKey[s.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate spec %s/%s", s.Kind, s.Key)
		}
		byKey[s.Key] = s
	}
	return r, nil
}

// SpecFor resolves a single spec.
func (r *Registry) SpecFor(kind Kind, key string) (Spec, bool) {
	s, ok := r.specs[kind][key]
	return s, ok
}

// CostForLevel returns the credit cost of reaching the given level. The base
// cost is a fallback for level 1 only; any other level without a table entry
// is a hard stop for the caller, never a free action.
func (r *Registry) CostForLevel(kind Kind, key string, level int) (int64, error) {
	s, ok := r.SpecFor(kind, key)
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, key)
	}
	if c, ok := s.CostByLevel[level]; ok {
		return c, nil
	}
	if level == 1 && s.BaseCost > 0 {
		return s.BaseCost, nil
	}
	return 0, fmt.Errorf("%w: %s/%s level %d", ErrNoCostDefined, kind, key, level)
}

// Keys lists all keys of one kind, for status/debug output.
func (r *Registry) Keys(kind Kind) []string {
	out := make([]string, 0, len(r.specs[kind]))
	for k := range r.specs[kind] {
		out = append(out, k)
	}
	return out
}
