package game

import (
	"starhold/pkg/catalog"
	"starhold/pkg/store"
	"starhold/pkg/types"
)

// Capacities aggregates a base's buildings into its three throughput rates.
// Elapsed actions are settled first so a freshly completed building counts.
func (e *Engine) Capacities(empireID int64, coord string) (types.Capacities, error) {
	if _, err := e.ownedBase(empireID, coord); err != nil {
		return types.Capacities{}, err
	}
	if err := e.settle(empireID, coord); err != nil {
		return types.Capacities{}, err
	}
	buildings, err := e.store.BuildingsAt(empireID, coord)
	if err != nil {
		return types.Capacities{}, errServer(err, "read buildings")
	}
	return e.capacitiesOf(buildings), nil
}

// capacitiesOf sums yield contributions. Instances of the same key sum their
// levels; taking a maximum instead undercounts bases with several separate
// instances of one structure type.
func (e *Engine) capacitiesOf(buildings []types.Building) types.Capacities {
	now := e.nowMs()
	var caps types.Capacities
	for _, b := range buildings {
		lvl := effectiveLevel(b, now)
		if lvl == 0 {
			continue
		}
		spec, ok := e.buildingSpec(b.Key)
		if !ok || spec.Yield == 0 {
			continue
		}
		contribution := int64(lvl) * spec.Yield
		switch spec.YieldType {
		case catalog.YieldConstruction:
			caps.ConstructionPerHour += contribution
		case catalog.YieldProduction:
			caps.ProductionPerHour += contribution
		case catalog.YieldResearch:
			caps.ResearchPerHour += contribution
		}
	}
	return caps
}

// aggregateLevel is the effective level of one catalog key at a base, summed
// across instances.
func (e *Engine) aggregateLevel(buildings []types.Building, key string) int {
	now := e.nowMs()
	total := 0
	for _, b := range buildings {
		if b.Key == key {
			total += effectiveLevel(b, now)
		}
	}
	return total
}

// ownedBase loads a base and verifies ownership.
func (e *Engine) ownedBase(empireID int64, coord string) (types.Base, error) {
	base, err := e.store.GetBase(coord)
	if err == store.ErrNotFound {
		return base, errNotFound("no base at %s", coord)
	}
	if err != nil {
		return base, errServer(err, "read base")
	}
	if base.EmpireID != empireID {
		return base, errNotFound("no base at %s", coord)
	}
	return base, nil
}
