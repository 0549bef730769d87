package game

import (
	"starhold/pkg/catalog"
	"starhold/pkg/types"
)

// EnergyBalance computes produced vs consumed energy at a base. With
// withReservation set, the single earliest-scheduled queued action whose spec
// draws energy is withheld from the balance, so a second negative-energy
// action cannot be approved against supply that is already committed.
func (e *Engine) EnergyBalance(empireID int64, coord string, withReservation bool) (types.EnergyReport, error) {
	base, err := e.ownedBase(empireID, coord)
	if err != nil {
		return types.EnergyReport{}, err
	}
	if err := e.settle(empireID, coord); err != nil {
		return types.EnergyReport{}, err
	}
	buildings, err := e.store.BuildingsAt(empireID, coord)
	if err != nil {
		return types.EnergyReport{}, errServer(err, "read buildings")
	}

	report := e.energyOf(buildings, base.SiteEnergy)

	if withReservation {
		actions, err := e.store.ActionsAt(empireID, coord)
		if err != nil {
			return types.EnergyReport{}, errServer(err, "read actions")
		}
		report.ReservedNegative = e.queuedNegativeDelta(actions)
	}
	return report, nil
}

func (e *Engine) energyOf(buildings []types.Building, siteYield int64) types.EnergyReport {
	now := e.nowMs()
	report := types.EnergyReport{Produced: siteYield}
	for _, b := range buildings {
		lvl := effectiveLevel(b, now)
		if lvl == 0 {
			continue
		}
		spec, ok := e.buildingSpec(b.Key)
		if !ok || spec.EnergyDelta == 0 {
			continue
		}
		amount := int64(lvl) * spec.EnergyDelta
		if amount > 0 {
			report.Produced += amount
		} else {
			report.Consumed += -amount
		}
	}
	report.Balance = report.Produced - report.Consumed
	return report
}

// queuedNegativeDelta finds the earliest-scheduled non-terminal action whose
// spec has a negative energy delta and returns that delta (<= 0). Actions are
// already ordered by completion time by the store.
func (e *Engine) queuedNegativeDelta(actions []types.PendingAction) int64 {
	for _, a := range actions {
		if a.Status.Terminal() {
			continue
		}
		spec, ok := e.catalog.SpecFor(catalog.Kind(a.Kind), a.Key)
		if !ok {
			continue
		}
		if spec.EnergyDelta < 0 {
			return spec.EnergyDelta
		}
	}
	return 0
}
