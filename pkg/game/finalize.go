package game

import (
	"starhold/pkg/catalog"
	"starhold/pkg/types"
)

// settle promotes every pending action at a base whose completion time has
// passed into its completed effect. It runs on every base-scoped read and is
// idempotent: completed actions are terminal and buildings whose scheduling
// fields were cleared are never touched again.
func (e *Engine) settle(empireID int64, coord string) error {
	actions, err := e.store.ActionsAt(empireID, coord)
	if err != nil {
		return errServer(err, "read actions")
	}
	now := e.nowMs()
	for _, a := range actions {
		if a.Status != types.StatusPending || a.CompletesAt == 0 || a.CompletesAt > now {
			continue
		}
		if err := e.finalize(a); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) finalize(a types.PendingAction) error {
	switch catalog.Kind(a.Kind) {
	case catalog.KindStructure, catalog.KindDefense:
		if err := e.finalizeBuilding(a); err != nil {
			return err
		}
	case catalog.KindTechnology:
		if err := e.store.SetTechLevel(a.EmpireID, a.Key, a.TargetLevel); err != nil {
			return errServer(err, "apply research %s", a.Key)
		}
	}

	a.Status = types.StatusCompleted
	if err := e.store.UpdateAction(a); err != nil {
		return errServer(err, "complete action %s", a.ID)
	}
	e.info.Printf("finalized %s %s at %s for empire %d", a.Kind, a.Key, a.BaseCoord, a.EmpireID)
	return nil
}

// finalizeBuilding applies a completed construction: an upgrade-in-place
// increments its instance's level, a first-time construction activates the
// staged instance. Either way the scheduling fields are cleared so a repeat
// run finds nothing to do.
func (e *Engine) finalizeBuilding(a types.PendingAction) error {
	buildings, err := e.store.BuildingsAt(a.EmpireID, a.BaseCoord)
	if err != nil {
		return errServer(err, "read buildings")
	}
	for _, b := range buildings {
		if b.Key != a.Key {
			continue
		}
		switch {
		case b.PendingUpgrade:
			b.Level++
			b.PendingUpgrade = false
		case !b.IsActive && b.CompletesAt == a.CompletesAt:
			// staged first-time construction
		default:
			continue
		}
		b.IsActive = true
		b.ChargedCost = 0
		b.StartedAt = 0
		b.CompletesAt = 0
		if err := e.store.UpdateBuilding(b); err != nil {
			return errServer(err, "activate building %s", b.Key)
		}
		return nil
	}
	// Nothing to apply: the building was already finalized by a concurrent
	// reader. The action row is still marked completed by the caller.
	return nil
}
