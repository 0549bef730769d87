package game

import (
	"fmt"

	"starhold/pkg/catalog"
	"starhold/pkg/store"
	"starhold/pkg/types"
)

// CancelResult reports what a cancellation gave back.
type CancelResult struct {
	ActionID        string `json:"action_id"`
	RefundedCredits int64  `json:"refunded_credits"`
}

// CancelAction reverts a still-pending action and refunds any credits it
// charged. Elapsed actions are settled first, so an action whose completion
// time has already passed finalizes instead of cancelling.
func (e *Engine) CancelAction(empireID int64, coord, actionID string) (CancelResult, error) {
	if _, err := e.ownedBase(empireID, coord); err != nil {
		return CancelResult{}, err
	}
	if err := e.settle(empireID, coord); err != nil {
		return CancelResult{}, err
	}

	action, err := e.store.GetAction(actionID)
	if err == store.ErrNotFound {
		return CancelResult{}, errNoActiveAction("no action %s", actionID)
	}
	if err != nil {
		return CancelResult{}, errServer(err, "read action")
	}
	if action.EmpireID != empireID || action.BaseCoord != coord {
		return CancelResult{}, errNoActiveAction("no action %s at %s", actionID, coord)
	}
	if action.Status.Terminal() {
		return CancelResult{}, errNoActiveAction("action %s is already %s", actionID, action.Status)
	}

	kind := catalog.Kind(action.Kind)
	if kind == catalog.KindStructure || kind == catalog.KindDefense {
		if err := e.revertBuilding(action); err != nil {
			return CancelResult{}, err
		}
	}

	refund := action.Cost
	if refund == 0 {
		// The stored charge is authoritative; the catalog is only a fallback
		// when the charge was never recorded.
		if c, err := e.catalog.CostForLevel(kind, action.Key, action.TargetLevel); err == nil {
			refund = c
		}
	}

	action.Status = types.StatusCancelled
	if err := e.store.UpdateAction(action); err != nil {
		return CancelResult{}, errServer(err, "cancel action %s", actionID)
	}

	if refund > 0 {
		e.refund(empireID, refund, fmt.Sprintf("cancelled %s %s level %d", action.Kind, action.Key, action.TargetLevel))
	}

	e.info.Printf("cancelled %s %s at %s for empire %d (refund %d)",
		action.Kind, action.Key, coord, empireID, refund)
	return CancelResult{ActionID: actionID, RefundedCredits: refund}, nil
}

// revertBuilding undoes the staged work: an upgrade-in-place drops back to its
// prior active state, a staged first-time construction is deleted outright.
func (e *Engine) revertBuilding(action types.PendingAction) error {
	buildings, err := e.store.BuildingsAt(action.EmpireID, action.BaseCoord)
	if err != nil {
		return errServer(err, "read buildings")
	}
	for _, b := range buildings {
		if b.Key != action.Key {
			continue
		}
		if b.PendingUpgrade {
			b.PendingUpgrade = false
			b.ChargedCost = 0
			b.StartedAt = 0
			b.CompletesAt = 0
			if err := e.store.UpdateBuilding(b); err != nil {
				return errServer(err, "revert upgrade of %s", b.Key)
			}
			return nil
		}
		if !b.IsActive && b.CompletesAt == action.CompletesAt {
			if err := e.store.DeleteBuilding(b.ID); err != nil {
				return errServer(err, "remove staged %s", b.Key)
			}
			return nil
		}
	}
	return nil
}

// refund credits back with the same conditional-update discipline as debit.
func (e *Engine) refund(empireID, amount int64, note string) {
	for attempt := 0; attempt < accrualRetries; attempt++ {
		emp, err := e.store.GetEmpire(empireID)
		if err != nil {
			e.errlog.Printf("refund of %d for empire %d: read failed: %v", amount, empireID, err)
			return
		}
		err = e.store.AdjustCredits(empireID, emp.Credits, emp.Credits+amount)
		if err == nil {
			e.appendLedger(empireID, amount, ReasonRefund, note, emp.Credits+amount)
			return
		}
		if err != store.ErrConflict {
			e.errlog.Printf("refund of %d for empire %d failed: %v", amount, empireID, err)
			return
		}
	}
	e.errlog.Printf("refund of %d for empire %d kept losing the balance race", amount, empireID)
}
