package game

import (
	"fmt"

	"starhold/pkg/store"
	"starhold/pkg/types"
)

// AccrualResult is what a balance read returns: the refreshed empire plus the
// income figures the caller usually wants to display.
type AccrualResult struct {
	Empire         types.Empire `json:"empire"`
	CreditsGained  int64        `json:"credits_gained"`
	CreditsPerHour int64        `json:"credits_per_hour"`
}

const accrualRetries = 3

// Accrue converts wall-clock time since the last read into whole credits at
// the empire's production rate, carrying the sub-credit remainder forward.
// There is no background timer; income exists only because this runs before
// every balance-dependent check.
func (e *Engine) Accrue(empireID int64) (AccrualResult, error) {
	rate, err := e.incomeRate(empireID)
	if err != nil {
		return AccrualResult{}, err
	}

	var conflict error
	for attempt := 0; attempt < accrualRetries; attempt++ {
		emp, err := e.store.GetEmpire(empireID)
		if err == store.ErrNotFound {
			return AccrualResult{}, errNotFound("empire %d", empireID)
		}
		if err != nil {
			return AccrualResult{}, errServer(err, "read empire")
		}

		now := e.nowMs()
		elapsed := now - emp.LastUpdate
		if elapsed < 0 {
			// Clock skew between service instances; never accrue backwards.
			elapsed = 0
		}

		if rate <= 0 {
			// No income: discard the carry rather than let a stale remainder
			// resume unexpectedly once income restarts much later.
			if err := e.store.UpdateEmpireAccrual(empireID, emp.Credits, emp.Credits, 0, now); err != nil {
				if err == store.ErrConflict {
					conflict = err
					continue
				}
				return AccrualResult{}, errServer(err, "persist accrual")
			}
			emp.RemainderMs = 0
			emp.LastUpdate = now
			return AccrualResult{Empire: emp, CreditsPerHour: rate}, nil
		}

		total := elapsed + emp.RemainderMs
		// Credits already granted for the carried remainder must not be
		// granted again, or a zero-elapsed read would mint money.
		increment := rate*total/msPerHour - rate*emp.RemainderMs/msPerHour
		newRemainder := total % msPerHour
		newCredits := emp.Credits + increment

		if err := e.store.UpdateEmpireAccrual(empireID, emp.Credits, newCredits, newRemainder, now); err != nil {
			if err == store.ErrConflict {
				conflict = err
				continue
			}
			return AccrualResult{}, errServer(err, "persist accrual")
		}

		if increment > 0 {
			e.appendLedger(empireID, increment, ReasonIncome,
				fmt.Sprintf("passive income over %dms", elapsed), newCredits)
		}

		emp.Credits = newCredits
		emp.RemainderMs = newRemainder
		emp.LastUpdate = now
		return AccrualResult{Empire: emp, CreditsGained: increment, CreditsPerHour: rate}, nil
	}
	return AccrualResult{}, errServer(conflict, "accrual kept losing the balance race")
}

// incomeRate is the empire-wide credits/hour figure: the summed production
// capacity of every owned base, with elapsed actions settled first.
func (e *Engine) incomeRate(empireID int64) (int64, error) {
	bases, err := e.store.BasesByEmpire(empireID)
	if err != nil {
		return 0, errServer(err, "read bases")
	}
	var rate int64
	for _, b := range bases {
		if err := e.settle(empireID, b.Coord); err != nil {
			return 0, err
		}
		buildings, err := e.store.BuildingsAt(empireID, b.Coord)
		if err != nil {
			return 0, errServer(err, "read buildings")
		}
		rate += e.capacitiesOf(buildings).ProductionPerHour
	}
	return rate, nil
}
