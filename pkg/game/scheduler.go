package game

import (
	"fmt"

	"github.com/google/uuid"

	"starhold/pkg/catalog"
	"starhold/pkg/store"
	"starhold/pkg/types"
)

// StartResult is returned to the caller on a successful schedule.
type StartResult struct {
	ActionID    string `json:"action_id"`
	Cost        int64  `json:"cost"`
	EtaSeconds  int64  `json:"eta_seconds"`
	CompletesAt int64  `json:"completes_at"`
}

// StartAction validates and schedules a costed, timed action. Validation
// short-circuits on the first failure, in a fixed order: ownership, duplicate
// slot, capacity, cost, credits, energy, area, population, prerequisites.
// The pending action is persisted before the debit; a debit failure is logged
// and never rolled back, favoring "action exists, refund later" over an action
// vanishing after the player already saw success.
func (e *Engine) StartAction(empireID int64, coord, key string, kind catalog.Kind) (StartResult, error) {
	base, err := e.ownedBase(empireID, coord)
	if err != nil {
		return StartResult{}, err
	}
	if err := e.settle(empireID, coord); err != nil {
		return StartResult{}, err
	}

	spec, ok := e.catalog.SpecFor(kind, key)
	if !ok {
		return StartResult{}, errNotFound("no %s named %s in the catalog", kind, key)
	}

	// Settle income before the credit check; the balance only moves on read.
	accrued, err := e.Accrue(empireID)
	if err != nil {
		return StartResult{}, err
	}
	emp := accrued.Empire

	actions, err := e.store.ActionsAt(empireID, coord)
	if err != nil {
		return StartResult{}, errServer(err, "read actions")
	}
	for _, a := range actions {
		if a.Status.Terminal() {
			continue
		}
		if a.Key == key || (kind == catalog.KindTechnology && a.Kind == string(catalog.KindTechnology)) {
			return StartResult{}, errAlreadyInProgress(a.Key)
		}
	}

	buildings, err := e.store.BuildingsAt(empireID, coord)
	if err != nil {
		return StartResult{}, errServer(err, "read buildings")
	}

	rate := e.rateFor(kind, e.capacitiesOf(buildings))
	if rate <= 0 {
		return StartResult{}, errNoCapacity(string(kind))
	}

	currentLevel := e.currentLevel(kind, key, emp, buildings)
	nextLevel := currentLevel + 1

	cost, err := e.catalog.CostForLevel(kind, key, nextLevel)
	if err != nil {
		return StartResult{}, errNoCostDefined(key, nextLevel)
	}

	if emp.Credits < cost {
		return StartResult{}, errInsufficientResources(cost, emp.Credits)
	}

	if spec.EnergyDelta < 0 {
		report := e.energyOf(buildings, base.SiteEnergy)
		report.ReservedNegative = e.queuedNegativeDelta(actions)
		projected := report.Projected(spec.EnergyDelta)
		if projected < 0 {
			return StartResult{}, errInsufficientEnergy(report.Produced, report.Consumed,
				report.Balance, report.ReservedNegative, spec.EnergyDelta, projected)
		}
	}

	if spec.Area > 0 {
		free := base.Area - e.usedBudget(buildings, budgetArea)
		if spec.Area > free {
			return StartResult{}, errInsufficientBudget(CodeInsufficientArea, spec.Area, free)
		}
	}
	if spec.Population > 0 {
		free := base.Population - e.usedBudget(buildings, budgetPopulation)
		if spec.Population > free {
			return StartResult{}, errInsufficientBudget(CodeInsufficientPopulation, spec.Population, free)
		}
	}

	for _, prereq := range spec.Prereqs {
		if e.aggregateLevel(buildings, prereq) < 1 {
			return StartResult{}, errPrereqMissing(key, prereq)
		}
	}

	// Units pass the full validation pipeline but have no execution path yet;
	// failing typed here beats silently succeeding.
	if kind == catalog.KindUnit {
		return StartResult{}, errNotImplemented(string(kind))
	}

	etaSeconds := (cost*3600 + rate - 1) / rate // ceil(cost/rate hours)
	if etaSeconds < 1 {
		etaSeconds = 1
	}
	now := e.nowMs()
	completesAt := now + etaSeconds*1000

	action := types.PendingAction{
		ID:          uuid.NewString(),
		EmpireID:    empireID,
		BaseCoord:   coord,
		Key:         key,
		Kind:        string(kind),
		TargetLevel: nextLevel,
		Cost:        cost,
		StartedAt:   now,
		CompletesAt: completesAt,
		Status:      types.StatusPending,
	}
	if err := e.store.InsertAction(action); err != nil {
		if err == store.ErrDuplicate {
			// A concurrent writer won the slot; the storage index is the
			// arbiter, not an application lock.
			return StartResult{}, errAlreadyInProgress(key)
		}
		return StartResult{}, errServer(err, "persist action")
	}

	if kind == catalog.KindStructure || kind == catalog.KindDefense {
		if err := e.stageBuilding(empireID, coord, key, cost, now, completesAt, buildings); err != nil {
			return StartResult{}, err
		}
	}

	e.debit(empireID, emp.Credits, cost, reasonFor(kind),
		fmt.Sprintf("%s %s level %d", kind, key, nextLevel))

	e.info.Printf("scheduled %s %s level %d at %s for empire %d (eta %ds)",
		kind, key, nextLevel, coord, empireID, etaSeconds)
	return StartResult{ActionID: action.ID, Cost: cost, EtaSeconds: etaSeconds, CompletesAt: completesAt}, nil
}

// stageBuilding records the scheduled work on the building rows: an existing
// active instance is flagged pendingUpgrade, otherwise a new inactive level-1
// instance is staged for first-time construction.
func (e *Engine) stageBuilding(empireID int64, coord, key string, cost, now, completesAt int64, buildings []types.Building) error {
	for _, b := range buildings {
		if b.Key != key || !b.IsActive || b.PendingUpgrade {
			continue
		}
		b.PendingUpgrade = true
		b.ChargedCost = cost
		b.StartedAt = now
		b.CompletesAt = completesAt
		if err := e.store.UpdateBuilding(b); err != nil {
			return errServer(err, "flag upgrade on %s", key)
		}
		return nil
	}
	_, err := e.store.InsertBuilding(types.Building{
		EmpireID: empireID, BaseCoord: coord, Key: key, Level: 1,
		ChargedCost: cost, StartedAt: now, CompletesAt: completesAt,
	})
	if err != nil {
		return errServer(err, "stage construction of %s", key)
	}
	return nil
}

// debit applies a conditional balance mutation with a bounded retry against
// concurrent accrual, then mirrors it to the ledger. Per the documented
// trade-off a debit that still fails after the action was persisted is logged,
// not rolled back.
func (e *Engine) debit(empireID, expectCredits, cost int64, reason, note string) {
	credits := expectCredits
	for attempt := 0; attempt < accrualRetries; attempt++ {
		err := e.store.AdjustCredits(empireID, credits, credits-cost)
		if err == nil {
			e.appendLedger(empireID, -cost, reason, note, credits-cost)
			return
		}
		if err != store.ErrConflict {
			e.errlog.Printf("INCONSISTENT: action persisted but debit of %d failed for empire %d: %v", cost, empireID, err)
			return
		}
		emp, rerr := e.store.GetEmpire(empireID)
		if rerr != nil {
			e.errlog.Printf("INCONSISTENT: action persisted, debit retry read failed for empire %d: %v", empireID, rerr)
			return
		}
		if emp.Credits < cost {
			// Never drive the balance negative, even to resolve the race.
			e.errlog.Printf("INCONSISTENT: action persisted but empire %d can no longer cover %d credits", empireID, cost)
			return
		}
		credits = emp.Credits
	}
	e.errlog.Printf("INCONSISTENT: action persisted but debit of %d kept losing the race for empire %d", cost, empireID)
}

func (e *Engine) rateFor(kind catalog.Kind, caps types.Capacities) int64 {
	switch kind {
	case catalog.KindTechnology:
		return caps.ResearchPerHour
	case catalog.KindUnit:
		return caps.ProductionPerHour
	default:
		return caps.ConstructionPerHour
	}
}

func (e *Engine) currentLevel(kind catalog.Kind, key string, emp types.Empire, buildings []types.Building) int {
	if kind == catalog.KindTechnology {
		return emp.TechLevels[key]
	}
	return e.aggregateLevel(buildings, key)
}

func reasonFor(kind catalog.Kind) string {
	switch kind {
	case catalog.KindTechnology:
		return ReasonResearch
	case catalog.KindUnit:
		return ReasonProduction
	default:
		return ReasonConstruction
	}
}

type budgetKind int

const (
	budgetArea budgetKind = iota
	budgetPopulation
)

// usedBudget sums the area or population a base's buildings occupy, counting
// scheduled upgrades and staged constructions as already spent so a queued
// action cannot be double-booked against the same free budget.
func (e *Engine) usedBudget(buildings []types.Building, kind budgetKind) int64 {
	now := e.nowMs()
	var used int64
	for _, b := range buildings {
		lvl := effectiveLevel(b, now)
		if b.PendingUpgrade {
			lvl++ // upgrade target already holds its slot
		}
		if lvl == 0 && b.CompletesAt > 0 {
			lvl = b.Level // staged first-time construction
		}
		if lvl == 0 {
			continue
		}
		spec, ok := e.buildingSpec(b.Key)
		if !ok {
			continue
		}
		switch kind {
		case budgetArea:
			used += int64(lvl) * spec.Area
		case budgetPopulation:
			used += int64(lvl) * spec.Population
		}
	}
	return used
}
