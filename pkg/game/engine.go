// Package game is the core of the backend: lazy resource accrual, capacity
// aggregation, energy budgeting, action scheduling, read-time finalization and
// cancellation with refund, all request-scoped against a persistence port.
package game

import (
	"io"
	"log"
	"time"

	"starhold/pkg/catalog"
	"starhold/pkg/store"
	"starhold/pkg/types"
)

const msPerHour = 3_600_000

// Ledger reason codes.
const (
	ReasonIncome       = "income"
	ReasonConstruction = "construction"
	ReasonResearch     = "research"
	ReasonProduction   = "production"
	ReasonRefund       = "refund"
	ReasonOnboarding   = "onboarding"
)

// Engine is an explicitly constructed service: no package-level state, safe to
// run behind any number of concurrent instances because every timing decision
// is recomputed from stored timestamps.
type Engine struct {
	store   store.Port
	catalog *catalog.Registry
	info    *log.Logger
	errlog  *log.Logger
	now     func() time.Time
}

func New(p store.Port, reg *catalog.Registry, info, errlog *log.Logger) *Engine {
	if info == nil {
		info = log.New(io.Discard, "", 0)
	}
	if errlog == nil {
		errlog = log.New(io.Discard, "", 0)
	}
	return &Engine{store: p, catalog: reg, info: info, errlog: errlog, now: time.Now}
}

func (e *Engine) nowMs() int64 {
	return e.now().UnixMilli()
}

// buildingSpec resolves a building row's catalog entry; buildings hold both
// structure- and defense-kind instances.
func (e *Engine) buildingSpec(key string) (catalog.Spec, bool) {
	if s, ok := e.catalog.SpecFor(catalog.KindStructure, key); ok {
		return s, true
	}
	return e.catalog.SpecFor(catalog.KindDefense, key)
}

// effectiveLevel is the level a building contributes to rates and budgets:
// active instances count, instances with a scheduled upgrade keep counting at
// their current level, and an inactive instance whose completion time has
// passed counts without requiring a prior finalizing write.
func effectiveLevel(b types.Building, nowMs int64) int {
	if b.IsActive || b.PendingUpgrade {
		return b.Level
	}
	if b.CompletesAt > 0 && b.CompletesAt <= nowMs {
		return b.Level
	}
	return 0
}

// Onboard creates an empire with its home base and starter infrastructure.
func (e *Engine) Onboard(name, passwordHash, homeCoord string) (types.Empire, error) {
	const startingCredits = 1000
	now := e.nowMs()

	emp, err := e.store.CreateEmpire(name, passwordHash, startingCredits, now)
	if err == store.ErrDuplicate {
		return types.Empire{}, newError(CodeAlreadyInProgress, 409, "empire name %q is taken", name)
	}
	if err != nil {
		return types.Empire{}, errServer(err, "create empire")
	}

	base := types.Base{
		Coord: homeCoord, EmpireID: emp.ID, Name: name + " Prime",
		Area: 100, Population: 200, SiteEnergy: 30,
	}
	if err := e.store.CreateBase(base); err != nil {
		return types.Empire{}, errServer(err, "create home base")
	}

	starters := []struct {
		key   string
		level int
	}{
		{"solar_array", 2},
		{"construction_yard", 1},
		{"ore_refinery", 1},
	}
	for _, s := range starters {
		_, err := e.store.InsertBuilding(types.Building{
			EmpireID: emp.ID, BaseCoord: homeCoord, Key: s.key, Level: s.level, IsActive: true,
		})
		if err != nil {
			return types.Empire{}, errServer(err, "seed starter building %s", s.key)
		}
	}

	e.appendLedger(emp.ID, startingCredits, ReasonOnboarding, "starting grant", startingCredits)
	e.info.Printf("empire %d (%s) onboarded at %s", emp.ID, name, homeCoord)
	return emp, nil
}

// Login checks credentials and returns the empire id.
func (e *Engine) Login(name, passwordHash string) (int64, error) {
	id, err := e.store.EmpireIDByLogin(name, passwordHash)
	if err == store.ErrNotFound {
		return 0, errNotFound("unknown empire or bad credentials")
	}
	if err != nil {
		return 0, errServer(err, "login")
	}
	return id, nil
}

// ListActions returns the pending-action queue, optionally narrowed to a base
// and kind. Base-scoped listings settle elapsed actions first.
func (e *Engine) ListActions(empireID int64, coord, kind string) ([]types.PendingAction, error) {
	var (
		actions []types.PendingAction
		err     error
	)
	if coord != "" {
		if err := e.settle(empireID, coord); err != nil {
			return nil, err
		}
		actions, err = e.store.ActionsAt(empireID, coord)
	} else {
		actions, err = e.store.ActionsByEmpire(empireID)
	}
	if err != nil {
		return nil, errServer(err, "list actions")
	}
	if kind == "" {
		return actions, nil
	}
	out := actions[:0]
	for _, a := range actions {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}
