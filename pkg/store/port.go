// Package store defines the persistence port the game engine runs against,
// plus the SQLite adapter. The core logic is written once against the Port
// interface; backends differ only in driver wiring (see driver_*.go).
package store

import (
	"errors"

	"starhold/pkg/types"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict means a conditional update targeted a stale balance.
	ErrConflict = errors.New("store: conditional update conflict")
	// ErrDuplicate means a non-terminal action already exists for the slot.
	ErrDuplicate = errors.New("store: duplicate open action")
)

// Port is the storage contract the engine consumes. Implementations must make
// InsertAction enforce at-most-one non-terminal action per slot, and must make
// the conditional credit updates atomic with respect to concurrent writers.
type Port interface {
	// Empires
	CreateEmpire(name, passwordHash string, credits, now int64) (types.Empire, error)
	GetEmpire(id int64) (types.Empire, error)
	EmpireIDByLogin(name, passwordHash string) (int64, error)
	// UpdateEmpireAccrual applies a full accrual result, conditional on the
	// previously read balance. Returns ErrConflict when the balance moved.
	UpdateEmpireAccrual(id, expectCredits, newCredits, remainderMs, lastUpdate int64) error
	// AdjustCredits writes a new balance, conditional on the old one.
	AdjustCredits(id, expectCredits, newCredits int64) error
	SetTechLevel(id int64, key string, level int) error

	// Bases
	CreateBase(b types.Base) error
	GetBase(coord string) (types.Base, error)
	BasesByEmpire(id int64) ([]types.Base, error)

	// Buildings
	InsertBuilding(b types.Building) (int64, error)
	UpdateBuilding(b types.Building) error
	BuildingsAt(empireID int64, coord string) ([]types.Building, error)
	DeleteBuilding(id int64) error

	// Pending actions
	InsertAction(a types.PendingAction) error
	UpdateAction(a types.PendingAction) error
	DeleteAction(id string) error
	GetAction(id string) (types.PendingAction, error)
	ActionsAt(empireID int64, coord string) ([]types.PendingAction, error)
	ActionsByEmpire(empireID int64) ([]types.PendingAction, error)

	// Ledger (append-only)
	AppendLedger(e types.LedgerEntry) (types.LedgerEntry, error)
	LastLedgerHash(empireID int64) (string, error)
	LedgerHistory(empireID int64, limit int) ([]types.LedgerEntry, error)
}
