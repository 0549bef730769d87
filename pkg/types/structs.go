package types

// --- Player & Territory ---

type Empire struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Credits     int64          `json:"credits"`
	RemainderMs int64          `json:"remainder_ms"` // sub-credit carry, [0, 3_600_000)
	LastUpdate  int64          `json:"last_update"`  // unix ms of last accrual
	TechLevels  map[string]int `json:"tech_levels"`
}

type Base struct {
	Coord      string `json:"coord"` // "x:y"
	EmpireID   int64  `json:"empire_id"`
	Name       string `json:"name"`
	Area       int64  `json:"area"`        // total buildable area
	Population int64  `json:"population"`  // total workforce
	SiteEnergy int64  `json:"site_energy"` // yield from the site itself (solar/gas)
}

// Building is one instance of a catalog structure at a base. Several instances
// of the same key may exist at one base; their levels sum for capacity and
// energy purposes.
type Building struct {
	ID             int64  `json:"id"`
	EmpireID       int64  `json:"empire_id"`
	BaseCoord      string `json:"base_coord"`
	Key            string `json:"key"`
	Level          int    `json:"level"`
	IsActive       bool   `json:"is_active"`
	PendingUpgrade bool   `json:"pending_upgrade"`
	ChargedCost    int64  `json:"charged_cost"`
	StartedAt      int64  `json:"started_at"`   // unix ms, 0 = unset
	CompletesAt    int64  `json:"completes_at"` // unix ms, 0 = unset
}

// --- Action Queue ---

type ActionStatus string

const (
	StatusWaiting   ActionStatus = "waiting"
	StatusPending   ActionStatus = "pending"
	StatusCompleted ActionStatus = "completed"
	StatusCancelled ActionStatus = "cancelled"
)

// Terminal reports whether the action can never re-enter the queue.
func (s ActionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PendingAction struct {
	ID          string       `json:"id"`
	EmpireID    int64        `json:"empire_id"`
	BaseCoord   string       `json:"base_coord"`
	Key         string       `json:"key"`
	Kind        string       `json:"kind"`
	TargetLevel int          `json:"target_level"`
	Cost        int64        `json:"cost"`
	StartedAt   int64        `json:"started_at"`   // unix ms, 0 = not yet scheduled
	CompletesAt int64        `json:"completes_at"` // unix ms, 0 = not yet scheduled
	Status      ActionStatus `json:"status"`
}

// --- Financial Audit ---

type LedgerEntry struct {
	ID        int64  `json:"id"`
	EmpireID  int64  `json:"empire_id"`
	Amount    int64  `json:"amount"` // signed
	Reason    string `json:"reason"`
	Note      string `json:"note"`
	Balance   int64  `json:"balance"` // balance after the mutation
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

// --- Aggregates ---

type Capacities struct {
	ConstructionPerHour int64 `json:"construction_per_hour"`
	ProductionPerHour   int64 `json:"production_per_hour"`
	ResearchPerHour     int64 `json:"research_per_hour"`
}

type EnergyReport struct {
	Produced         int64 `json:"produced"`
	Consumed         int64 `json:"consumed"`
	Balance          int64 `json:"balance"`
	ReservedNegative int64 `json:"reserved_negative"` // <= 0
}

// Projected returns the balance the base would run at after an action adding
// candidateDelta, with the queued negative reservation already honoured. This
// exact sum, not Balance alone, is what gates new negative-energy actions.
func (e EnergyReport) Projected(candidateDelta int64) int64 {
	return e.Balance + e.ReservedNegative + candidateDelta
}
