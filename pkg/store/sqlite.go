package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"starhold/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS system_meta (key TEXT PRIMARY KEY, value TEXT);

CREATE TABLE IF NOT EXISTS empires (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE,
	password_hash TEXT,
	credits INTEGER DEFAULT 0,
	remainder_ms INTEGER DEFAULT 0,
	last_update INTEGER DEFAULT 0,
	tech_levels_json TEXT DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS bases (
	coord TEXT PRIMARY KEY,
	empire_id INTEGER,
	name TEXT,
	area INTEGER DEFAULT 100,
	population INTEGER DEFAULT 200,
	site_energy INTEGER DEFAULT 30
);

CREATE TABLE IF NOT EXISTS buildings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	empire_id INTEGER,
	base_coord TEXT,
	key TEXT,
	level INTEGER DEFAULT 0,
	is_active BOOLEAN DEFAULT 0,
	pending_upgrade BOOLEAN DEFAULT 0,
	charged_cost INTEGER DEFAULT 0,
	started_at INTEGER DEFAULT 0,
	completes_at INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS actions (
	id TEXT PRIMARY KEY,
	empire_id INTEGER,
	base_coord TEXT,
	key TEXT,
	kind TEXT,
	target_level INTEGER,
	cost INTEGER DEFAULT 0,
	started_at INTEGER DEFAULT 0,
	completes_at INTEGER DEFAULT 0,
	status TEXT
);

-- The uniqueness rule lives here, not in application locks: a losing
-- concurrent writer hits this index and gets ErrDuplicate.
CREATE UNIQUE INDEX IF NOT EXISTS idx_actions_open
	ON actions(empire_id, base_coord, key)
	WHERE status IN ('waiting','pending');

-- Research is single-slot per base regardless of key.
CREATE UNIQUE INDEX IF NOT EXISTS idx_actions_research
	ON actions(empire_id, base_coord)
	WHERE status IN ('waiting','pending') AND kind='technology';

CREATE TABLE IF NOT EXISTS ledger (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	empire_id INTEGER,
	amount INTEGER,
	reason TEXT,
	note TEXT,
	balance INTEGER,
	prev_hash TEXT,
	hash TEXT,
	ts INTEGER
);

CREATE TABLE IF NOT EXISTS snapshots (
	day_id INTEGER PRIMARY KEY,
	state_blob BLOB,
	final_hash TEXT
);
`

// SQLite implements Port on either sqlite driver (see driver_*.go).
type SQLite struct {
	db *sql.DB
}

func Open(path string) (*SQLite, error) {
	src := path
	if path != ":memory:" {
		src = dsn(path)
	}
	db, err := sql.Open(driverName, src)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// One connection, or the pool hands out separate empty databases.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// DB exposes the raw handle for ops surfaces (snapshots, console seeding).
func (s *SQLite) DB() *sql.DB { return s.db }

// --- Empires ---

func (s *SQLite) CreateEmpire(name, passwordHash string, credits, now int64) (types.Empire, error) {
	res, err := s.db.Exec(
		`INSERT INTO empires (name, password_hash, credits, remainder_ms, last_update, tech_levels_json)
		 VALUES (?,?,?,0,?, '{}')`, name, passwordHash, credits, now)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Empire{}, ErrDuplicate
		}
		return types.Empire{}, err
	}
	id, _ := res.LastInsertId()
	return types.Empire{ID: id, Name: name, Credits: credits, LastUpdate: now, TechLevels: map[string]int{}}, nil
}

func (s *SQLite) GetEmpire(id int64) (types.Empire, error) {
	var e types.Empire
	var techJSON string
	err := s.db.QueryRow(
		`SELECT id, name, credits, remainder_ms, last_update, tech_levels_json FROM empires WHERE id=?`, id).
		Scan(&e.ID, &e.Name, &e.Credits, &e.RemainderMs, &e.LastUpdate, &techJSON)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	e.TechLevels = map[string]int{}
	json.Unmarshal([]byte(techJSON), &e.TechLevels)
	return e, nil
}

func (s *SQLite) EmpireIDByLogin(name, passwordHash string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM empires WHERE name=? AND password_hash=?`, name, passwordHash).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

func (s *SQLite) UpdateEmpireAccrual(id, expectCredits, newCredits, remainderMs, lastUpdate int64) error {
	res, err := s.db.Exec(
		`UPDATE empires SET credits=?, remainder_ms=?, last_update=? WHERE id=? AND credits=?`,
		newCredits, remainderMs, lastUpdate, id, expectCredits)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (s *SQLite) AdjustCredits(id, expectCredits, newCredits int64) error {
	res, err := s.db.Exec(
		`UPDATE empires SET credits=? WHERE id=? AND credits=?`, newCredits, id, expectCredits)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (s *SQLite) SetTechLevel(id int64, key string, level int) error {
	e, err := s.GetEmpire(id)
	if err != nil {
		return err
	}
	e.TechLevels[key] = level
	raw, _ := json.Marshal(e.TechLevels)
	_, err = s.db.Exec(`UPDATE empires SET tech_levels_json=? WHERE id=?`, string(raw), id)
	return err
}

// --- Bases ---

func (s *SQLite) CreateBase(b types.Base) error {
	_, err := s.db.Exec(
		`INSERT INTO bases (coord, empire_id, name, area, population, site_energy) VALUES (?,?,?,?,?,?)`,
		b.Coord, b.EmpireID, b.Name, b.Area, b.Population, b.SiteEnergy)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLite) GetBase(coord string) (types.Base, error) {
	var b types.Base
	err := s.db.QueryRow(
		`SELECT coord, empire_id, name, area, population, site_energy FROM bases WHERE coord=?`, coord).
		Scan(&b.Coord, &b.EmpireID, &b.Name, &b.Area, &b.Population, &b.SiteEnergy)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	return b, err
}

func (s *SQLite) BasesByEmpire(id int64) ([]types.Base, error) {
	rows, err := s.db.Query(
		`SELECT coord, empire_id, name, area, population, site_energy FROM bases WHERE empire_id=? ORDER BY coord`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Base
	for rows.Next() {
		var b types.Base
		if err := rows.Scan(&b.Coord, &b.EmpireID, &b.Name, &b.Area, &b.Population, &b.SiteEnergy); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Buildings ---

func (s *SQLite) InsertBuilding(b types.Building) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO buildings (empire_id, base_coord, key, level, is_active, pending_upgrade, charged_cost, started_at, completes_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		b.EmpireID, b.BaseCoord, b.Key, b.Level, b.IsActive, b.PendingUpgrade, b.ChargedCost, b.StartedAt, b.CompletesAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLite) UpdateBuilding(b types.Building) error {
	res, err := s.db.Exec(
		`UPDATE buildings SET level=?, is_active=?, pending_upgrade=?, charged_cost=?, started_at=?, completes_at=?
		 WHERE id=?`,
		b.Level, b.IsActive, b.PendingUpgrade, b.ChargedCost, b.StartedAt, b.CompletesAt, b.ID)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (s *SQLite) BuildingsAt(empireID int64, coord string) ([]types.Building, error) {
	rows, err := s.db.Query(
		`SELECT id, empire_id, base_coord, key, level, is_active, pending_upgrade, charged_cost, started_at, completes_at
		 FROM buildings WHERE empire_id=? AND base_coord=? ORDER BY id`, empireID, coord)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Building
	for rows.Next() {
		var b types.Building
		if err := rows.Scan(&b.ID, &b.EmpireID, &b.BaseCoord, &b.Key, &b.Level,
			&b.IsActive, &b.PendingUpgrade, &b.ChargedCost, &b.StartedAt, &b.CompletesAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLite) DeleteBuilding(id int64) error {
	_, err := s.db.Exec(`DELETE FROM buildings WHERE id=?`, id)
	return err
}

// --- Pending actions ---

func (s *SQLite) InsertAction(a types.PendingAction) error {
	_, err := s.db.Exec(
		`INSERT INTO actions (id, empire_id, base_coord, key, kind, target_level, cost, started_at, completes_at, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.EmpireID, a.BaseCoord, a.Key, a.Kind, a.TargetLevel, a.Cost, a.StartedAt, a.CompletesAt, a.Status)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SQLite) UpdateAction(a types.PendingAction) error {
	res, err := s.db.Exec(
		`UPDATE actions SET target_level=?, cost=?, started_at=?, completes_at=?, status=? WHERE id=?`,
		a.TargetLevel, a.Cost, a.StartedAt, a.CompletesAt, a.Status, a.ID)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (s *SQLite) DeleteAction(id string) error {
	_, err := s.db.Exec(`DELETE FROM actions WHERE id=?`, id)
	return err
}

func (s *SQLite) GetAction(id string) (types.PendingAction, error) {
	var a types.PendingAction
	err := s.db.QueryRow(
		`SELECT id, empire_id, base_coord, key, kind, target_level, cost, started_at, completes_at, status
		 FROM actions WHERE id=?`, id).
		Scan(&a.ID, &a.EmpireID, &a.BaseCoord, &a.Key, &a.Kind, &a.TargetLevel, &a.Cost, &a.StartedAt, &a.CompletesAt, &a.Status)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

func (s *SQLite) ActionsAt(empireID int64, coord string) ([]types.PendingAction, error) {
	return s.queryActions(
		`SELECT id, empire_id, base_coord, key, kind, target_level, cost, started_at, completes_at, status
		 FROM actions WHERE empire_id=? AND base_coord=? ORDER BY completes_at, id`, empireID, coord)
}

func (s *SQLite) ActionsByEmpire(empireID int64) ([]types.PendingAction, error) {
	return s.queryActions(
		`SELECT id, empire_id, base_coord, key, kind, target_level, cost, started_at, completes_at, status
		 FROM actions WHERE empire_id=? ORDER BY completes_at, id`, empireID)
}

func (s *SQLite) queryActions(q string, args ...interface{}) ([]types.PendingAction, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.PendingAction
	for rows.Next() {
		var a types.PendingAction
		if err := rows.Scan(&a.ID, &a.EmpireID, &a.BaseCoord, &a.Key, &a.Kind, &a.TargetLevel,
			&a.Cost, &a.StartedAt, &a.CompletesAt, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Ledger ---

func (s *SQLite) AppendLedger(e types.LedgerEntry) (types.LedgerEntry, error) {
	res, err := s.db.Exec(
		`INSERT INTO ledger (empire_id, amount, reason, note, balance, prev_hash, hash, ts)
		 VALUES (?,?,?,?,?,?,?,?)`,
		e.EmpireID, e.Amount, e.Reason, e.Note, e.Balance, e.PrevHash, e.Hash, e.Timestamp)
	if err != nil {
		return e, err
	}
	e.ID, _ = res.LastInsertId()
	return e, nil
}

func (s *SQLite) LastLedgerHash(empireID int64) (string, error) {
	var hash string
	err := s.db.QueryRow(
		`SELECT hash FROM ledger WHERE empire_id=? ORDER BY id DESC LIMIT 1`, empireID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

func (s *SQLite) LedgerHistory(empireID int64, limit int) ([]types.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, empire_id, amount, reason, note, balance, prev_hash, hash, ts
		 FROM ledger WHERE empire_id=? ORDER BY id DESC LIMIT ?`, empireID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.LedgerEntry
	for rows.Next() {
		var e types.LedgerEntry
		if err := rows.Scan(&e.ID, &e.EmpireID, &e.Amount, &e.Reason, &e.Note, &e.Balance,
			&e.PrevHash, &e.Hash, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Snapshots ---

func (s *SQLite) SaveSnapshot(dayID int64, blob []byte, hash string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO snapshots (day_id, state_blob, final_hash) VALUES (?,?,?)`, dayID, blob, hash)
	return err
}

func (s *SQLite) LastSnapshotHash() (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT final_hash FROM snapshots ORDER BY day_id DESC LIMIT 1`).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// --- Helpers ---

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Both drivers phrase constraint errors with this substring; matching on it
// keeps the adapter free of driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
