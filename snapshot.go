package main

import (
	"encoding/json"
	"net/http"
	"time"

	"starhold/pkg/core"
	"starhold/pkg/types"
)

// snapshotState is the dumpable slice of the world: balances and buildings.
// Pending actions are reconstructible from the ledger and the queue tables,
// so they stay out of the blob.
type snapshotState struct {
	TakenAt   int64            `json:"taken_at"`
	Empires   []types.Empire   `json:"empires"`
	Buildings []types.Building `json:"buildings"`
}

// handleSnapshot dumps the world, compresses it and chains it onto the
// previous snapshot hash. An ops endpoint, never a background timer; the core
// stays request-scoped.
func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	state := snapshotState{TakenAt: time.Now().UnixMilli()}
	db := s.store.DB()

	rows, err := db.Query(`SELECT id, name, credits, remainder_ms, last_update FROM empires ORDER BY id`)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for rows.Next() {
		var e types.Empire
		if err := rows.Scan(&e.ID, &e.Name, &e.Credits, &e.RemainderMs, &e.LastUpdate); err != nil {
			rows.Close()
			s.writeError(w, err)
			return
		}
		state.Empires = append(state.Empires, e)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, empire_id, base_coord, key, level, is_active, pending_upgrade FROM buildings ORDER BY id`)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for rows.Next() {
		var b types.Building
		if err := rows.Scan(&b.ID, &b.EmpireID, &b.BaseCoord, &b.Key, &b.Level, &b.IsActive, &b.PendingUpgrade); err != nil {
			rows.Close()
			s.writeError(w, err)
			return
		}
		state.Buildings = append(state.Buildings, b)
	}
	rows.Close()

	raw, _ := json.Marshal(state)
	blob := core.Compress(raw)

	prev, err := s.store.LastSnapshotHash()
	if err != nil {
		s.writeError(w, err)
		return
	}
	finalHash := core.ChainHash(prev, blob)

	dayID := time.Now().Unix() / 86400
	if err := s.store.SaveSnapshot(dayID, blob, finalHash); err != nil {
		s.writeError(w, err)
		return
	}

	s.info.Printf("snapshot day %d: %d empires, %d buildings, %d bytes, hash %s",
		dayID, len(state.Empires), len(state.Buildings), len(blob), finalHash[:12])
	s.writeJSON(w, map[string]interface{}{"day_id": dayID, "size": len(blob), "hash": finalHash})
}
