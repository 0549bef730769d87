package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"

	"starhold/pkg/catalog"
	"starhold/pkg/core"
	"starhold/pkg/game"
	"starhold/pkg/store"
)

// server wires the engine to the HTTP surface. Handlers stay thin: parse,
// call the engine, serialize.
type server struct {
	engine *game.Engine
	store  *store.SQLite
	info   *log.Logger
	errlog *log.Logger
}

func (s *server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	if ge, ok := game.AsError(err); ok {
		if ge.Code == game.CodeServerError {
			s.errlog.Printf("request failed: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(ge.Status)
		json.NewEncoder(w).Encode(ge)
		return
	}
	s.errlog.Printf("request failed: %v", err)
	http.Error(w, "Server Error", http.StatusInternalServerError)
}

// empireID reads the caller identity the session layer injected. Session
// management proper lives outside this service.
func empireID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-Empire-ID"), 10, 64)
	return id, err == nil && id > 0
}

func (s *server) requireEmpire(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := empireID(r)
	if !ok {
		http.Error(w, "Missing X-Empire-ID", http.StatusUnauthorized)
	}
	return id, ok
}

// --- Account glue ---

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct{ Name, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}
	coord := fmt.Sprintf("%d:%d", rand.Intn(1000), rand.Intn(1000))
	emp, err := s.engine.Onboard(req.Name, core.Hash([]byte(req.Password)), coord)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"empire_id": emp.ID, "home_base": coord})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct{ Name, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}
	id, err := s.engine.Login(req.Name, core.Hash([]byte(req.Password)))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]int64{"empire_id": id})
}

// --- Core surface ---

func (s *server) handleAccrue(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireEmpire(w, r)
	if !ok {
		return
	}
	res, err := s.engine.Accrue(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, res)
}

func (s *server) handleCapacities(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireEmpire(w, r)
	if !ok {
		return
	}
	caps, err := s.engine.Capacities(id, r.URL.Query().Get("coord"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, caps)
}

func (s *server) handleEnergy(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireEmpire(w, r)
	if !ok {
		return
	}
	report, err := s.engine.EnergyBalance(id, r.URL.Query().Get("coord"), true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := map[string]interface{}{
		"produced":          report.Produced,
		"consumed":          report.Consumed,
		"balance":           report.Balance,
		"reserved_negative": report.ReservedNegative,
	}
	if raw := r.URL.Query().Get("candidate_delta"); raw != "" {
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Bad candidate_delta", http.StatusBadRequest)
			return
		}
		resp["projected"] = report.Projected(delta)
	}
	s.writeJSON(w, resp)
}

func (s *server) handleActions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireEmpire(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	actions, err := s.engine.ListActions(id, q.Get("coord"), q.Get("kind"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, actions)
}

func (s *server) handleStartAction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireEmpire(w, r)
	if !ok {
		return
	}
	var req struct {
		Coord string `json:"coord"`
		Key   string `json:"key"`
		Kind  string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}
	res, err := s.engine.StartAction(id, req.Coord, req.Key, catalog.Kind(req.Kind))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, res)
}

func (s *server) handleCancelAction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireEmpire(w, r)
	if !ok {
		return
	}
	var req struct {
		Coord    string `json:"coord"`
		ActionID string `json:"action_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}
	res, err := s.engine.CancelAction(id, req.Coord, req.ActionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, res)
}

func (s *server) handleLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireEmpire(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.engine.LedgerHistory(id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, entries)
}
