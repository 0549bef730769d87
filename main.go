package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"starhold/pkg/catalog"
	"starhold/pkg/game"
	"starhold/pkg/store"
)

func main() {
	cfg := loadConfig()
	info, errlog := setupLogging(cfg.LogDir)

	info.Println("STARHOLD BOOT SEQUENCE")

	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		errlog.Fatal(err)
	}
	defer st.Close()

	reg := catalog.Default()
	if cfg.CatalogPath != "" {
		reg, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			errlog.Fatal(err)
		}
		info.Printf("catalog overlay loaded from %s", cfg.CatalogPath)
	}

	engine := game.New(st, reg, info, errlog)
	srv := &server{engine: engine, store: st, info: info, errlog: errlog}
	started := time.Now()

	mux := http.NewServeMux()

	// Account glue
	mux.HandleFunc("/api/register", srv.handleRegister)
	mux.HandleFunc("/api/login", srv.handleLogin)

	// Core surface
	mux.HandleFunc("/api/accrue", srv.handleAccrue)
	mux.HandleFunc("/api/capacities", srv.handleCapacities)
	mux.HandleFunc("/api/energy", srv.handleEnergy)
	mux.HandleFunc("/api/actions", srv.handleActions)
	mux.HandleFunc("/api/actions/start", srv.handleStartAction)
	mux.HandleFunc("/api/actions/cancel", srv.handleCancelAction)
	mux.HandleFunc("/api/ledger", srv.handleLedger)

	// Ops
	mux.HandleFunc("/api/snapshot", srv.handleSnapshot)
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"uptime_s": int64(time.Since(started).Seconds()),
			"catalog":  len(reg.Keys(catalog.KindStructure)),
		})
	})

	handler := middlewareRateLimit(newLimiterPool(), mux)
	handler = middlewareCORS(handler)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	info.Printf("Listening on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil {
		errlog.Fatal(err)
	}
}
