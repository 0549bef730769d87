package main

import "os"

type serverConfig struct {
	Addr        string
	DBPath      string
	CatalogPath string // optional YAML overlay
	LogDir      string
}

func loadConfig() serverConfig {
	cfg := serverConfig{
		Addr:   ":8080",
		DBPath: "./data/starhold.db",
		LogDir: "./logs",
	}
	if v := os.Getenv("STARHOLD_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("STARHOLD_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("STARHOLD_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("STARHOLD_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	return cfg
}
