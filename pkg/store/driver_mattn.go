//go:build sqlite_mattn

package store

import _ "github.com/mattn/go-sqlite3"

// Cgo backend. Noticeably faster under write load, needs a C toolchain.
const driverName = "sqlite3"

func dsn(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}
