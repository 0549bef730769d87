//go:build !sqlite_mattn

package store

import _ "modernc.org/sqlite"

// Pure-Go backend, the default. Swap in the cgo driver with -tags sqlite_mattn.
const driverName = "sqlite"

func dsn(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
