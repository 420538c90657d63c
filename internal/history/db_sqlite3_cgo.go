//go:build cgo && sqlite3_cgo

package history

// Opt-in cgo driver for hosts where the wasm runtime is unwanted.

import (
	_ "github.com/mattn/go-sqlite3"
)

const driverID = "mattn/go-sqlite3"
const driverName = "sqlite3"
