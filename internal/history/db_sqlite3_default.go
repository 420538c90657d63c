//go:build !sqlite3_cgo

package history

// Pure-Go wasm sqlite, the default so cross-compiled builds need no cgo.

import (
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const driverID = "ncruces/go-sqlite3"
const driverName = "sqlite3"
