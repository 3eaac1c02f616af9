//go:build !cgo

package sqlite

// CGOEnabled is false in builds without cgo. go-sqlite3 cannot open a
// database there, so the store falls back to the JSON file store.
const CGOEnabled = false
