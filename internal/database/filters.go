package database

import "errors"

// ErrNotFound is returned when a fetch or mutation targets a nonexistent id.
// Both store backends map their driver sentinels to this error.
var ErrNotFound = errors.New("database: record not found")

// PropertyFilters holds the optional criteria for the property list query.
// Zero-value fields impose no constraint. Price bounds are inclusive.
type PropertyFilters struct {
	Type      string
	Operation string
	MinPrice  *float64
	MaxPrice  *float64
}
