// Package repositories contains the PostgreSQL data access layer.
// Repositories return (nil, nil) when a row is not found; callers map
// that to not-found errors at the service layer.
package repositories

import "strconv"

// itoa shortens placeholder numbering in dynamically built queries.
func itoa(n int) string {
	return strconv.Itoa(n)
}
