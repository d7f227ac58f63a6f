// Package rowsource defines the row-oriented data source the query layer
// reads from, with an in-memory implementation and a SQLite-backed one. The
// production deployment fronts a spreadsheet; anything honoring the
// fetch/append/update contract plugs in the same way.
package rowsource

import (
	"context"
	"errors"
)

// ErrRowNotFound is returned by Update when no row carries the given id.
var ErrRowNotFound = errors.New("row not found")

// Source is a full-materialization row store. Fetch returns a snapshot the
// caller owns; later writes through the source never alias into it.
type Source interface {
	// Fetch returns every row of the table, in storage order.
	Fetch(ctx context.Context, table string) ([]map[string]any, error)
	// Append stores a new row and returns its id. A row without an "id"
	// field gets one assigned.
	Append(ctx context.Context, table string, row map[string]any) (string, error)
	// Update replaces the row with the given id.
	Update(ctx context.Context, table string, id string, row map[string]any) error
}
