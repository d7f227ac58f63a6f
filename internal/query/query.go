// Package query runs client queries over a materialized row snapshot:
// WHERE filtering, free-text search, multi-key ordering, counting and
// 1-indexed pagination.
package query

import (
	"strings"

	"sheetstore/internal/index"
	"sheetstore/internal/where"
)

// Row is one record of the externally stored table.
type Row = map[string]any

// Options carries the query parameters understood by Execute. Zero values
// mean "not requested".
type Options struct {
	// Where is the raw JSON filter tree from the `where` parameter.
	Where string
	// TextQuery retains rows where any string field contains the value,
	// case-insensitively (the `query` parameter).
	TextQuery string
	// Order is a comma-separated `field[:desc]` list.
	Order string
	// Limit and Page select a contiguous slice of the filtered, sorted
	// set. Page is 1-indexed and requires Limit.
	Limit *int
	Page  *int
	// Count requests the total number of matching rows before pagination.
	Count bool
	// Limits bounds user-supplied pattern/text operands; the zero value
	// falls back to where.DefaultLimits.
	Limits where.Limits
	// Index optionally narrows the scan to candidate rows before the
	// residual filter runs. Results are identical with or without it.
	Index *index.Set
}

func (o Options) limits() where.Limits {
	if o.Limits == (where.Limits{}) {
		return where.DefaultLimits
	}
	return o.Limits
}

// PageInfo describes the slice a paginated result was taken from. Total is
// the size of the whole filtered set, not the page.
type PageInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Result is the outcome of one query.
type Result struct {
	Results    []Row     `json:"results"`
	Count      *int      `json:"count,omitempty"`
	Pagination *PageInfo `json:"pagination,omitempty"`
}

// orderKey is one parsed entry of the `order` parameter.
type orderKey struct {
	field string
	desc  bool
}

// parseOrder reads a comma-separated `field[:desc]` list. Empty segments
// are skipped; any direction other than "desc" sorts ascending.
func parseOrder(spec string) []orderKey {
	var keys []orderKey
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, direction, found := strings.Cut(part, ":")
		if field == "" {
			continue
		}
		keys = append(keys, orderKey{
			field: field,
			desc:  found && strings.EqualFold(direction, "desc"),
		})
	}
	return keys
}
