package query

import (
	"fmt"
	"sort"
	"strings"

	"sheetstore/internal/deepequal"
	"sheetstore/internal/qerror"
	"sheetstore/internal/where"
)

// Execute filters, orders, counts and paginates rows per opts.
//
// Pagination parameters and the WHERE tree are validated up front, before
// any row is examined. The input slice and its rows are never modified;
// result rows alias the input rows.
func Execute(rows []Row, opts Options) (*Result, error) {
	if err := validatePagination(opts); err != nil {
		return nil, err
	}

	var expr *where.Expression
	if opts.Where != "" {
		parsed, err := where.ParseLimits(opts.Where, opts.limits())
		if err != nil {
			return nil, err
		}
		expr = parsed
	}

	if max := opts.limits().MaxTextLen; len(opts.TextQuery) > max {
		return nil, qerror.New(qerror.CodeInvalidOperand, "query parameter exceeds %d bytes", max)
	}

	filtered := scan(rows, expr, opts.Index)

	if opts.TextQuery != "" {
		needle := strings.ToLower(opts.TextQuery)
		retained := filtered[:0:0]
		for _, row := range filtered {
			if rowContainsText(row, needle) {
				retained = append(retained, row)
			}
		}
		filtered = retained
	}

	if keys := parseOrder(opts.Order); len(keys) > 0 {
		sortRows(filtered, keys)
	}

	result := &Result{}
	total := len(filtered)
	if opts.Count {
		count := total
		result.Count = &count
	}

	if opts.Limit != nil {
		limit := *opts.Limit
		page := 1
		if opts.Page != nil {
			page = *opts.Page
		}
		start := (page - 1) * limit
		end := start + limit
		if start > total {
			start = total
		}
		if end > total {
			end = total
		}
		filtered = filtered[start:end]
		result.Pagination = &PageInfo{Page: page, Limit: limit, Total: total}
	}

	result.Results = filtered
	if result.Results == nil {
		result.Results = []Row{}
	}
	return result, nil
}

func validatePagination(opts Options) error {
	if opts.Limit != nil && *opts.Limit <= 0 {
		return qerror.New(qerror.CodeInvalidPagination, "invalid pagination parameter: limit must be a positive integer, got %d", *opts.Limit)
	}
	if opts.Page != nil {
		if *opts.Page <= 0 {
			return qerror.New(qerror.CodeInvalidPagination, "invalid pagination parameter: page must be a positive integer, got %d", *opts.Page)
		}
		if opts.Limit == nil {
			return qerror.New(qerror.CodeInvalidPagination, "invalid pagination parameter: page requires limit")
		}
	}
	return nil
}

// rowContainsText reports whether any string-valued field of the row
// contains needle (already lowercased).
func rowContainsText(row Row, needle string) bool {
	for _, v := range row {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// sortRows orders rows by the given keys, stable so that ties keep their
// input order. Rows missing a key's field sort after rows that have it,
// whichever direction is requested.
func sortRows(rows []Row, keys []orderKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			valA, okA := rows[i][key.field]
			valB, okB := rows[j][key.field]
			if !okA && !okB {
				continue
			}
			if !okA {
				return false
			}
			if !okB {
				return true
			}
			cmp := compareValues(valA, valB)
			if cmp != 0 {
				if key.desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
}

// compareValues orders two row values: numerically when both are numbers,
// lexicographically on their string forms otherwise.
func compareValues(a, b any) int {
	if numA, okA := deepequal.ToFloat64(a); okA {
		if numB, okB := deepequal.ToFloat64(b); okB {
			switch {
			case numA < numB:
				return -1
			case numA > numB:
				return 1
			default:
				return 0
			}
		}
	}
	strA := fmt.Sprintf("%v", a)
	strB := fmt.Sprintf("%v", b)
	return strings.Compare(strA, strB)
}
