package query

import (
	"sheetstore/internal/deepequal"
	"sheetstore/internal/index"
	"sheetstore/internal/where"
)

// scan returns the rows matching expr, in input order, always in a freshly
// allocated slice so later sorting never reorders the caller's data. With
// an index it first intersects candidate positions for the root-level
// conditions the index can answer, then runs the residual filter over just
// those candidates.
func scan(rows []Row, expr *where.Expression, idx *index.Set) []Row {
	if expr == nil {
		out := make([]Row, len(rows))
		copy(out, rows)
		return out
	}

	if idx != nil {
		if positions, residual, ok := planIndexed(expr, idx); ok {
			out := make([]Row, 0, len(positions))
			for _, pos := range positions {
				if residual.Matches(rows[pos]) {
					out = append(out, rows[pos])
				}
			}
			return out
		}
	}

	out := make([]Row, 0)
	for _, row := range rows {
		if expr.Matches(row) {
			out = append(out, row)
		}
	}
	return out
}

// planIndexed splits expr into index-answerable conditions and a residual
// filter. It reports ok=false when nothing at the root is answerable, in
// which case the caller falls back to a full scan.
func planIndexed(expr *where.Expression, idx *index.Set) (positions []int, residual *where.Expression, ok bool) {
	accepted, residual := expr.Partition(func(fc where.FieldCondition) bool {
		if !idx.Has(fc.Field) {
			return false
		}
		switch fc.Op {
		case where.OpEq:
			if _, isNum := deepequal.ToFloat64(fc.Operand); isNum {
				return true
			}
			_, isStr := fc.Operand.(string)
			return isStr
		case where.OpGt, where.OpGte, where.OpLt, where.OpLte:
			return true
		}
		return false
	})
	if len(accepted) == 0 {
		return nil, nil, false
	}

	sets := make([][]int, 0, len(accepted))
	for _, fc := range accepted {
		var set []int
		var answered bool
		switch fc.Op {
		case where.OpEq:
			set, answered = idx.Lookup(fc.Field, fc.Operand)
		default:
			bound, _ := deepequal.ToFloat64(fc.Operand)
			switch fc.Op {
			case where.OpGt:
				set, answered = idx.Range(fc.Field, &bound, nil, false, false)
			case where.OpGte:
				set, answered = idx.Range(fc.Field, &bound, nil, true, false)
			case where.OpLt:
				set, answered = idx.Range(fc.Field, nil, &bound, false, false)
			case where.OpLte:
				set, answered = idx.Range(fc.Field, nil, &bound, false, true)
			}
		}
		if !answered {
			return nil, nil, false
		}
		sets = append(sets, set)
	}
	return index.Intersect(sets), residual, true
}
