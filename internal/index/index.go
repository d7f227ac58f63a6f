// Package index maintains per-field B-Tree indexes over a materialized row
// slice, answering equality and numeric-range lookups with row positions.
// The query planner intersects those positions before running the residual
// filter, so an indexed query never scans rows the index already excluded.
package index

import (
	"sort"

	"github.com/google/btree"

	"sheetstore/internal/deepequal"
)

const btreeDegree = 32

// numericKey holds one indexed numeric value and the positions of the rows
// carrying it.
type numericKey struct {
	value float64
	rows  map[int]struct{}
}

// stringKey is the string-tree counterpart of numericKey.
type stringKey struct {
	value string
	rows  map[int]struct{}
}

func numericLess(a, b numericKey) bool { return a.value < b.value }
func stringLess(a, b stringKey) bool   { return a.value < b.value }

// fieldIndex keeps one tree per supported value kind. A field holding mixed
// kinds across rows is indexed in both trees.
type fieldIndex struct {
	numericTree *btree.BTreeG[numericKey]
	stringTree  *btree.BTreeG[stringKey]
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{
		numericTree: btree.NewG(btreeDegree, numericLess),
		stringTree:  btree.NewG(btreeDegree, stringLess),
	}
}

func (fi *fieldIndex) add(pos int, value any) {
	if num, ok := deepequal.ToFloat64(value); ok {
		key := numericKey{value: num}
		if existing, found := fi.numericTree.Get(key); found {
			existing.rows[pos] = struct{}{}
			return
		}
		key.rows = map[int]struct{}{pos: {}}
		fi.numericTree.ReplaceOrInsert(key)
		return
	}
	if s, ok := value.(string); ok {
		key := stringKey{value: s}
		if existing, found := fi.stringTree.Get(key); found {
			existing.rows[pos] = struct{}{}
			return
		}
		key.rows = map[int]struct{}{pos: {}}
		fi.stringTree.ReplaceOrInsert(key)
	}
	// Other kinds (bool, null, containers) are not indexed; conditions on
	// them stay in the residual filter.
}

// Set indexes a snapshot of rows on the chosen fields. It answers lookups
// with positions into the original slice. A Set is immutable after Build
// and safe for concurrent readers.
type Set struct {
	fields map[string]*fieldIndex
}

// Build indexes rows on the given fields. Rows missing a field simply do
// not appear in that field's trees.
func Build(rows []map[string]any, fields ...string) *Set {
	s := &Set{fields: make(map[string]*fieldIndex, len(fields))}
	for _, field := range fields {
		s.fields[field] = newFieldIndex()
	}
	for pos, row := range rows {
		for _, field := range fields {
			if v, ok := row[field]; ok {
				s.fields[field].add(pos, v)
			}
		}
	}
	return s
}

// Has reports whether field is indexed.
func (s *Set) Has(field string) bool {
	if s == nil {
		return false
	}
	_, ok := s.fields[field]
	return ok
}

// Lookup returns positions of rows whose field equals value. The second
// return is false when the index cannot answer for this value kind (bool,
// null, containers) and the caller must fall back to scanning.
func (s *Set) Lookup(field string, value any) ([]int, bool) {
	fi, ok := s.fields[field]
	if !ok {
		return nil, false
	}
	if num, isNum := deepequal.ToFloat64(value); isNum {
		key, found := fi.numericTree.Get(numericKey{value: num})
		if !found {
			return []int{}, true
		}
		return sortedPositions(key.rows), true
	}
	if str, isStr := value.(string); isStr {
		key, found := fi.stringTree.Get(stringKey{value: str})
		if !found {
			return []int{}, true
		}
		return sortedPositions(key.rows), true
	}
	return nil, false
}

// Range returns positions of rows whose numeric field value lies within the
// given bounds. A nil bound is open on that side.
func (s *Set) Range(field string, min, max *float64, minIncl, maxIncl bool) ([]int, bool) {
	fi, ok := s.fields[field]
	if !ok {
		return nil, false
	}

	collected := make(map[int]struct{})
	iter := func(key numericKey) bool {
		if min != nil {
			if key.value < *min || (!minIncl && key.value == *min) {
				return true
			}
		}
		if max != nil {
			if key.value > *max || (!maxIncl && key.value == *max) {
				return false
			}
		}
		for pos := range key.rows {
			collected[pos] = struct{}{}
		}
		return true
	}

	if min != nil {
		fi.numericTree.AscendGreaterOrEqual(numericKey{value: *min}, iter)
	} else {
		fi.numericTree.Ascend(iter)
	}
	return sortedPositions(collected), true
}

func sortedPositions(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for pos := range set {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// Intersect returns the positions common to all sets, sorted ascending.
func Intersect(sets [][]int) []int {
	if len(sets) == 0 {
		return []int{}
	}
	current := make(map[int]struct{}, len(sets[0]))
	for _, pos := range sets[0] {
		current[pos] = struct{}{}
	}
	for _, set := range sets[1:] {
		next := make(map[int]struct{})
		for _, pos := range set {
			if _, found := current[pos]; found {
				next[pos] = struct{}{}
			}
		}
		current = next
	}
	return sortedPositions(current)
}
