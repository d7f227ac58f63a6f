// Package where parses and evaluates MongoDB-style filter trees.
//
// A filter arrives as a JSON object. Each key is either a field name bound
// to a bare value (implicit equality) or to an object of $-operators, or one
// of the combinators $and / $or bound to an array of sub-filters. The whole
// tree is validated eagerly at parse time: unknown operators, bad operand
// shapes and broken regex patterns are rejected before any row is touched,
// so evaluation itself can never fail. A type mismatch between an operator
// and a row's actual value just makes that condition false for that row.
package where

import (
	"regexp"
	"strings"

	"sheetstore/internal/deepequal"
	"sheetstore/internal/qerror"
	"sheetstore/internal/safejson"
)

// Operator is one of the fixed comparison, membership, pattern and
// combinator tags usable inside a filter tree.
type Operator string

const (
	OpEq     Operator = "$eq" // implicit: a bare value means equality
	OpNe     Operator = "$ne"
	OpGt     Operator = "$gt"
	OpGte    Operator = "$gte"
	OpLt     Operator = "$lt"
	OpLte    Operator = "$lte"
	OpIn     Operator = "$in"
	OpNin    Operator = "$nin"
	OpExists Operator = "$exists"
	OpRegex  Operator = "$regex"
	OpText   Operator = "$text"
	OpAnd    Operator = "$and"
	OpOr     Operator = "$or"
)

// IsValid reports whether op belongs to the field-level operator set.
// Combinators are not field-level operators.
func (op Operator) IsValid() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin, OpExists, OpRegex, OpText:
		return true
	}
	return false
}

// Limits bound user-supplied pattern and text operands. Go's regexp engine
// is linear-time, but an enormous pattern or needle is still an input
// validation failure, not something to hand to the matcher.
type Limits struct {
	MaxRegexLen int
	MaxTextLen  int
}

// DefaultLimits are used by Parse; callers with their own configuration use
// ParseLimits.
var DefaultLimits = Limits{MaxRegexLen: 1024, MaxTextLen: 512}

// Expression is a parsed, fully validated filter tree. The zero value is
// unusable; obtain one from Parse. A nil *Expression matches every row.
type Expression struct {
	conds []condition
}

type condition interface {
	matches(row map[string]any) bool
}

// fieldCond is one operator applied to one field.
type fieldCond struct {
	field   string
	op      Operator
	operand any
	re      *regexp.Regexp // compiled $regex operand
	needle  string         // lowercased $text operand
}

// boolCond is a $and / $or over sub-expressions.
type boolCond struct {
	op      Operator
	clauses []*Expression
}

// Parse validates and compiles a JSON filter tree using DefaultLimits.
func Parse(text string) (*Expression, error) {
	return ParseLimits(text, DefaultLimits)
}

// ParseLimits is Parse with explicit operand bounds.
func ParseLimits(text string, limits Limits) (*Expression, error) {
	tree := safejson.ParseObject(text)
	if tree == nil {
		return nil, qerror.New(qerror.CodeInvalidWhere, "Invalid WHERE clause: must be a JSON object")
	}
	return parseTree(tree, limits)
}

// FromMap compiles an already-decoded filter tree. Numbers inside the tree
// may be any Go numeric kind.
func FromMap(tree map[string]any, limits Limits) (*Expression, error) {
	return parseTree(tree, limits)
}

func parseTree(tree map[string]any, limits Limits) (*Expression, error) {
	expr := &Expression{}
	for key, value := range tree {
		switch {
		case key == string(OpAnd) || key == string(OpOr):
			cond, err := parseCombinator(Operator(key), value, limits)
			if err != nil {
				return nil, err
			}
			expr.conds = append(expr.conds, cond)
		case strings.HasPrefix(key, "$"):
			return nil, qerror.New(qerror.CodeUnsupportedOperator, "invalid operator %q", key)
		default:
			conds, err := parseFieldConditions(key, value, limits)
			if err != nil {
				return nil, err
			}
			expr.conds = append(expr.conds, conds...)
		}
	}
	return expr, nil
}

func parseCombinator(op Operator, value any, limits Limits) (condition, error) {
	clauses, ok := value.([]any)
	if !ok {
		return nil, qerror.New(qerror.CodeInvalidOperand, "operator %q: expected array of clauses", op)
	}
	cond := &boolCond{op: op}
	for _, clause := range clauses {
		sub, ok := clause.(map[string]any)
		if !ok {
			return nil, qerror.New(qerror.CodeInvalidWhere, "Invalid WHERE clause: %q clauses must be objects", op)
		}
		subExpr, err := parseTree(sub, limits)
		if err != nil {
			return nil, err
		}
		cond.clauses = append(cond.clauses, subExpr)
	}
	return cond, nil
}

// parseFieldConditions handles one `field: value` entry. A bare value is
// implicit equality; an object whose keys are $-operators expands into one
// condition per operator (they combine with AND). An object with no
// $-prefixed key at all is an equality match against the whole object.
func parseFieldConditions(field string, value any, limits Limits) ([]condition, error) {
	opMap, isMap := value.(map[string]any)
	if !isMap || !hasOperatorKey(opMap) {
		return []condition{&fieldCond{field: field, op: OpEq, operand: value}}, nil
	}

	conds := make([]condition, 0, len(opMap))
	for key, operand := range opMap {
		op := Operator(key)
		if !op.IsValid() {
			return nil, qerror.New(qerror.CodeUnsupportedOperator, "invalid operator %q", key)
		}
		cond, err := newFieldCond(field, op, operand, limits)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func hasOperatorKey(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// newFieldCond validates the operand shape for op and compiles whatever can
// be compiled ahead of evaluation.
func newFieldCond(field string, op Operator, operand any, limits Limits) (*fieldCond, error) {
	cond := &fieldCond{field: field, op: op, operand: operand}

	switch op {
	case OpGt, OpGte, OpLt, OpLte:
		if _, ok := deepequal.ToFloat64(operand); !ok {
			return nil, qerror.New(qerror.CodeInvalidOperand, "operator %q on field %q: expected number", op, field)
		}
	case OpIn, OpNin:
		if _, ok := operand.([]any); !ok {
			return nil, qerror.New(qerror.CodeInvalidOperand, "operator %q on field %q: expected array", op, field)
		}
	case OpExists:
		if _, ok := operand.(bool); !ok {
			return nil, qerror.New(qerror.CodeInvalidOperand, "operator %q on field %q: expected boolean", op, field)
		}
	case OpRegex:
		pattern, ok := operand.(string)
		if !ok {
			return nil, qerror.New(qerror.CodeInvalidOperand, "operator %q on field %q: expected string pattern", op, field)
		}
		if len(pattern) > limits.MaxRegexLen {
			return nil, qerror.New(qerror.CodeInvalidRegex, "invalid regex on field %q: pattern exceeds %d bytes", field, limits.MaxRegexLen)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, qerror.Wrap(qerror.CodeInvalidRegex, err, "invalid regex on field %q", field)
		}
		cond.re = re
	case OpText:
		needle, ok := operand.(string)
		if !ok {
			return nil, qerror.New(qerror.CodeInvalidOperand, "operator %q on field %q: expected string", op, field)
		}
		if len(needle) > limits.MaxTextLen {
			return nil, qerror.New(qerror.CodeInvalidOperand, "operator %q on field %q: operand exceeds %d bytes", op, field, limits.MaxTextLen)
		}
		cond.needle = strings.ToLower(needle)
	}
	return cond, nil
}

// Matches evaluates the expression against a row. Root-level conditions
// combine with AND. The row is never mutated.
func (e *Expression) Matches(row map[string]any) bool {
	if e == nil {
		return true
	}
	for _, cond := range e.conds {
		if !cond.matches(row) {
			return false
		}
	}
	return true
}

func (c *boolCond) matches(row map[string]any) bool {
	if c.op == OpAnd {
		for _, clause := range c.clauses {
			if !clause.Matches(row) {
				return false
			}
		}
		return true
	}
	for _, clause := range c.clauses {
		if clause.Matches(row) {
			return true
		}
	}
	return false
}

// evalFuncs maps each field-level operator to its evaluation function. The
// operator set is closed after parsing, so lookup can never miss.
var evalFuncs = map[Operator]func(c *fieldCond, v any, present bool) bool{
	OpEq:     evalEq,
	OpNe:     func(c *fieldCond, v any, present bool) bool { return !evalEq(c, v, present) },
	OpGt:     evalNumeric,
	OpGte:    evalNumeric,
	OpLt:     evalNumeric,
	OpLte:    evalNumeric,
	OpIn:     evalIn,
	OpNin:    func(c *fieldCond, v any, present bool) bool { return !evalIn(c, v, present) },
	OpExists: evalExists,
	OpRegex:  evalRegex,
	OpText:   evalText,
}

func (c *fieldCond) matches(row map[string]any) bool {
	v, present := row[c.field]
	return evalFuncs[c.op](c, v, present)
}

func evalEq(c *fieldCond, v any, present bool) bool {
	return present && deepequal.Equal(v, c.operand)
}

func evalNumeric(c *fieldCond, v any, present bool) bool {
	if !present {
		return false
	}
	rowNum, ok := deepequal.ToFloat64(v)
	if !ok {
		// Non-numeric row value: the condition is unsatisfied, not an error.
		return false
	}
	operandNum, _ := deepequal.ToFloat64(c.operand)
	switch c.op {
	case OpGt:
		return rowNum > operandNum
	case OpGte:
		return rowNum >= operandNum
	case OpLt:
		return rowNum < operandNum
	default:
		return rowNum <= operandNum
	}
}

func evalIn(c *fieldCond, v any, present bool) bool {
	if !present {
		return false
	}
	for _, candidate := range c.operand.([]any) {
		if deepequal.Equal(v, candidate) {
			return true
		}
	}
	return false
}

func evalExists(c *fieldCond, v any, present bool) bool {
	return present == c.operand.(bool)
}

func evalRegex(c *fieldCond, v any, present bool) bool {
	if !present {
		return false
	}
	s, ok := v.(string)
	return ok && c.re.MatchString(s)
}

func evalText(c *fieldCond, v any, present bool) bool {
	if !present {
		return false
	}
	s, ok := deepequal.ToString(v)
	return ok && strings.Contains(strings.ToLower(s), c.needle)
}
