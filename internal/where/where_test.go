package where

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetstore/internal/qerror"
)

func mustParse(t *testing.T, text string) *Expression {
	t.Helper()
	expr, err := Parse(text)
	require.NoError(t, err)
	return expr
}

func TestParse_RejectsMalformedInput(t *testing.T) {
	cases := []string{
		``,
		`not json`,
		`[{"a":1}]`,
		`"just a string"`,
		`null`,
		`{"a":1} trailing`,
	}
	for _, input := range cases {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, qerror.HasCode(err, qerror.CodeInvalidWhere))
		assert.Contains(t, err.Error(), "Invalid WHERE")
	}
}

func TestParse_UnsupportedOperator(t *testing.T) {
	_, err := Parse(`{"score":{"$invalid":100}}`)
	require.Error(t, err)
	assert.True(t, qerror.HasCode(err, qerror.CodeUnsupportedOperator))
	assert.Contains(t, err.Error(), "$invalid")

	// Unknown $-key at the root is also an operator error.
	_, err = Parse(`{"$nor":[{"a":1}]}`)
	require.Error(t, err)
	assert.True(t, qerror.HasCode(err, qerror.CodeUnsupportedOperator))
	assert.Contains(t, err.Error(), "$nor")

	// Deep inside a combinator too: validation is eager over the whole tree.
	_, err = Parse(`{"$and":[{"a":1},{"b":{"$bogus":2}}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$bogus")

	// A plain key mixed into an operator object is not an operator.
	_, err = Parse(`{"score":{"$gte":1,"other":2}}`)
	require.Error(t, err)
	assert.True(t, qerror.HasCode(err, qerror.CodeUnsupportedOperator))
}

func TestParse_OperandTypeValidation(t *testing.T) {
	cases := []struct {
		name, input, wantMsg string
	}{
		{"$in non-array", `{"category":{"$in":"not-an-array"}}`, "expected array"},
		{"$nin non-array", `{"category":{"$nin":5}}`, "expected array"},
		{"$gt non-number", `{"score":{"$gt":"100"}}`, "expected number"},
		{"$gte non-number", `{"score":{"$gte":[1]}}`, "expected number"},
		{"$lt non-number", `{"score":{"$lt":true}}`, "expected number"},
		{"$lte non-number", `{"score":{"$lte":null}}`, "expected number"},
		{"$exists non-bool", `{"score":{"$exists":"yes"}}`, "expected boolean"},
		{"$regex non-string", `{"name":{"$regex":7}}`, "expected string"},
		{"$text non-string", `{"name":{"$text":7}}`, "expected string"},
		{"$and non-array", `{"$and":{"a":1}}`, "expected array"},
		{"$or non-array", `{"$or":"x"}`, "expected array"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.Error(t, err)
			assert.True(t, qerror.HasCode(err, qerror.CodeInvalidOperand))
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestParse_InvalidRegex(t *testing.T) {
	_, err := Parse(`{"name":{"$regex":"[unclosed"}}`)
	require.Error(t, err)
	assert.True(t, qerror.HasCode(err, qerror.CodeInvalidRegex))
	assert.Contains(t, err.Error(), "invalid regex")
}

func TestParse_RegexLengthBound(t *testing.T) {
	long := make([]byte, DefaultLimits.MaxRegexLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Parse(`{"name":{"$regex":"` + string(long) + `"}}`)
	require.Error(t, err)
	assert.True(t, qerror.HasCode(err, qerror.CodeInvalidRegex))
}

func TestParse_CombinatorClausesMustBeObjects(t *testing.T) {
	_, err := Parse(`{"$or":[{"a":1},42]}`)
	require.Error(t, err)
	assert.True(t, qerror.HasCode(err, qerror.CodeInvalidWhere))
}

func TestMatches_ImplicitEquality(t *testing.T) {
	row := map[string]any{
		"name":  "alice",
		"score": float64(150),
		"meta":  map[string]any{"a": float64(1), "b": []any{"x"}},
	}

	assert.True(t, mustParse(t, `{"name":"alice"}`).Matches(row))
	assert.False(t, mustParse(t, `{"name":"bob"}`).Matches(row))
	assert.True(t, mustParse(t, `{"score":150}`).Matches(row))
	assert.False(t, mustParse(t, `{"missing":null}`).Matches(row), "missing field never equals")

	// Equality on whole objects uses structural comparison.
	assert.True(t, mustParse(t, `{"meta":{"b":["x"],"a":1}}`).Matches(row))
	assert.False(t, mustParse(t, `{"meta":{"a":1}}`).Matches(row))

	// Multiple root fields combine with AND.
	assert.True(t, mustParse(t, `{"name":"alice","score":150}`).Matches(row))
	assert.False(t, mustParse(t, `{"name":"alice","score":151}`).Matches(row))
}

func TestMatches_ComparisonOperators(t *testing.T) {
	row := map[string]any{"score": float64(150), "label": "abc"}

	assert.True(t, mustParse(t, `{"score":{"$gte":100,"$lte":1000}}`).Matches(row))
	assert.False(t, mustParse(t, `{"score":{"$gt":100,"$lt":100}}`).Matches(row), "unsatisfiable range")
	assert.True(t, mustParse(t, `{"score":{"$gt":149.9}}`).Matches(row))
	assert.False(t, mustParse(t, `{"score":{"$gt":150}}`).Matches(row))
	assert.True(t, mustParse(t, `{"score":{"$gte":150}}`).Matches(row))
	assert.True(t, mustParse(t, `{"score":{"$lt":151}}`).Matches(row))
	assert.True(t, mustParse(t, `{"score":{"$lte":150}}`).Matches(row))

	// Non-numeric row value: condition is false, never an error.
	assert.False(t, mustParse(t, `{"label":{"$gt":1}}`).Matches(row))
	// Missing field: false.
	assert.False(t, mustParse(t, `{"absent":{"$gt":1}}`).Matches(row))
}

func TestMatches_NeInNin(t *testing.T) {
	row := map[string]any{"category": "books", "count": float64(3)}

	assert.True(t, mustParse(t, `{"category":{"$ne":"toys"}}`).Matches(row))
	assert.False(t, mustParse(t, `{"category":{"$ne":"books"}}`).Matches(row))
	assert.True(t, mustParse(t, `{"absent":{"$ne":"x"}}`).Matches(row), "$ne is true for missing fields")

	assert.True(t, mustParse(t, `{"category":{"$in":["books","toys"]}}`).Matches(row))
	assert.False(t, mustParse(t, `{"category":{"$in":["toys"]}}`).Matches(row))
	assert.True(t, mustParse(t, `{"count":{"$in":[1,2,3]}}`).Matches(row))
	assert.False(t, mustParse(t, `{"absent":{"$in":["x"]}}`).Matches(row))

	assert.False(t, mustParse(t, `{"category":{"$nin":["books"]}}`).Matches(row))
	assert.True(t, mustParse(t, `{"category":{"$nin":["toys"]}}`).Matches(row))
	assert.True(t, mustParse(t, `{"absent":{"$nin":["x"]}}`).Matches(row), "$nin is the negation of $in")
}

func TestMatches_Exists(t *testing.T) {
	row := map[string]any{"present": "", "null_field": nil}

	assert.True(t, mustParse(t, `{"present":{"$exists":true}}`).Matches(row), "empty value still exists")
	assert.True(t, mustParse(t, `{"null_field":{"$exists":true}}`).Matches(row), "explicit null still exists")
	assert.False(t, mustParse(t, `{"absent":{"$exists":true}}`).Matches(row))
	assert.True(t, mustParse(t, `{"absent":{"$exists":false}}`).Matches(row))
	assert.False(t, mustParse(t, `{"present":{"$exists":false}}`).Matches(row))
}

func TestMatches_Regex(t *testing.T) {
	row := map[string]any{"name": "Alice Smith", "score": float64(42)}

	assert.True(t, mustParse(t, `{"name":{"$regex":"^Alice"}}`).Matches(row))
	assert.False(t, mustParse(t, `{"name":{"$regex":"^Bob"}}`).Matches(row))
	assert.True(t, mustParse(t, `{"name":{"$regex":"(?i)smith$"}}`).Matches(row))
	assert.False(t, mustParse(t, `{"score":{"$regex":"42"}}`).Matches(row), "non-string values never match $regex")
	assert.False(t, mustParse(t, `{"absent":{"$regex":"x"}}`).Matches(row))
}

func TestMatches_Text(t *testing.T) {
	row := map[string]any{"title": "The Go Programming Language", "pages": float64(380)}

	assert.True(t, mustParse(t, `{"title":{"$text":"go program"}}`).Matches(row), "case-insensitive substring")
	assert.True(t, mustParse(t, `{"title":{"$text":"LANGUAGE"}}`).Matches(row))
	assert.False(t, mustParse(t, `{"title":{"$text":"rust"}}`).Matches(row))
	assert.True(t, mustParse(t, `{"pages":{"$text":"38"}}`).Matches(row), "numbers match on their string form")
	assert.False(t, mustParse(t, `{"absent":{"$text":"x"}}`).Matches(row))
}

func TestMatches_Combinators(t *testing.T) {
	row := map[string]any{"a": float64(1), "b": float64(2)}

	assert.True(t, mustParse(t, `{"$and":[{"a":1},{"b":2}]}`).Matches(row))
	assert.False(t, mustParse(t, `{"$and":[{"a":1},{"b":3}]}`).Matches(row))
	assert.True(t, mustParse(t, `{"$or":[{"a":5},{"b":2}]}`).Matches(row))
	assert.False(t, mustParse(t, `{"$or":[{"a":5},{"b":5}]}`).Matches(row))
	assert.False(t, mustParse(t, `{"$or":[]}`).Matches(row), "empty $or matches nothing")
	assert.True(t, mustParse(t, `{"$and":[]}`).Matches(row), "empty $and matches everything")

	// Nested combinators and a root field alongside a combinator.
	nested := `{"a":1,"$or":[{"b":{"$gt":5}},{"$and":[{"b":2},{"a":{"$lte":1}}]}]}`
	assert.True(t, mustParse(t, nested).Matches(row))
}

func TestMatches_NilExpressionAndEmptyTree(t *testing.T) {
	var expr *Expression
	assert.True(t, expr.Matches(map[string]any{"a": 1}))
	assert.True(t, mustParse(t, `{}`).Matches(map[string]any{"a": 1}))
}

func TestMatches_DoesNotMutateRow(t *testing.T) {
	row := map[string]any{"a": float64(1)}
	mustParse(t, `{"a":{"$gte":0},"b":{"$exists":false}}`).Matches(row)
	assert.Equal(t, map[string]any{"a": float64(1)}, row)
}

func TestPartition(t *testing.T) {
	expr := mustParse(t, `{"a":{"$gte":1},"b":"x","$or":[{"c":1}],"d":{"$regex":"^z"}}`)

	accepted, residual := expr.Partition(func(fc FieldCondition) bool {
		return fc.Field == "a" || fc.Field == "b"
	})
	require.Len(t, accepted, 2)

	fields := map[string]Operator{}
	for _, fc := range accepted {
		fields[fc.Field] = fc.Op
	}
	assert.Equal(t, OpGte, fields["a"])
	assert.Equal(t, OpEq, fields["b"])

	// Residual keeps the combinator and the regex condition.
	row := map[string]any{"a": float64(0), "b": "y", "c": float64(1), "d": "zebra"}
	assert.True(t, residual.Matches(row), "residual must not re-check accepted conditions")
	assert.False(t, residual.Matches(map[string]any{"c": float64(2), "d": "zebra"}))
}
