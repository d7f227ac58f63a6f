package safejson

import (
	stdjson "encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject_ValidObject(t *testing.T) {
	got := ParseObject(`{"name":"alice","score":150,"tags":["a","b"]}`)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got["name"])
	assert.Equal(t, float64(150), got["score"])
	assert.Equal(t, []any{"a", "b"}, got["tags"])
}

func TestParseObject_RejectsNonObjects(t *testing.T) {
	cases := map[string]string{
		"empty string":     "",
		"array":            `[1,2,3]`,
		"string primitive": `"hello"`,
		"number primitive": `42`,
		"boolean":          `true`,
		"null literal":     `null`,
		"malformed":        `{"a":`,
		"trailing garbage": `{"a":1} [2]`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, ParseObject(input))
			assert.False(t, IsObject(input))
		})
	}
}

func TestParseObject_ProtoKeyIsPlainData(t *testing.T) {
	got := ParseObject(`{"__proto__":{"x":1}}`)
	require.NotNil(t, got)
	assert.Equal(t, map[string]any{"x": float64(1)}, got["__proto__"])

	// A fresh map is unaffected by having parsed the payload above.
	fresh := ParseObject(`{}`)
	require.NotNil(t, fresh)
	_, polluted := fresh["x"]
	assert.False(t, polluted)
}

func TestParseObject_NormalizesNestedNumbers(t *testing.T) {
	got := ParseObject(`{"a":{"b":[1,2.5,{"c":3}]}}`)
	require.NotNil(t, got)
	inner := got["a"].(map[string]any)
	list := inner["b"].([]any)
	assert.Equal(t, float64(1), list[0])
	assert.Equal(t, 2.5, list[1])
	assert.Equal(t, float64(3), list[2].(map[string]any)["c"])
}

func TestNormalize_DecoderNumberKind(t *testing.T) {
	// UseNumber decoding yields json.Number from the standard library, not
	// a jsoniter-specific kind; Normalize must rewrite exactly that type.
	assert.Equal(t, float64(150), Normalize(stdjson.Number("150")))
	assert.Equal(t, 2.5, Normalize(stdjson.Number("2.5")))
	assert.Equal(t,
		map[string]any{"n": float64(3)},
		Normalize(map[string]any{"n": stdjson.Number("3")}))
}

func TestParseObject_LargeAdversarialInput(t *testing.T) {
	// A long repeated-character string must parse in linear time; this
	// mostly guards against someone swapping in a backtracking scanner.
	long := `{"s":"` + strings.Repeat("a", 1<<20) + `"}`
	got := ParseObject(long)
	require.NotNil(t, got)
	assert.Len(t, got["s"], 1<<20)
}

func TestIsObject(t *testing.T) {
	assert.True(t, IsObject(`{"type":"string"}`))
	assert.False(t, IsObject(`string`))
}
