package docmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeObjects(t *testing.T) {
	target := map[string]any{
		"label": "Name",
		"ui_config": map[string]any{
			"width": float64(6),
			"hint":  "old",
		},
	}
	patch := map[string]any{
		"label": "Full name",
		"ui_config": map[string]any{
			"hint": "new",
		},
	}

	out := MergeDocuments(target, patch, DefaultOptions())

	assert.Equal(t, "Full name", out["label"])
	ui, ok := out["ui_config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(6), ui["width"])
	assert.Equal(t, "new", ui["hint"])

	// inputs untouched
	assert.Equal(t, "Name", target["label"])
	assert.Equal(t, "old", target["ui_config"].(map[string]any)["hint"])
}

func TestMergeNullRemoves(t *testing.T) {
	target := map[string]any{"a": "x", "b": "y"}
	patch := map[string]any{"b": nil}

	out := MergeDocuments(target, patch, DefaultOptions())
	assert.Equal(t, "x", out["a"])
	_, exists := out["b"]
	assert.False(t, exists)
}

func TestMergeNullKept(t *testing.T) {
	target := map[string]any{"a": "x"}
	patch := map[string]any{"a": nil}

	out := MergeDocuments(target, patch, Options{NullRemoves: false, Arrays: ArrayReplace})
	v, exists := out["a"]
	assert.True(t, exists)
	assert.Nil(t, v)
}

func TestMergeArrayModes(t *testing.T) {
	target := map[string]any{"options": []any{"a", "b"}}
	patch := map[string]any{"options": []any{"c"}}

	replaced := MergeDocuments(target, patch, Options{NullRemoves: true, Arrays: ArrayReplace})
	assert.Equal(t, []any{"c"}, replaced["options"])

	appended := MergeDocuments(target, patch, Options{NullRemoves: true, Arrays: ArrayAppend})
	assert.Equal(t, []any{"a", "b", "c"}, appended["options"])
}

func TestMergeScalarReplacesObject(t *testing.T) {
	target := map[string]any{"v": map[string]any{"deep": true}}
	patch := map[string]any{"v": "flat"}

	out := MergeDocuments(target, patch, DefaultOptions())
	assert.Equal(t, "flat", out["v"])
}

func TestMergeObjectReplacesScalar(t *testing.T) {
	out := Merge("flat", map[string]any{"deep": true}, DefaultOptions())
	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, m["deep"])
}

func TestMergeNilTarget(t *testing.T) {
	out := MergeDocuments(nil, map[string]any{"a": float64(1)}, DefaultOptions())
	assert.Equal(t, float64(1), out["a"])
}

func TestMergeIdempotent(t *testing.T) {
	target := map[string]any{
		"field": map[string]any{"label": "A", "drop": "me"},
	}
	patch := map[string]any{
		"field": map[string]any{"label": "B", "drop": nil},
	}

	once := MergeDocuments(target, patch, DefaultOptions())
	twice := MergeDocuments(once, patch, DefaultOptions())
	assert.Equal(t, once, twice)
}
