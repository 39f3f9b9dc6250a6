package canonhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1, "nested": map[string]any{"z": true, "y": false}}
	b := map[string]any{"nested": map[string]any{"y": false, "z": true}, "a": 1, "b": 2}

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.True(t, Valid(ha))
}

func TestHashDistinguishesContent(t *testing.T) {
	h1, err := Hash(map[string]any{"label": "Name"})
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"label": "Full name"})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCanonicalSortsKeys(t *testing.T) {
	b, err := Canonical(map[string]any{"z": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"z":1}`, string(b))
}

func TestHashBytes(t *testing.T) {
	h := HashBytes([]byte("manifest contents"))
	assert.True(t, Valid(h))
	assert.Equal(t, h, HashBytes([]byte("manifest contents")))
	assert.NotEqual(t, h, HashBytes([]byte("other contents")))
}

func TestValid(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("abc"))
	assert.False(t, Valid("G"+HashBytes([]byte("x"))[1:]))
	assert.True(t, Valid(HashBytes([]byte("x"))))
}
