package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/dynoform/composer/internal/pkg/apperr"
)

func TestSearchTextOf(t *testing.T) {
	got := searchTextOf(datatypes.JSON(`"Hello World"`))
	require.NotNil(t, got)
	assert.Equal(t, "hello world", *got)

	got = searchTextOf(datatypes.JSON(`["Alpha", 42, true]`))
	require.NotNil(t, got)
	assert.Equal(t, "alpha 42 true", *got)

	got = searchTextOf(datatypes.JSON(`{"note": "Mixed Case"}`))
	require.NotNil(t, got)
	assert.Equal(t, "mixed case", *got)
}

func TestSearchTextOfEmpty(t *testing.T) {
	assert.Nil(t, searchTextOf(nil))
	assert.Nil(t, searchTextOf(datatypes.JSON(`null`)))
	assert.Nil(t, searchTextOf(datatypes.JSON(`""`)))
	assert.Nil(t, searchTextOf(datatypes.JSON(`{}`)))
	assert.Nil(t, searchTextOf(datatypes.JSON(`not json`)))
}

func TestFlattenScalarsNested(t *testing.T) {
	var parts []string
	flattenScalars([]any{"a", []any{"b", float64(3)}, map[string]any{"k": "c"}}, &parts)
	assert.ElementsMatch(t, []string{"a", "b", "3", "c"}, parts)
}

func TestValidatePlacementRef(t *testing.T) {
	direct := uuid.New()
	inst := uuid.New()
	compField := uuid.New()

	cases := []struct {
		name string
		in   UpsertValueInput
		ok   bool
	}{
		{"direct", UpsertValueInput{FormPanelFieldID: &direct}, true},
		{"component pair", UpsertValueInput{FormPanelComponentID: &inst, ComponentPanelFieldID: &compField}, true},
		{"both kinds", UpsertValueInput{FormPanelFieldID: &direct, FormPanelComponentID: &inst, ComponentPanelFieldID: &compField}, false},
		{"neither", UpsertValueInput{}, false},
		{"instance without field", UpsertValueInput{FormPanelComponentID: &inst}, false},
		{"field without instance", UpsertValueInput{ComponentPanelFieldID: &compField}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePlacementRef(tc.in)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
			}
		})
	}
}
