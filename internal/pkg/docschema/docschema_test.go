package docschema

import (
	"testing"

	"github.com/dynoform/composer/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFieldConfig() map[string]any {
	return map[string]any{
		"schema_version": 1,
		"field": map[string]any{
			"field_key":    "email",
			"label":        "Email",
			"element_type": "TEXT",
			"data_type":    "TEXT",
		},
	}
}

func TestValidateFieldConfigMap(t *testing.T) {
	doc, err := ValidateFieldConfigMap(validFieldConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.SchemaVersion)
	assert.Equal(t, "email", doc.Field.FieldKey)
}

func TestValidateFieldConfigMapRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing schema version", func(m map[string]any) { delete(m, "schema_version") }},
		{"missing field key", func(m map[string]any) { delete(m["field"].(map[string]any), "field_key") }},
		{"missing label", func(m map[string]any) { delete(m["field"].(map[string]any), "label") }},
		{"bad element type", func(m map[string]any) { m["field"].(map[string]any)["element_type"] = "CHECKBOX" }},
		{"bad data type", func(m map[string]any) { m["field"].(map[string]any)["data_type"] = "FLOAT" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validFieldConfig()
			tc.mutate(m)
			_, err := ValidateFieldConfigMap(m)
			require.Error(t, err)
			assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
		})
	}
}

func TestValidateFieldConfigOptions(t *testing.T) {
	m := validFieldConfig()
	m["options"] = []any{
		map[string]any{"option_key": "y", "option_label": "Yes", "option_order": 0},
		map[string]any{"option_key": "n", "option_label": "No", "option_order": 1},
	}
	doc, err := ValidateFieldConfigMap(m)
	require.NoError(t, err)
	require.Len(t, doc.Options, 2)
	assert.Equal(t, "y", doc.Options[0].OptionKey)

	m["options"] = []any{map[string]any{"option_key": "y"}}
	_, err = ValidateFieldConfigMap(m)
	assert.Error(t, err)
}

func TestValidateOverridesMap(t *testing.T) {
	doc, err := ValidateOverridesMap(map[string]any{
		"schema_version": 1,
		"overrides": []any{
			map[string]any{
				"selector":     ".cp1.email",
				"field_config": map[string]any{"field": map[string]any{"label": "Work email"}},
			},
			map[string]any{
				"selector":     "p1.section",
				"panel_config": map[string]any{"panel_label": "Details"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, doc.Overrides, 2)
	assert.Equal(t, ".cp1.email", doc.Overrides[0].Selector)
	require.NotNil(t, doc.Overrides[1].PanelConfig)
	assert.Equal(t, "Details", *doc.Overrides[1].PanelConfig.PanelLabel)
}

func TestValidateOverridesMapRejects(t *testing.T) {
	cases := []struct {
		name string
		doc  map[string]any
	}{
		{
			"bad selector",
			map[string]any{
				"schema_version": 1,
				"overrides": []any{map[string]any{
					"selector":     "just-one-segment",
					"field_config": map[string]any{"field": map[string]any{"label": "x"}},
				}},
			},
		},
		{
			"entry without patch",
			map[string]any{
				"schema_version": 1,
				"overrides":      []any{map[string]any{"selector": "p1.f1"}},
			},
		},
		{
			"empty field patch",
			map[string]any{
				"schema_version": 1,
				"overrides": []any{map[string]any{
					"selector":     "p1.f1",
					"field_config": map[string]any{},
				}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateOverridesMap(tc.doc)
			require.Error(t, err)
			assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
		})
	}
}
