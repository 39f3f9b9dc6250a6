// Package docschema validates the JSON configuration documents stored
// on placements and override carriers against their fixed schemas. It
// runs once at the service boundary, before persistence, independent of
// the storage engine.
package docschema

import (
	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/dynoform/composer/internal/pkg/apperr"
	"github.com/dynoform/composer/internal/pkg/selector"
)

var validate = validator.New()

// FieldConfigDoc is the imprinted, editable field definition snapshot
// held in a placement's field_config column.
type FieldConfigDoc struct {
	SchemaVersion int         `json:"schema_version" validate:"required,min=1"`
	Field         FieldDoc    `json:"field" validate:"required"`
	Options       []OptionDoc `json:"options,omitempty" validate:"omitempty,dive"`
}

// FieldDoc captures the user-visible attributes of a field definition.
type FieldDoc struct {
	FieldKey            string         `json:"field_key" validate:"required"`
	Label               string         `json:"label" validate:"required"`
	ElementType         string         `json:"element_type" validate:"required,oneof=TEXT TEXTAREA DATE DATETIME SELECT MULTISELECT ACTION"`
	FieldDefBusinessKey string         `json:"field_def_business_key,omitempty"`
	FieldDefVersion     int            `json:"field_def_version,omitempty" validate:"omitempty,min=1"`
	Name                string         `json:"name,omitempty"`
	Description         string         `json:"description,omitempty"`
	CategoryID          string         `json:"category_id,omitempty" validate:"omitempty,uuid"`
	DataType            string         `json:"data_type,omitempty" validate:"omitempty,oneof=TEXT NUMBER BOOLEAN DATE DATETIME SINGLESELECT MULTISELECT"`
	Validation          map[string]any `json:"validation,omitempty"`
	UIConfig            map[string]any `json:"ui_config,omitempty"`
}

type OptionDoc struct {
	OptionKey   string `json:"option_key" validate:"required"`
	OptionLabel string `json:"option_label" validate:"required"`
	OptionOrder int    `json:"option_order" validate:"min=0"`
}

// OverridesDoc is the nested_overrides carrier stored on component
// instances and form panels.
type OverridesDoc struct {
	SchemaVersion int             `json:"schema_version" validate:"required,min=1"`
	Overrides     []OverrideEntry `json:"overrides" validate:"required,dive"`
}

// OverrideEntry targets one node by selector. FieldConfig and
// PanelConfig are patches: their inner objects merge key-by-key, except
// Options which is a full-array replacement even inside a patch.
type OverrideEntry struct {
	Selector    string              `json:"selector" validate:"required"`
	FieldConfig *OverrideFieldPatch `json:"field_config,omitempty"`
	PanelConfig *OverridePanelPatch `json:"panel_config,omitempty"`
}

type OverrideFieldPatch struct {
	Field   map[string]any `json:"field,omitempty"`
	Options []OptionDoc    `json:"options,omitempty" validate:"omitempty,dive"`
}

type OverridePanelPatch struct {
	PanelLabel   *string        `json:"panel_label,omitempty"`
	UIConfig     map[string]any `json:"ui_config,omitempty"`
	PanelActions []any          `json:"panel_actions,omitempty"`
}

// DecodeFieldConfig parses and validates a raw field_config document.
func DecodeFieldConfig(raw []byte) (*FieldConfigDoc, error) {
	var doc FieldConfigDoc
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err, "field_config is not valid JSON")
	}
	if err := ValidateFieldConfig(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ValidateFieldConfig enforces the field-config document schema.
func ValidateFieldConfig(doc *FieldConfigDoc) error {
	if err := validate.Struct(doc); err != nil {
		return apperr.Wrap(apperr.CodeValidation, err, "field_config failed schema validation")
	}
	return nil
}

// ValidateFieldConfigMap validates an already-decoded document.
func ValidateFieldConfigMap(m map[string]any) (*FieldConfigDoc, error) {
	raw, err := sonic.Marshal(m)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err, "field_config is not serializable")
	}
	return DecodeFieldConfig(raw)
}

// DecodeOverrides parses and validates a nested_overrides document,
// including the selector grammar of every entry.
func DecodeOverrides(raw []byte) (*OverridesDoc, error) {
	var doc OverridesDoc
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err, "nested_overrides is not valid JSON")
	}
	if err := ValidateOverrides(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ValidateOverrides enforces the nested-overrides document schema.
func ValidateOverrides(doc *OverridesDoc) error {
	if err := validate.Struct(doc); err != nil {
		return apperr.Wrap(apperr.CodeValidation, err, "nested_overrides failed schema validation")
	}
	for i, entry := range doc.Overrides {
		if _, err := selector.Parse(entry.Selector); err != nil {
			return apperr.Wrap(apperr.CodeValidation, err, "overrides[%d]: bad selector %q", i, entry.Selector)
		}
		if entry.FieldConfig == nil && entry.PanelConfig == nil {
			return apperr.Validation("overrides[%d]: entry needs field_config or panel_config", i)
		}
		if entry.FieldConfig != nil && len(entry.FieldConfig.Field) == 0 && len(entry.FieldConfig.Options) == 0 {
			return apperr.Validation("overrides[%d]: field_config patch is empty", i)
		}
	}
	return nil
}

// ValidateOverridesMap validates an already-decoded document.
func ValidateOverridesMap(m map[string]any) (*OverridesDoc, error) {
	raw, err := sonic.Marshal(m)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err, "nested_overrides is not serializable")
	}
	return DecodeOverrides(raw)
}
