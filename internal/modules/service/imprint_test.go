package service

import (
	"testing"
	"time"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/pkg/canonhash"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func testFieldDef() *model.FieldDef {
	dt := model.DataSingleSelect
	return &model.FieldDef{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		BusinessKey: "contact.preference",
		Version:     2,
		Name:        "Contact preference",
		FieldKey:    "preference",
		Label:       "How should we contact you?",
		DataType:    &dt,
		ElementType: model.ElementSelect,
		Options: []model.FieldDefOption{
			{OptionKey: "phone", OptionLabel: "Phone", OptionOrder: 1},
			{OptionKey: "email", OptionLabel: "Email", OptionOrder: 0},
		},
	}
}

func TestBuildImprint(t *testing.T) {
	fd := testFieldDef()
	doc := BuildImprint(fd)

	assert.Equal(t, imprintSchemaVersion, doc["schema_version"])

	field, ok := doc["field"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "contact.preference", field["field_def_business_key"])
	assert.Equal(t, 2, field["field_def_version"])
	assert.Equal(t, "preference", field["field_key"])
	assert.Equal(t, string(model.ElementSelect), field["element_type"])
	assert.Nil(t, field["description"])
	assert.Nil(t, field["category_id"])

	// options sorted by option_order, not by declaration order
	options, ok := doc["options"].([]any)
	require.True(t, ok)
	require.Len(t, options, 2)
	assert.Equal(t, "email", options[0].(map[string]any)["option_key"])
	assert.Equal(t, "phone", options[1].(map[string]any)["option_key"])
}

func TestImprintHashIgnoresOptionLoadOrder(t *testing.T) {
	fd := testFieldDef()
	h1, err := ImprintHash(fd)
	require.NoError(t, err)

	fd.Options[0], fd.Options[1] = fd.Options[1], fd.Options[0]
	h2, err := ImprintHash(fd)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.True(t, canonhash.Valid(h1))
}

func TestNewImprintState(t *testing.T) {
	fd := testFieldDef()
	now := time.Now().UTC()

	st, err := NewImprintState(fd, now)
	require.NoError(t, err)

	assert.Equal(t, st.FieldConfigHash, st.SourceFieldDefHash)
	assert.Equal(t, now, st.ImprintedAt)

	h, err := canonhash.Hash(map[string]any(st.FieldConfig))
	require.NoError(t, err)
	assert.Equal(t, st.FieldConfigHash, h)
}

func TestCheckDriftFresh(t *testing.T) {
	fd := testFieldDef()
	st, err := NewImprintState(fd, time.Now())
	require.NoError(t, err)

	rep, err := CheckDrift(fd, st.FieldConfig, &st.FieldConfigHash, &st.SourceFieldDefHash)
	require.NoError(t, err)
	assert.False(t, rep.SourceDrifted)
	assert.False(t, rep.LocallyEdited)
}

func TestCheckDriftSourceChanged(t *testing.T) {
	fd := testFieldDef()
	st, err := NewImprintState(fd, time.Now())
	require.NoError(t, err)

	fd.Label = "Preferred channel"
	rep, err := CheckDrift(fd, st.FieldConfig, &st.FieldConfigHash, &st.SourceFieldDefHash)
	require.NoError(t, err)
	assert.True(t, rep.SourceDrifted)
	assert.False(t, rep.LocallyEdited)
	assert.NotEqual(t, rep.CurrentSourceHash, *rep.StoredSourceHash)
}

func TestCheckDriftLocalEdit(t *testing.T) {
	fd := testFieldDef()
	st, err := NewImprintState(fd, time.Now())
	require.NoError(t, err)

	// simulate a local edit: config replaced, config hash recomputed,
	// source hash untouched
	edited := datatypes.JSONMap(map[string]any{
		"schema_version": 1,
		"field":          map[string]any{"field_key": "preference", "label": "Channel", "element_type": "SELECT"},
	})
	editedHash, err := canonhash.Hash(map[string]any(edited))
	require.NoError(t, err)

	rep, err := CheckDrift(fd, edited, &editedHash, &st.SourceFieldDefHash)
	require.NoError(t, err)
	assert.False(t, rep.SourceDrifted)
	assert.True(t, rep.LocallyEdited)
	assert.Equal(t, editedHash, rep.ComputedConfigHash)
}

func TestCheckDriftNilHashes(t *testing.T) {
	fd := testFieldDef()
	st, err := NewImprintState(fd, time.Now())
	require.NoError(t, err)

	rep, err := CheckDrift(fd, st.FieldConfig, nil, nil)
	require.NoError(t, err)
	assert.True(t, rep.SourceDrifted)
	assert.True(t, rep.LocallyEdited)
}
