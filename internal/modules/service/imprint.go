package service

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/pkg/canonhash"
)

const imprintSchemaVersion = 1

// BuildImprint produces the field_config snapshot for a placement from
// its catalog field definition. The snapshot is self-contained: a
// renderer never needs to join back to the field_def row. Options are
// emitted in option_order so the canonical hash is stable regardless
// of load order.
func BuildImprint(fd *model.FieldDef) map[string]any {
	field := map[string]any{
		"field_def_business_key": fd.BusinessKey,
		"field_def_version":      fd.Version,
		"name":                   fd.Name,
		"description":            strOrNil(fd.Description),
		"field_key":              fd.FieldKey,
		"label":                  fd.Label,
		"category_id":            idOrNil(fd.CategoryID),
		"data_type":              dataTypeOrNil(fd.DataType),
		"element_type":           string(fd.ElementType),
		"validation":             mapOrNil(fd.Validation),
		"ui_config":              mapOrNil(fd.UIConfig),
	}

	opts := make([]model.FieldDefOption, len(fd.Options))
	copy(opts, fd.Options)
	sort.Slice(opts, func(i, j int) bool { return opts[i].OptionOrder < opts[j].OptionOrder })

	options := make([]any, 0, len(opts))
	for _, o := range opts {
		options = append(options, map[string]any{
			"option_key":   o.OptionKey,
			"option_label": o.OptionLabel,
			"option_order": o.OptionOrder,
		})
	}

	return map[string]any{
		"schema_version": imprintSchemaVersion,
		"field":          field,
		"options":        options,
	}
}

// ImprintHash is the canonical content hash of a field definition's
// imprint snapshot. Stored on placements as source_field_def_hash.
func ImprintHash(fd *model.FieldDef) (string, error) {
	h, err := canonhash.Hash(BuildImprint(fd))
	if err != nil {
		return "", fmt.Errorf("hash imprint of field def %s: %w", fd.ID, err)
	}
	return h, nil
}

// ImprintState carries the three persisted values a fresh imprint (or
// reset) writes onto a placement.
type ImprintState struct {
	FieldConfig        datatypes.JSONMap
	FieldConfigHash    string
	SourceFieldDefHash string
	ImprintedAt        time.Time
}

// NewImprintState snapshots fd for writing onto a placement. After a
// fresh imprint the config hash and the source hash are identical;
// they diverge only through local edits or catalog drift.
func NewImprintState(fd *model.FieldDef, now time.Time) (ImprintState, error) {
	doc := BuildImprint(fd)
	h, err := canonhash.Hash(doc)
	if err != nil {
		return ImprintState{}, fmt.Errorf("hash imprint of field def %s: %w", fd.ID, err)
	}
	return ImprintState{
		FieldConfig:        datatypes.JSONMap(doc),
		FieldConfigHash:    h,
		SourceFieldDefHash: h,
		ImprintedAt:        now,
	}, nil
}

// DriftReport compares a placement's stored hashes against the current
// state of its catalog source.
type DriftReport struct {
	// SourceDrifted means the catalog field definition changed after
	// the last imprint.
	SourceDrifted bool `json:"source_drifted"`
	// LocallyEdited means the placement's field_config was modified
	// after the last imprint.
	LocallyEdited bool `json:"locally_edited"`

	CurrentSourceHash  string  `json:"current_source_hash"`
	StoredSourceHash   *string `json:"stored_source_hash,omitempty"`
	StoredConfigHash   *string `json:"stored_config_hash,omitempty"`
	ComputedConfigHash string  `json:"computed_config_hash"`
}

// CheckDrift reports drift between a placement's imprint and the field
// definition it was taken from. Placements that predate hash tracking
// (nil stored hashes) are reported as drifted so callers re-imprint.
func CheckDrift(fd *model.FieldDef, fieldConfig datatypes.JSONMap, configHash, sourceHash *string) (DriftReport, error) {
	currentSource, err := ImprintHash(fd)
	if err != nil {
		return DriftReport{}, err
	}
	computedConfig, err := canonhash.Hash(map[string]any(fieldConfig))
	if err != nil {
		return DriftReport{}, fmt.Errorf("hash field config: %w", err)
	}

	rep := DriftReport{
		CurrentSourceHash:  currentSource,
		StoredSourceHash:   sourceHash,
		StoredConfigHash:   configHash,
		ComputedConfigHash: computedConfig,
	}
	rep.SourceDrifted = sourceHash == nil || *sourceHash != currentSource
	// At imprint time both hashes are identical; a local edit rewrites
	// only the config hash, so divergence between the two marks it.
	rep.LocallyEdited = configHash == nil || sourceHash == nil || *configHash != *sourceHash
	return rep, nil
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func idOrNil[T fmt.Stringer](id *T) any {
	if id == nil {
		return nil
	}
	return (*id).String()
}

func dataTypeOrNil(dt *model.DataType) any {
	if dt == nil {
		return nil
	}
	return string(*dt)
}

func mapOrNil(m datatypes.JSONMap) any {
	if m == nil {
		return nil
	}
	return map[string]any(m)
}
