package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ComponentPanelField places a FieldDef onto a ComponentPanel. The
// placement imprints a snapshot of the definition into FieldConfig at
// placement/reset time; that snapshot is the editable effective
// definition and may diverge from the catalog source.
type ComponentPanelField struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PanelID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_component_panel_field,priority:1;uniqueIndex:uq_component_panel_field_order,priority:1" json:"panel_id"`
	FieldDefID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_component_panel_field,priority:2" json:"field_def_id"`

	// FieldOrder is display order within the panel; unique per panel
	// when present, nil means unspecified.
	FieldOrder *int `gorm:"uniqueIndex:uq_component_panel_field_order,priority:2" json:"field_order,omitempty"`

	UIConfig    datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"ui_config,omitempty"`
	FieldConfig datatypes.JSONMap `gorm:"type:jsonb;not null" swaggertype:"object" json:"field_config"`

	// FieldConfigHash tracks the current FieldConfig content;
	// SourceFieldDefHash tracks the catalog source as of the last
	// imprint. Keeping them separate makes local edits and catalog
	// drift independently detectable.
	FieldConfigHash    *string    `gorm:"size:64" json:"field_config_hash,omitempty"`
	SourceFieldDefHash *string    `gorm:"size:64" json:"source_field_def_hash,omitempty"`
	LastImprintedAt    *time.Time `json:"last_imprinted_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`
}

func (ComponentPanelField) TableName() string { return "component_panel_field" }

// FormPanelField places a FieldDef directly onto a FormPanel. Same
// imprint/hash semantics as ComponentPanelField.
type FormPanelField struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PanelID    uuid.UUID `gorm:"column:form_panel_id;type:uuid;not null;index;uniqueIndex:uq_form_panel_field,priority:1;uniqueIndex:uq_form_panel_field_order,priority:1" json:"form_panel_id"`
	FieldDefID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_form_panel_field,priority:2" json:"field_def_id"`

	FieldOrder *int `gorm:"uniqueIndex:uq_form_panel_field_order,priority:2" json:"field_order,omitempty"`

	UIConfig    datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"ui_config,omitempty"`
	FieldConfig datatypes.JSONMap `gorm:"type:jsonb;not null" swaggertype:"object" json:"field_config"`

	FieldConfigHash    *string    `gorm:"size:64" json:"field_config_hash,omitempty"`
	SourceFieldDefHash *string    `gorm:"size:64" json:"source_field_def_hash,omitempty"`
	LastImprintedAt    *time.Time `json:"last_imprinted_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`
}

func (FormPanelField) TableName() string { return "form_panel_field" }
