package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FormPanelComponent embeds a reusable Component into a FormPanel.
// InstanceKey is the stable, never label-derived identifier used for
// submission path construction and selector addressing; it is unique
// per (tenant, panel).
type FormPanelComponent struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_form_panel_component_key,priority:1" json:"tenant_id"`
	PanelID     uuid.UUID `gorm:"column:form_panel_id;type:uuid;not null;index;uniqueIndex:uq_form_panel_component_key,priority:2" json:"form_panel_id"`
	ComponentID uuid.UUID `gorm:"type:uuid;not null;index" json:"component_id"`

	InstanceKey string `gorm:"size:200;not null;uniqueIndex:uq_form_panel_component_key,priority:3" json:"instance_key"`

	UIConfig datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"ui_config,omitempty"`

	// NestedOverrides is a selector-addressed patch document targeting
	// nodes inside this instance's materialized component subtree.
	NestedOverrides datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"nested_overrides,omitempty"`

	ComponentOrder int `gorm:"not null;default:0" json:"component_order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`
}

func (FormPanelComponent) TableName() string { return "form_panel_component" }
