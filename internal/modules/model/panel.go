package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ComponentPanel groups fields inside a Component. Panels nest via
// ParentPanelID, which must reference another panel of the same
// component; cycles are impossible by construction because a parent
// must already exist before a child references it.
type ComponentPanel struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ComponentID   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uq_component_panel_key,priority:1" json:"component_id"`
	ParentPanelID *uuid.UUID `gorm:"type:uuid" json:"parent_panel_id,omitempty"`

	PanelKey   string            `gorm:"size:200;not null;uniqueIndex:uq_component_panel_key,priority:2" json:"panel_key"`
	PanelLabel *string           `gorm:"size:100" json:"panel_label,omitempty"`
	UIConfig   datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"ui_config,omitempty"`

	// PanelActions holds declarative reactive UI rules. Rules reference
	// sibling nodes by stable key, never by label.
	PanelActions datatypes.JSON `gorm:"type:jsonb" swaggertype:"array,object" json:"panel_actions,omitempty"`

	PanelOrder int `gorm:"not null;default:0" json:"panel_order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`
}

func (ComponentPanel) TableName() string { return "component_panel" }

// FormPanel groups fields and embedded components inside a Form. Same
// nesting rules as ComponentPanel. NestedOverrides is a selector-
// addressed patch document targeting nodes inside the form's embedded
// component subtrees.
type FormPanel struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	FormID        uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uq_form_panel_key,priority:1" json:"form_id"`
	ParentPanelID *uuid.UUID `gorm:"type:uuid" json:"parent_panel_id,omitempty"`

	PanelKey   string            `gorm:"size:200;not null;uniqueIndex:uq_form_panel_key,priority:2" json:"panel_key"`
	PanelLabel *string           `gorm:"size:100" json:"panel_label,omitempty"`
	UIConfig   datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"ui_config,omitempty"`

	NestedOverrides datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"nested_overrides,omitempty"`

	PanelOrder int `gorm:"not null;default:0" json:"panel_order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy *string   `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"size:100" json:"updated_by,omitempty"`
}

func (FormPanel) TableName() string { return "form_panel" }
