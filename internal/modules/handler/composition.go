package handler

import (
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Request bodies shared by component and form composition routes.

type PanelReq struct {
	PanelKey      string            `json:"panel_key" binding:"required,keyfmt"`
	PanelLabel    *string           `json:"panel_label"`
	ParentPanelID *uuid.UUID        `json:"parent_panel_id"`
	PanelOrder    int               `json:"panel_order"`
	UIConfig      datatypes.JSONMap `json:"ui_config"`
	PanelActions  datatypes.JSON    `json:"panel_actions"`
}

func (r PanelReq) toInput(actor *string) service.PanelInput {
	return service.PanelInput{
		PanelKey:      r.PanelKey,
		PanelLabel:    r.PanelLabel,
		ParentPanelID: r.ParentPanelID,
		PanelOrder:    r.PanelOrder,
		UIConfig:      r.UIConfig,
		PanelActions:  r.PanelActions,
		Actor:         actor,
	}
}

type PanelUpdateReq struct {
	PanelLabel    *string           `json:"panel_label"`
	ParentPanelID *uuid.UUID        `json:"parent_panel_id"`
	PanelOrder    *int              `json:"panel_order"`
	UIConfig      datatypes.JSONMap `json:"ui_config"`
	PanelActions  datatypes.JSON    `json:"panel_actions"`
}

func (r PanelUpdateReq) toInput(actor *string) service.PanelUpdateInput {
	return service.PanelUpdateInput{
		PanelLabel:    r.PanelLabel,
		ParentPanelID: r.ParentPanelID,
		PanelOrder:    r.PanelOrder,
		UIConfig:      r.UIConfig,
		PanelActions:  r.PanelActions,
		Actor:         actor,
	}
}

type PlaceFieldReq struct {
	FieldDefID uuid.UUID         `json:"field_def_id" binding:"required"`
	FieldOrder *int              `json:"field_order"`
	UIConfig   datatypes.JSONMap `json:"ui_config"`
}

func (r PlaceFieldReq) toInput(actor *string) service.PlaceFieldInput {
	return service.PlaceFieldInput{
		FieldDefID: r.FieldDefID,
		FieldOrder: r.FieldOrder,
		UIConfig:   r.UIConfig,
		Actor:      actor,
	}
}

type PlacementUpdateReq struct {
	FieldOrder  *int              `json:"field_order"`
	UIConfig    datatypes.JSONMap `json:"ui_config"`
	FieldConfig datatypes.JSONMap `json:"field_config"`
}

func (r PlacementUpdateReq) toInput(actor *string) service.PlacementUpdateInput {
	return service.PlacementUpdateInput{
		FieldOrder:  r.FieldOrder,
		UIConfig:    r.UIConfig,
		FieldConfig: r.FieldConfig,
		Actor:       actor,
	}
}

type OverridesReq struct {
	Overrides datatypes.JSONMap `json:"overrides" binding:"required"`
}
