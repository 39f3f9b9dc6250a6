package handler

import (
	"net/http"

	"github.com/dynoform/composer/internal/modules/serializer"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ComponentHandler struct {
	svc  service.ComponentService
	comp service.ComponentCompositionService
}

func NewComponentHandler(s service.ComponentService, comp service.ComponentCompositionService) *ComponentHandler {
	return &ComponentHandler{svc: s, comp: comp}
}

type CreateComponentReq struct {
	BusinessKey    string            `json:"business_key" binding:"required"`
	Name           string            `json:"name" binding:"required"`
	Description    *string           `json:"description"`
	ComponentKey   string            `json:"component_key" binding:"required,keyfmt"`
	ComponentLabel *string           `json:"component_label"`
	CategoryID     *uuid.UUID        `json:"category_id"`
	UIConfig       datatypes.JSONMap `json:"ui_config"`
}

// CreateComponent godoc
//
//	@Summary		Create component
//	@Description	Create a draft reusable component at version 1
//	@Tags			component
//	@Accept			json
//	@Produce		json
//	@Param			request	body	handler.CreateComponentReq	true	"Component payload"
//	@Success		201	{object}	serializer.Response{data=model.Component}
//	@Router			/components [post]
func (h *ComponentHandler) CreateComponent(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}

	req := CreateComponentReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	component, err := h.svc.Create(c.Request.Context(), tenantID, service.CreateComponentInput{
		BusinessKey:    req.BusinessKey,
		Name:           req.Name,
		Description:    req.Description,
		ComponentKey:   req.ComponentKey,
		ComponentLabel: req.ComponentLabel,
		CategoryID:     req.CategoryID,
		UIConfig:       req.UIConfig,
		Actor:          actorFrom(c),
	})
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(component))
}

// GetComponent godoc
//
//	@Summary	Get component
//	@Tags		component
//	@Produce	json
//	@Param		component_id	path	string	true	"Component ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.Component}
//	@Router		/components/{component_id} [get]
func (h *ComponentHandler) GetComponent(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "component_id")
	if !ok {
		return
	}

	component, err := h.svc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(component))
}

// ListComponents godoc
//
//	@Summary	List components
//	@Tags		component
//	@Produce	json
//	@Param		limit	query	int	false	"Page size (default 50, max 200)"
//	@Param		offset	query	int	false	"Page offset"
//	@Success	200	{object}	serializer.Response{data=serializer.ListData}
//	@Router		/components [get]
func (h *ComponentHandler) ListComponents(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}

	req := PageReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), tenantID, req.Limit, req.Offset)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(serializer.ListData{Items: items, Total: total}))
}

type UpdateComponentReq struct {
	Name           *string           `json:"name"`
	Description    *string           `json:"description"`
	ComponentLabel *string           `json:"component_label"`
	CategoryID     *uuid.UUID        `json:"category_id"`
	UIConfig       datatypes.JSONMap `json:"ui_config"`
}

// UpdateComponent godoc
//
//	@Summary	Update component
//	@Tags		component
//	@Accept		json
//	@Produce	json
//	@Param		component_id	path	string						true	"Component ID"	Format(uuid)
//	@Param		request			body	handler.UpdateComponentReq	true	"Fields to update"
//	@Success	200	{object}	serializer.Response{data=model.Component}
//	@Router		/components/{component_id} [patch]
func (h *ComponentHandler) UpdateComponent(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "component_id")
	if !ok {
		return
	}

	req := UpdateComponentReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	component, err := h.svc.Update(c.Request.Context(), tenantID, id, service.UpdateComponentInput{
		Name:           req.Name,
		Description:    req.Description,
		ComponentLabel: req.ComponentLabel,
		CategoryID:     req.CategoryID,
		UIConfig:       req.UIConfig,
		Actor:          actorFrom(c),
	})
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(component))
}

// DeleteComponent godoc
//
//	@Summary		Delete component
//	@Description	Delete a component version that no form embeds
//	@Tags			component
//	@Produce		json
//	@Param			component_id	path	string	true	"Component ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{}
//	@Router			/components/{component_id} [delete]
func (h *ComponentHandler) DeleteComponent(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "component_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}

// NewComponentVersion godoc
//
//	@Summary		Create new component version
//	@Description	Clone the latest version including panels and placements into a new draft
//	@Tags			component
//	@Produce		json
//	@Param			component_id	path	string	true	"Source component ID"	Format(uuid)
//	@Success		201	{object}	serializer.Response{data=model.Component}
//	@Router			/components/{component_id}/versions [post]
func (h *ComponentHandler) NewComponentVersion(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "component_id")
	if !ok {
		return
	}

	component, err := h.svc.NewVersion(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(component))
}

// PublishComponent godoc
//
//	@Summary		Publish component
//	@Description	Publish a draft. The component and its structure become immutable.
//	@Tags			component
//	@Produce		json
//	@Param			component_id	path	string	true	"Component ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=model.Component}
//	@Router			/components/{component_id}/publish [post]
func (h *ComponentHandler) PublishComponent(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "component_id")
	if !ok {
		return
	}

	component, err := h.svc.Publish(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(component))
}

// ArchiveComponent godoc
//
//	@Summary	Archive component
//	@Tags		component
//	@Produce	json
//	@Param		component_id	path	string	true	"Component ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.Component}
//	@Router		/components/{component_id}/archive [post]
func (h *ComponentHandler) ArchiveComponent(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "component_id")
	if !ok {
		return
	}

	component, err := h.svc.Archive(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(component))
}

// AddComponentPanel godoc
//
//	@Summary	Add component panel
//	@Tags		component
//	@Accept		json
//	@Produce	json
//	@Param		component_id	path	string				true	"Component ID"	Format(uuid)
//	@Param		request			body	handler.PanelReq	true	"Panel payload"
//	@Success	201	{object}	serializer.Response{data=model.ComponentPanel}
//	@Router		/components/{component_id}/panels [post]
func (h *ComponentHandler) AddComponentPanel(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "component_id")
	if !ok {
		return
	}

	req := PanelReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	panel, err := h.comp.AddPanel(c.Request.Context(), tenantID, id, req.toInput(actorFrom(c)))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(panel))
}

// ListComponentPanels godoc
//
//	@Summary	List component panels
//	@Tags		component
//	@Produce	json
//	@Param		component_id	path	string	true	"Component ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=[]model.ComponentPanel}
//	@Router		/components/{component_id}/panels [get]
func (h *ComponentHandler) ListComponentPanels(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "component_id")
	if !ok {
		return
	}

	panels, err := h.comp.ListPanels(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(panels))
}

// UpdateComponentPanel godoc
//
//	@Summary	Update component panel
//	@Tags		component
//	@Accept		json
//	@Produce	json
//	@Param		panel_id	path	string					true	"Panel ID"	Format(uuid)
//	@Param		request		body	handler.PanelUpdateReq	true	"Fields to update"
//	@Success	200	{object}	serializer.Response{data=model.ComponentPanel}
//	@Router		/component-panels/{panel_id} [patch]
func (h *ComponentHandler) UpdateComponentPanel(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	panelID, ok := pathID(c, "panel_id")
	if !ok {
		return
	}

	req := PanelUpdateReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	panel, err := h.comp.UpdatePanel(c.Request.Context(), tenantID, panelID, req.toInput(actorFrom(c)))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(panel))
}

// DeleteComponentPanel godoc
//
//	@Summary		Delete component panel
//	@Description	Delete a panel and its descendant panels and placements
//	@Tags			component
//	@Produce		json
//	@Param			panel_id	path	string	true	"Panel ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{}
//	@Router			/component-panels/{panel_id} [delete]
func (h *ComponentHandler) DeleteComponentPanel(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	panelID, ok := pathID(c, "panel_id")
	if !ok {
		return
	}

	if err := h.comp.DeletePanel(c.Request.Context(), tenantID, panelID); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}

// PlaceComponentField godoc
//
//	@Summary		Place field on component panel
//	@Description	Place a field definition on a panel and imprint its configuration
//	@Tags			component
//	@Accept			json
//	@Produce		json
//	@Param			panel_id	path	string					true	"Panel ID"	Format(uuid)
//	@Param			request		body	handler.PlaceFieldReq	true	"Placement payload"
//	@Success		201	{object}	serializer.Response{data=model.ComponentPanelField}
//	@Router			/component-panels/{panel_id}/fields [post]
func (h *ComponentHandler) PlaceComponentField(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	panelID, ok := pathID(c, "panel_id")
	if !ok {
		return
	}

	req := PlaceFieldReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	placement, err := h.comp.PlaceField(c.Request.Context(), tenantID, panelID, req.toInput(actorFrom(c)))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(placement))
}

// UpdateComponentPlacement godoc
//
//	@Summary	Update component field placement
//	@Tags		component
//	@Accept		json
//	@Produce	json
//	@Param		placement_id	path	string						true	"Placement ID"	Format(uuid)
//	@Param		request			body	handler.PlacementUpdateReq	true	"Fields to update"
//	@Success	200	{object}	serializer.Response{data=model.ComponentPanelField}
//	@Router		/component-panel-fields/{placement_id} [patch]
func (h *ComponentHandler) UpdateComponentPlacement(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	placementID, ok := pathID(c, "placement_id")
	if !ok {
		return
	}

	req := PlacementUpdateReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	placement, err := h.comp.UpdatePlacement(c.Request.Context(), tenantID, placementID, req.toInput(actorFrom(c)))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(placement))
}

// ReimprintComponentPlacement godoc
//
//	@Summary		Reimprint component field placement
//	@Description	Refresh the imprinted configuration from the current field definition
//	@Tags			component
//	@Produce		json
//	@Param			placement_id	path	string	true	"Placement ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=model.ComponentPanelField}
//	@Router			/component-panel-fields/{placement_id}/reimprint [post]
func (h *ComponentHandler) ReimprintComponentPlacement(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	placementID, ok := pathID(c, "placement_id")
	if !ok {
		return
	}

	placement, err := h.comp.Reimprint(c.Request.Context(), tenantID, placementID, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(placement))
}

// ComponentPlacementDrift godoc
//
//	@Summary		Inspect placement drift
//	@Description	Compare the imprinted configuration against the source field definition
//	@Tags			component
//	@Produce		json
//	@Param			placement_id	path	string	true	"Placement ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=service.DriftReport}
//	@Router			/component-panel-fields/{placement_id}/drift [get]
func (h *ComponentHandler) ComponentPlacementDrift(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	placementID, ok := pathID(c, "placement_id")
	if !ok {
		return
	}

	report, err := h.comp.Drift(c.Request.Context(), tenantID, placementID)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(report))
}

// RemoveComponentPlacement godoc
//
//	@Summary	Remove component field placement
//	@Tags		component
//	@Produce	json
//	@Param		placement_id	path	string	true	"Placement ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{}
//	@Router		/component-panel-fields/{placement_id} [delete]
func (h *ComponentHandler) RemoveComponentPlacement(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	placementID, ok := pathID(c, "placement_id")
	if !ok {
		return
	}

	if err := h.comp.RemovePlacement(c.Request.Context(), tenantID, placementID); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}
