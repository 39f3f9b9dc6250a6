package handler

import (
	"net/http"

	"github.com/dynoform/composer/internal/modules/serializer"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FormHandler struct {
	svc  service.FormService
	comp service.FormCompositionService
}

func NewFormHandler(s service.FormService, comp service.FormCompositionService) *FormHandler {
	return &FormHandler{svc: s, comp: comp}
}

type CreateFormReq struct {
	BusinessKey string            `json:"business_key" binding:"required"`
	FormKey     string            `json:"form_key" binding:"required,keyfmt"`
	Name        string            `json:"name" binding:"required"`
	Description *string           `json:"description"`
	CategoryID  *uuid.UUID        `json:"category_id"`
	UIConfig    datatypes.JSONMap `json:"ui_config"`
}

// CreateForm godoc
//
//	@Summary		Create form
//	@Description	Create a draft form at version 1
//	@Tags			form
//	@Accept			json
//	@Produce		json
//	@Param			request	body	handler.CreateFormReq	true	"Form payload"
//	@Success		201	{object}	serializer.Response{data=model.Form}
//	@Router			/forms [post]
func (h *FormHandler) CreateForm(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}

	req := CreateFormReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	form, err := h.svc.Create(c.Request.Context(), tenantID, service.CreateFormInput{
		BusinessKey: req.BusinessKey,
		FormKey:     req.FormKey,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		UIConfig:    req.UIConfig,
		Actor:       actorFrom(c),
	})
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(form))
}

// GetForm godoc
//
//	@Summary	Get form
//	@Tags		form
//	@Produce	json
//	@Param		form_id	path	string	true	"Form ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.Form}
//	@Router		/forms/{form_id} [get]
func (h *FormHandler) GetForm(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	form, err := h.svc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(form))
}

// ListForms godoc
//
//	@Summary	List forms
//	@Tags		form
//	@Produce	json
//	@Param		limit	query	int	false	"Page size (default 50, max 200)"
//	@Param		offset	query	int	false	"Page offset"
//	@Success	200	{object}	serializer.Response{data=serializer.ListData}
//	@Router		/forms [get]
func (h *FormHandler) ListForms(c *gin.Context) {
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

type UpdateFormReq struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	CategoryID  *uuid.UUID        `json:"category_id"`
	UIConfig    datatypes.JSONMap `json:"ui_config"`
}

// UpdateForm godoc
//
//	@Summary	Update form
//	@Tags		form
//	@Accept		json
//	@Produce	json
//	@Param		form_id	path	string					true	"Form ID"	Format(uuid)
//	@Param		request	body	handler.UpdateFormReq	true	"Fields to update"
//	@Success	200	{object}	serializer.Response{data=model.Form}
//	@Router		/forms/{form_id} [patch]
func (h *FormHandler) UpdateForm(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	req := UpdateFormReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	form, err := h.svc.Update(c.Request.Context(), tenantID, id, service.UpdateFormInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		UIConfig:    req.UIConfig,
		Actor:       actorFrom(c),
	})
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(form))
}

// DeleteForm godoc
//
//	@Summary		Delete form
//	@Description	Delete a form version that has no submissions
//	@Tags			form
//	@Produce		json
//	@Param			form_id	path	string	true	"Form ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{}
//	@Router			/forms/{form_id} [delete]
func (h *FormHandler) DeleteForm(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}

// NewFormVersion godoc
//
//	@Summary		Create new form version
//	@Description	Clone the latest version including panels, placements and embeds into a new draft
//	@Tags			form
//	@Produce		json
//	@Param			form_id	path	string	true	"Source form ID"	Format(uuid)
//	@Success		201	{object}	serializer.Response{data=model.Form}
//	@Router			/forms/{form_id}/versions [post]
func (h *FormHandler) NewFormVersion(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	form, err := h.svc.NewVersion(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(form))
}

// PublishForm godoc
//
//	@Summary		Publish form
//	@Description	Publish a draft. The form and its composition tree become immutable.
//	@Tags			form
//	@Produce		json
//	@Param			form_id	path	string	true	"Form ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=model.Form}
//	@Router			/forms/{form_id}/publish [post]
func (h *FormHandler) PublishForm(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	form, err := h.svc.Publish(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(form))
}

// ArchiveForm godoc
//
//	@Summary	Archive form
//	@Tags		form
//	@Produce	json
//	@Param		form_id	path	string	true	"Form ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.Form}
//	@Router		/forms/{form_id}/archive [post]
func (h *FormHandler) ArchiveForm(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	form, err := h.svc.Archive(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(form))
}

// AddFormPanel godoc
//
//	@Summary	Add form panel
//	@Tags		form
//	@Accept		json
//	@Produce	json
//	@Param		form_id	path	string				true	"Form ID"	Format(uuid)
//	@Param		request	body	handler.PanelReq	true	"Panel payload"
//	@Success	201	{object}	serializer.Response{data=model.FormPanel}
//	@Router		/forms/{form_id}/panels [post]
func (h *FormHandler) AddFormPanel(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
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

// ListFormPanels godoc
//
//	@Summary	List form panels
//	@Tags		form
//	@Produce	json
//	@Param		form_id	path	string	true	"Form ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=[]model.FormPanel}
//	@Router		/forms/{form_id}/panels [get]
func (h *FormHandler) ListFormPanels(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
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

// UpdateFormPanel godoc
//
//	@Summary	Update form panel
//	@Tags		form
//	@Accept		json
//	@Produce	json
//	@Param		panel_id	path	string					true	"Panel ID"	Format(uuid)
//	@Param		request		body	handler.PanelUpdateReq	true	"Fields to update"
//	@Success	200	{object}	serializer.Response{data=model.FormPanel}
//	@Router		/form-panels/{panel_id} [patch]
func (h *FormHandler) UpdateFormPanel(c *gin.Context) {
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

// SetFormPanelOverrides godoc
//
//	@Summary		Set form panel overrides
//	@Description	Replace the selector-addressed override document on a form panel
//	@Tags			form
//	@Accept			json
//	@Produce		json
//	@Param			panel_id	path	string				true	"Panel ID"	Format(uuid)
//	@Param			request		body	handler.OverridesReq	true	"Override document"
//	@Success		200	{object}	serializer.Response{data=model.FormPanel}
//	@Router			/form-panels/{panel_id}/overrides [put]
func (h *FormHandler) SetFormPanelOverrides(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	panelID, ok := pathID(c, "panel_id")
	if !ok {
		return
	}

	req := OverridesReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	panel, err := h.comp.SetPanelOverrides(c.Request.Context(), tenantID, panelID, req.Overrides, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(panel))
}

// DeleteFormPanel godoc
//
//	@Summary		Delete form panel
//	@Description	Delete a panel and its descendant panels, placements and embeds
//	@Tags			form
//	@Produce		json
//	@Param			panel_id	path	string	true	"Panel ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{}
//	@Router			/form-panels/{panel_id} [delete]
func (h *FormHandler) DeleteFormPanel(c *gin.Context) {
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

// PlaceFormField godoc
//
//	@Summary		Place field on form panel
//	@Description	Place a field definition on a panel and imprint its configuration
//	@Tags			form
//	@Accept			json
//	@Produce		json
//	@Param			panel_id	path	string					true	"Panel ID"	Format(uuid)
//	@Param			request		body	handler.PlaceFieldReq	true	"Placement payload"
//	@Success		201	{object}	serializer.Response{data=model.FormPanelField}
//	@Router			/form-panels/{panel_id}/fields [post]
func (h *FormHandler) PlaceFormField(c *gin.Context) {
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

// UpdateFormPlacement godoc
//
//	@Summary	Update form field placement
//	@Tags		form
//	@Accept		json
//	@Produce	json
//	@Param		placement_id	path	string						true	"Placement ID"	Format(uuid)
//	@Param		request			body	handler.PlacementUpdateReq	true	"Fields to update"
//	@Success	200	{object}	serializer.Response{data=model.FormPanelField}
//	@Router		/form-panel-fields/{placement_id} [patch]
func (h *FormHandler) UpdateFormPlacement(c *gin.Context) {
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

// ReimprintFormPlacement godoc
//
//	@Summary		Reimprint form field placement
//	@Description	Refresh the imprinted configuration from the current field definition
//	@Tags			form
//	@Produce		json
//	@Param			placement_id	path	string	true	"Placement ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=model.FormPanelField}
//	@Router			/form-panel-fields/{placement_id}/reimprint [post]
func (h *FormHandler) ReimprintFormPlacement(c *gin.Context) {
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

// FormPlacementDrift godoc
//
//	@Summary		Inspect form placement drift
//	@Description	Compare the imprinted configuration against the source field definition
//	@Tags			form
//	@Produce		json
//	@Param			placement_id	path	string	true	"Placement ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=service.DriftReport}
//	@Router			/form-panel-fields/{placement_id}/drift [get]
func (h *FormHandler) FormPlacementDrift(c *gin.Context) {
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

// RemoveFormPlacement godoc
//
//	@Summary	Remove form field placement
//	@Tags		form
//	@Produce	json
//	@Param		placement_id	path	string	true	"Placement ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{}
//	@Router		/form-panel-fields/{placement_id} [delete]
func (h *FormHandler) RemoveFormPlacement(c *gin.Context) {
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

type EmbedComponentReq struct {
	ComponentID    uuid.UUID         `json:"component_id" binding:"required"`
	InstanceKey    string            `json:"instance_key" binding:"required,keyfmt"`
	ComponentOrder int               `json:"component_order"`
	UIConfig       datatypes.JSONMap `json:"ui_config"`
}

// EmbedComponent godoc
//
//	@Summary		Embed component on form panel
//	@Description	Embed a component instance under a form panel with a unique instance key
//	@Tags			form
//	@Accept			json
//	@Produce		json
//	@Param			panel_id	path	string						true	"Panel ID"	Format(uuid)
//	@Param			request		body	handler.EmbedComponentReq	true	"Embed payload"
//	@Success		201	{object}	serializer.Response{data=model.FormPanelComponent}
//	@Router			/form-panels/{panel_id}/components [post]
func (h *FormHandler) EmbedComponent(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	panelID, ok := pathID(c, "panel_id")
	if !ok {
		return
	}

	req := EmbedComponentReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	instance, err := h.comp.EmbedComponent(c.Request.Context(), tenantID, panelID, service.EmbedComponentInput{
		ComponentID:    req.ComponentID,
		InstanceKey:    req.InstanceKey,
		ComponentOrder: req.ComponentOrder,
		UIConfig:       req.UIConfig,
		Actor:          actorFrom(c),
	})
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(instance))
}

type UpdateInstanceReq struct {
	ComponentOrder *int              `json:"component_order"`
	UIConfig       datatypes.JSONMap `json:"ui_config"`
}

// UpdateInstance godoc
//
//	@Summary	Update component instance
//	@Tags		form
//	@Accept		json
//	@Produce	json
//	@Param		instance_id	path	string						true	"Instance ID"	Format(uuid)
//	@Param		request		body	handler.UpdateInstanceReq	true	"Fields to update"
//	@Success	200	{object}	serializer.Response{data=model.FormPanelComponent}
//	@Router		/form-panel-components/{instance_id} [patch]
func (h *FormHandler) UpdateInstance(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	instanceID, ok := pathID(c, "instance_id")
	if !ok {
		return
	}

	req := UpdateInstanceReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	instance, err := h.comp.UpdateInstance(c.Request.Context(), tenantID, instanceID, service.InstanceUpdateInput{
		ComponentOrder: req.ComponentOrder,
		UIConfig:       req.UIConfig,
		Actor:          actorFrom(c),
	})
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(instance))
}

// SetInstanceOverrides godoc
//
//	@Summary		Set component instance overrides
//	@Description	Replace the selector-addressed override document on a component instance
//	@Tags			form
//	@Accept			json
//	@Produce		json
//	@Param			instance_id	path	string				true	"Instance ID"	Format(uuid)
//	@Param			request		body	handler.OverridesReq	true	"Override document"
//	@Success		200	{object}	serializer.Response{data=model.FormPanelComponent}
//	@Router			/form-panel-components/{instance_id}/overrides [put]
func (h *FormHandler) SetInstanceOverrides(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	instanceID, ok := pathID(c, "instance_id")
	if !ok {
		return
	}

	req := OverridesReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	instance, err := h.comp.SetInstanceOverrides(c.Request.Context(), tenantID, instanceID, req.Overrides, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(instance))
}

// RemoveInstance godoc
//
//	@Summary	Remove component instance
//	@Tags		form
//	@Produce	json
//	@Param		instance_id	path	string	true	"Instance ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{}
//	@Router		/form-panel-components/{instance_id} [delete]
func (h *FormHandler) RemoveInstance(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	instanceID, ok := pathID(c, "instance_id")
	if !ok {
		return
	}

	if err := h.comp.RemoveInstance(c.Request.Context(), tenantID, instanceID); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}
