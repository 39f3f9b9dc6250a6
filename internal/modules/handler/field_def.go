package handler

import (
	"net/http"

	"github.com/dynoform/composer/internal/modules/model"
	"github.com/dynoform/composer/internal/modules/serializer"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FieldDefHandler struct {
	svc service.FieldDefService
}

func NewFieldDefHandler(s service.FieldDefService) *FieldDefHandler {
	return &FieldDefHandler{svc: s}
}

type FieldDefOptionReq struct {
	OptionKey   string `json:"option_key" binding:"required,keyfmt"`
	OptionLabel string `json:"option_label" binding:"required"`
	OptionOrder int    `json:"option_order"`
}

func (r FieldDefOptionReq) toInput() service.FieldDefOptionInput {
	return service.FieldDefOptionInput{
		OptionKey:   r.OptionKey,
		OptionLabel: r.OptionLabel,
		OptionOrder: r.OptionOrder,
	}
}

type CreateFieldDefReq struct {
	BusinessKey string              `json:"business_key" binding:"required"`
	Name        string              `json:"name" binding:"required"`
	Description *string             `json:"description"`
	FieldKey    string              `json:"field_key" binding:"required,keyfmt"`
	Label       string              `json:"label" binding:"required"`
	CategoryID  *uuid.UUID          `json:"category_id"`
	DataType    *string             `json:"data_type"`
	ElementType string              `json:"element_type" binding:"required"`
	Validation  datatypes.JSONMap   `json:"validation"`
	UIConfig    datatypes.JSONMap   `json:"ui_config"`
	Options     []FieldDefOptionReq `json:"options"`
}

// CreateFieldDef godoc
//
//	@Summary		Create field definition
//	@Description	Create a draft field definition at version 1
//	@Tags			field-def
//	@Accept			json
//	@Produce		json
//	@Param			request	body	handler.CreateFieldDefReq	true	"Field definition payload"
//	@Success		201	{object}	serializer.Response{data=model.FieldDef}
//	@Router			/field-defs [post]
func (h *FieldDefHandler) CreateFieldDef(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}

	req := CreateFieldDefReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	in := service.CreateFieldDefInput{
		BusinessKey: req.BusinessKey,
		Name:        req.Name,
		Description: req.Description,
		FieldKey:    req.FieldKey,
		Label:       req.Label,
		CategoryID:  req.CategoryID,
		ElementType: model.ElementType(req.ElementType),
		Validation:  req.Validation,
		UIConfig:    req.UIConfig,
		Actor:       actorFrom(c),
	}
	if req.DataType != nil {
		dt := model.DataType(*req.DataType)
		in.DataType = &dt
	}
	for _, o := range req.Options {
		in.Options = append(in.Options, o.toInput())
	}

	fd, err := h.svc.Create(c.Request.Context(), tenantID, in)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(fd))
}

// GetFieldDef godoc
//
//	@Summary	Get field definition
//	@Tags		field-def
//	@Produce	json
//	@Param		field_def_id	path	string	true	"Field definition ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.FieldDef}
//	@Router		/field-defs/{field_def_id} [get]
func (h *FieldDefHandler) GetFieldDef(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}

	fd, err := h.svc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(fd))
}

// ListFieldDefs godoc
//
//	@Summary	List field definitions
//	@Tags		field-def
//	@Produce	json
//	@Param		limit	query	int	false	"Page size (default 50, max 200)"
//	@Param		offset	query	int	false	"Page offset"
//	@Success	200	{object}	serializer.Response{data=serializer.ListData}
//	@Router		/field-defs [get]
func (h *FieldDefHandler) ListFieldDefs(c *gin.Context) {
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

type UpdateFieldDefReq struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	FieldKey    *string           `json:"field_key"`
	Label       *string           `json:"label"`
	CategoryID  *uuid.UUID        `json:"category_id"`
	DataType    *string           `json:"data_type"`
	ElementType *string           `json:"element_type"`
	Validation  datatypes.JSONMap `json:"validation"`
	UIConfig    datatypes.JSONMap `json:"ui_config"`
}

// UpdateFieldDef godoc
//
//	@Summary		Update field definition
//	@Description	Partially update a draft field definition. Published versions reject edits.
//	@Tags			field-def
//	@Accept			json
//	@Produce		json
//	@Param			field_def_id	path	string						true	"Field definition ID"	Format(uuid)
//	@Param			request			body	handler.UpdateFieldDefReq	true	"Fields to update"
//	@Success		200	{object}	serializer.Response{data=model.FieldDef}
//	@Router			/field-defs/{field_def_id} [patch]
func (h *FieldDefHandler) UpdateFieldDef(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}

	req := UpdateFieldDefReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	in := service.UpdateFieldDefInput{
		Name:        req.Name,
		Description: req.Description,
		FieldKey:    req.FieldKey,
		Label:       req.Label,
		CategoryID:  req.CategoryID,
		Validation:  req.Validation,
		UIConfig:    req.UIConfig,
		Actor:       actorFrom(c),
	}
	if req.DataType != nil {
		dt := model.DataType(*req.DataType)
		in.DataType = &dt
	}
	if req.ElementType != nil {
		et := model.ElementType(*req.ElementType)
		in.ElementType = &et
	}

	fd, err := h.svc.Update(c.Request.Context(), tenantID, id, in)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(fd))
}

// DeleteFieldDef godoc
//
//	@Summary		Delete field definition
//	@Description	Delete a field definition version that has no placements
//	@Tags			field-def
//	@Produce		json
//	@Param			field_def_id	path	string	true	"Field definition ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{}
//	@Router			/field-defs/{field_def_id} [delete]
func (h *FieldDefHandler) DeleteFieldDef(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}

// NewFieldDefVersion godoc
//
//	@Summary		Create new field definition version
//	@Description	Clone the latest version of the business key into a new draft
//	@Tags			field-def
//	@Produce		json
//	@Param			field_def_id	path	string	true	"Source field definition ID"	Format(uuid)
//	@Success		201	{object}	serializer.Response{data=model.FieldDef}
//	@Router			/field-defs/{field_def_id}/versions [post]
func (h *FieldDefHandler) NewFieldDefVersion(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}

	fd, err := h.svc.NewVersion(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(fd))
}

// PublishFieldDef godoc
//
//	@Summary		Publish field definition
//	@Description	Publish a draft. Published versions are immutable.
//	@Tags			field-def
//	@Produce		json
//	@Param			field_def_id	path	string	true	"Field definition ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=model.FieldDef}
//	@Router			/field-defs/{field_def_id}/publish [post]
func (h *FieldDefHandler) PublishFieldDef(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}

	fd, err := h.svc.Publish(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(fd))
}

// ArchiveFieldDef godoc
//
//	@Summary	Archive field definition
//	@Tags		field-def
//	@Produce	json
//	@Param		field_def_id	path	string	true	"Field definition ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.FieldDef}
//	@Router		/field-defs/{field_def_id}/archive [post]
func (h *FieldDefHandler) ArchiveFieldDef(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}

	fd, err := h.svc.Archive(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(fd))
}

// AddFieldDefOption godoc
//
//	@Summary	Add field definition option
//	@Tags		field-def
//	@Accept		json
//	@Produce	json
//	@Param		field_def_id	path	string						true	"Field definition ID"	Format(uuid)
//	@Param		request			body	handler.FieldDefOptionReq	true	"Option payload"
//	@Success	201	{object}	serializer.Response{data=model.FieldDefOption}
//	@Router		/field-defs/{field_def_id}/options [post]
func (h *FieldDefHandler) AddFieldDefOption(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}

	req := FieldDefOptionReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	opt, err := h.svc.AddOption(c.Request.Context(), tenantID, id, req.toInput(), actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(opt))
}

// UpdateFieldDefOption godoc
//
//	@Summary	Update field definition option
//	@Tags		field-def
//	@Accept		json
//	@Produce	json
//	@Param		field_def_id	path	string						true	"Field definition ID"	Format(uuid)
//	@Param		option_id		path	string						true	"Option ID"				Format(uuid)
//	@Param		request			body	handler.FieldDefOptionReq	true	"Option payload"
//	@Success	200	{object}	serializer.Response{data=model.FieldDefOption}
//	@Router		/field-defs/{field_def_id}/options/{option_id} [put]
func (h *FieldDefHandler) UpdateFieldDefOption(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}
	optionID, ok := pathID(c, "option_id")
	if !ok {
		return
	}

	req := FieldDefOptionReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	opt, err := h.svc.UpdateOption(c.Request.Context(), tenantID, id, optionID, req.toInput(), actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(opt))
}

// DeleteFieldDefOption godoc
//
//	@Summary	Delete field definition option
//	@Tags		field-def
//	@Produce	json
//	@Param		field_def_id	path	string	true	"Field definition ID"	Format(uuid)
//	@Param		option_id		path	string	true	"Option ID"				Format(uuid)
//	@Success	200	{object}	serializer.Response{}
//	@Router		/field-defs/{field_def_id}/options/{option_id} [delete]
func (h *FieldDefHandler) DeleteFieldDefOption(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "field_def_id")
	if !ok {
		return
	}
	optionID, ok := pathID(c, "option_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteOption(c.Request.Context(), tenantID, id, optionID, actorFrom(c)); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}
