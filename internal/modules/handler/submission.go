package handler

import (
	"net/http"

	"github.com/dynoform/composer/internal/modules/serializer"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubmissionHandler struct {
	svc service.SubmissionService
}

func NewSubmissionHandler(s service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{svc: s}
}

// CreateSubmission godoc
//
//	@Summary		Create submission
//	@Description	Open a draft submission against a published form
//	@Tags			submission
//	@Produce		json
//	@Param			form_id	path	string	true	"Form ID"	Format(uuid)
//	@Success		201	{object}	serializer.Response{data=model.FormSubmission}
//	@Router			/forms/{form_id}/submissions [post]
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	formID, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	sub, err := h.svc.Create(c.Request.Context(), tenantID, formID, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(sub))
}

// GetSubmission godoc
//
//	@Summary	Get submission
//	@Tags		submission
//	@Produce	json
//	@Param		submission_id	path	string	true	"Submission ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.FormSubmission}
//	@Router		/submissions/{submission_id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}

	sub, err := h.svc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(sub))
}

// ListSubmissions godoc
//
//	@Summary	List submissions for a form
//	@Tags		submission
//	@Produce	json
//	@Param		form_id	path	string	true	"Form ID"	Format(uuid)
//	@Param		limit	query	int		false	"Page size (default 50, max 200)"
//	@Param		offset	query	int		false	"Page offset"
//	@Success	200	{object}	serializer.Response{data=serializer.ListData}
//	@Router		/forms/{form_id}/submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	formID, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	req := PageReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	items, total, err := h.svc.ListByForm(c.Request.Context(), tenantID, formID, req.Limit, req.Offset)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(serializer.ListData{Items: items, Total: total}))
}

// SubmitSubmission godoc
//
//	@Summary		Submit submission
//	@Description	Move a draft submission to submitted and bump its submission version
//	@Tags			submission
//	@Produce		json
//	@Param			submission_id	path	string	true	"Submission ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=model.FormSubmission}
//	@Router			/submissions/{submission_id}/submit [post]
func (h *SubmissionHandler) SubmitSubmission(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}

	sub, err := h.svc.Submit(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(sub))
}

// ReopenSubmission godoc
//
//	@Summary		Reopen submission
//	@Description	Return a submitted submission to draft for further edits
//	@Tags			submission
//	@Produce		json
//	@Param			submission_id	path	string	true	"Submission ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=model.FormSubmission}
//	@Router			/submissions/{submission_id}/reopen [post]
func (h *SubmissionHandler) ReopenSubmission(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}

	sub, err := h.svc.Reopen(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(sub))
}

// ArchiveSubmission godoc
//
//	@Summary		Archive submission
//	@Description	Copy the submission and its values into the archive tables and flag the live rows
//	@Tags			submission
//	@Produce		json
//	@Param			submission_id	path	string	true	"Submission ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=model.FormSubmission}
//	@Router			/submissions/{submission_id}/archive [post]
func (h *SubmissionHandler) ArchiveSubmission(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}

	sub, err := h.svc.Archive(c.Request.Context(), tenantID, id, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(sub))
}

// DeleteSubmission godoc
//
//	@Summary	Delete submission
//	@Tags		submission
//	@Produce	json
//	@Param		submission_id	path	string	true	"Submission ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{}
//	@Router		/submissions/{submission_id} [delete]
func (h *SubmissionHandler) DeleteSubmission(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}

type UpsertValueReq struct {
	FieldPath  string    `json:"field_path" binding:"required"`
	FieldDefID uuid.UUID `json:"field_def_id" binding:"required"`

	FormPanelFieldID      *uuid.UUID `json:"form_panel_field_id"`
	FormPanelComponentID  *uuid.UUID `json:"form_panel_component_id"`
	ComponentPanelFieldID *uuid.UUID `json:"component_panel_field_id"`

	Value datatypes.JSON `json:"value"`
}

// UpsertValue godoc
//
//	@Summary		Upsert submission value
//	@Description	Create or replace the value stored at a field path. Exactly one placement mode must be supplied.
//	@Tags			submission
//	@Accept			json
//	@Produce		json
//	@Param			submission_id	path	string					true	"Submission ID"	Format(uuid)
//	@Param			request			body	handler.UpsertValueReq	true	"Value payload"
//	@Success		200	{object}	serializer.Response{data=model.FormSubmissionValue}
//	@Router			/submissions/{submission_id}/values [put]
func (h *SubmissionHandler) UpsertValue(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}

	req := UpsertValueReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	value, err := h.svc.UpsertValue(c.Request.Context(), tenantID, id, service.UpsertValueInput{
		FieldPath:             req.FieldPath,
		FieldDefID:            req.FieldDefID,
		FormPanelFieldID:      req.FormPanelFieldID,
		FormPanelComponentID:  req.FormPanelComponentID,
		ComponentPanelFieldID: req.ComponentPanelFieldID,
		Value:                 req.Value,
		Actor:                 actorFrom(c),
	})
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(value))
}

// ListValues godoc
//
//	@Summary	List submission values
//	@Tags		submission
//	@Produce	json
//	@Param		submission_id	path	string	true	"Submission ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=[]model.FormSubmissionValue}
//	@Router		/submissions/{submission_id}/values [get]
func (h *SubmissionHandler) ListValues(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}

	values, err := h.svc.ListValues(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(values))
}

// DeleteValue godoc
//
//	@Summary	Delete submission value
//	@Tags		submission
//	@Produce	json
//	@Param		submission_id	path	string	true	"Submission ID"	Format(uuid)
//	@Param		value_id		path	string	true	"Value ID"		Format(uuid)
//	@Success	200	{object}	serializer.Response{}
//	@Router		/submissions/{submission_id}/values/{value_id} [delete]
func (h *SubmissionHandler) DeleteValue(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "submission_id")
	if !ok {
		return
	}
	valueID, ok := pathID(c, "value_id")
	if !ok {
		return
	}

	if err := h.svc.DeleteValue(c.Request.Context(), tenantID, id, valueID); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}
