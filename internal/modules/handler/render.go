package handler

import (
	"net/http"

	"github.com/dynoform/composer/internal/modules/serializer"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type RenderHandler struct {
	svc service.RenderService
}

func NewRenderHandler(s service.RenderService) *RenderHandler {
	return &RenderHandler{svc: s}
}

// RenderForm godoc
//
//	@Summary		Render form
//	@Description	Materialize the full form document: panel tree, imprinted fields, embedded components and resolved overrides
//	@Tags			render
//	@Produce		json
//	@Param			form_id	path	string	true	"Form ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=service.RenderedForm}
//	@Router			/forms/{form_id}/render [get]
func (h *RenderHandler) RenderForm(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	doc, err := h.svc.Render(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(doc))
}

// ExportForm godoc
//
//	@Summary		Export rendered form
//	@Description	Render the form, store the document in blob storage and return a time-limited download link
//	@Tags			render
//	@Produce		json
//	@Param			form_id	path	string	true	"Form ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=service.ExportResult}
//	@Router			/forms/{form_id}/export [post]
func (h *RenderHandler) ExportForm(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "form_id")
	if !ok {
		return
	}

	result, err := h.svc.Export(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(result))
}
