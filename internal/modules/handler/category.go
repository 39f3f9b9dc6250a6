package handler

import (
	"net/http"

	"github.com/dynoform/composer/internal/modules/serializer"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	svc service.CategoryService
}

func NewCategoryHandler(s service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: s}
}

type CategoryReq struct {
	CategoryKey   string  `json:"category_key" binding:"required,keyfmt"`
	CategoryLabel string  `json:"category_label" binding:"required"`
	Description   *string `json:"description"`
	CategoryOrder int     `json:"category_order"`
}

func (r CategoryReq) toInput(actor *string) service.CategoryInput {
	return service.CategoryInput{
		CategoryKey:   r.CategoryKey,
		CategoryLabel: r.CategoryLabel,
		Description:   r.Description,
		CategoryOrder: r.CategoryOrder,
		Actor:         actor,
	}
}

// CreateCategory godoc
//
//	@Summary		Create catalog category
//	@Description	Create a category used to group field defs, components and forms
//	@Tags			category
//	@Accept			json
//	@Produce		json
//	@Param			request	body	handler.CategoryReq	true	"Category payload"
//	@Success		201	{object}	serializer.Response{data=model.FormCatalogCategory}
//	@Router			/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}

	req := CategoryReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	category, err := h.svc.Create(c.Request.Context(), tenantID, req.toInput(actorFrom(c)))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(category))
}

// GetCategory godoc
//
//	@Summary	Get catalog category
//	@Tags		category
//	@Produce	json
//	@Param		category_id	path	string	true	"Category ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{data=model.FormCatalogCategory}
//	@Router		/categories/{category_id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "category_id")
	if !ok {
		return
	}

	category, err := h.svc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(category))
}

// ListCategories godoc
//
//	@Summary	List catalog categories
//	@Tags		category
//	@Produce	json
//	@Param		limit	query	int	false	"Page size (default 50, max 200)"
//	@Param		offset	query	int	false	"Page offset"
//	@Success	200	{object}	serializer.Response{data=serializer.ListData}
//	@Router		/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
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

// UpdateCategory godoc
//
//	@Summary	Update catalog category
//	@Tags		category
//	@Accept		json
//	@Produce	json
//	@Param		category_id	path	string				true	"Category ID"	Format(uuid)
//	@Param		request		body	handler.CategoryReq	true	"Category payload"
//	@Success	200	{object}	serializer.Response{data=model.FormCatalogCategory}
//	@Router		/categories/{category_id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "category_id")
	if !ok {
		return
	}

	req := CategoryReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	category, err := h.svc.Update(c.Request.Context(), tenantID, id, req.toInput(actorFrom(c)))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.OK(category))
}

// DeleteCategory godoc
//
//	@Summary	Delete catalog category
//	@Tags		category
//	@Produce	json
//	@Param		category_id	path	string	true	"Category ID"	Format(uuid)
//	@Success	200	{object}	serializer.Response{}
//	@Router		/categories/{category_id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}
	id, ok := pathID(c, "category_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id); err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "ok"})
}
