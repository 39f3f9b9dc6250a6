package handler

import (
	"io"
	"net/http"

	"github.com/dynoform/composer/internal/modules/serializer"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/gin-gonic/gin"
)

type MarketplaceHandler struct {
	svc service.MarketplaceService
}

func NewMarketplaceHandler(s service.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{svc: s}
}

// manifests are small; cap the body read well below any real package size
const maxManifestBytes = 1 << 20

// InstallPackage godoc
//
//	@Summary		Install marketplace package
//	@Description	Install a YAML package manifest: field definitions and components land published with marketplace provenance
//	@Tags			marketplace
//	@Accept			application/x-yaml
//	@Produce		json
//	@Param			manifest	body	string	true	"Package manifest YAML"
//	@Success		201	{object}	serializer.Response{data=service.InstallResult}
//	@Router			/marketplace/install [post]
func (h *MarketplaceHandler) InstallPackage(c *gin.Context) {
	tenantID, err := tenantFrom(c)
	if err != nil {
		abortTenant(c, err)
		return
	}

	manifest, err := io.ReadAll(io.LimitReader(c.Request.Body, maxManifestBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("read manifest body", err))
		return
	}
	if len(manifest) == 0 {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("manifest body is required", nil))
		return
	}

	result, err := h.svc.Install(c.Request.Context(), tenantID, manifest, actorFrom(c))
	if err != nil {
		c.JSON(serializer.Err(err))
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(result))
}
