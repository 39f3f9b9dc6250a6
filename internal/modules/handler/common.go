// Package handler exposes the HTTP API. Every route lives under a
// tenant scope: middleware resolves the tenant from the X-Tenant-ID
// header and handlers read it back from the request context.
package handler

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/dynoform/composer/internal/modules/serializer"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Keys become selector path segments, so they must stay dot-free and
// identifier-safe.
var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("keyfmt", func(fl validator.FieldLevel) bool {
		return keyPattern.MatchString(fl.Field().String())
	})
}

const (
	ctxTenantKey = "tenant_id"
	ctxActorKey  = "actor"

	headerTenant = "X-Tenant-ID"
	headerActor  = "X-Actor-ID"
)

// RequireTenant rejects requests without a valid tenant header. The
// actor header is optional and carried through for audit columns.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(headerTenant)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				serializer.ParamErr("missing "+headerTenant+" header", nil))
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				serializer.ParamErr("invalid "+headerTenant+" header", err))
			return
		}
		c.Set(ctxTenantKey, tenantID)
		if actor := c.GetHeader(headerActor); actor != "" {
			c.Set(ctxActorKey, actor)
		}
		c.Next()
	}
}

func tenantFrom(c *gin.Context) (uuid.UUID, error) {
	v, ok := c.Get(ctxTenantKey)
	if !ok {
		return uuid.Nil, errors.New("tenant not resolved")
	}
	tenantID, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("tenant not resolved")
	}
	return tenantID, nil
}

func actorFrom(c *gin.Context) *string {
	v, ok := c.Get(ctxActorKey)
	if !ok {
		return nil
	}
	actor, ok := v.(string)
	if !ok || actor == "" {
		return nil
	}
	return &actor
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

type PageReq struct {
	Limit  int `form:"limit,default=50" json:"limit" example:"50"`
	Offset int `form:"offset,default=0" json:"offset" example:"0"`
}

// abortTenant writes the response for a request that slipped past the
// tenant middleware. It should never fire on a correctly wired router.
func abortTenant(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, serializer.Response{
		Code: serializer.CodeInternalErr, Msg: "internal error", Error: err.Error(),
	})
}
