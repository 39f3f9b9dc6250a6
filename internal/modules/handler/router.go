package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Handlers struct {
	Category    *CategoryHandler
	FieldDef    *FieldDefHandler
	Component   *ComponentHandler
	Form        *FormHandler
	Render      *RenderHandler
	Submission  *SubmissionHandler
	Marketplace *MarketplaceHandler
}

// NewRouter builds the gin engine with tracing, the tenant middleware
// and every API route mounted under /api/v1.
func NewRouter(serviceName string, h Handlers) *gin.Engine {
	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	api := r.Group("/api/v1")
	api.Use(RequireTenant())

	categories := api.Group("/categories")
	{
		categories.POST("", h.Category.CreateCategory)
		categories.GET("", h.Category.ListCategories)
		categories.GET("/:category_id", h.Category.GetCategory)
		categories.PUT("/:category_id", h.Category.UpdateCategory)
		categories.DELETE("/:category_id", h.Category.DeleteCategory)
	}

	fieldDefs := api.Group("/field-defs")
	{
		fieldDefs.POST("", h.FieldDef.CreateFieldDef)
		fieldDefs.GET("", h.FieldDef.ListFieldDefs)
		fieldDefs.GET("/:field_def_id", h.FieldDef.GetFieldDef)
		fieldDefs.PATCH("/:field_def_id", h.FieldDef.UpdateFieldDef)
		fieldDefs.DELETE("/:field_def_id", h.FieldDef.DeleteFieldDef)
		fieldDefs.POST("/:field_def_id/versions", h.FieldDef.NewFieldDefVersion)
		fieldDefs.POST("/:field_def_id/publish", h.FieldDef.PublishFieldDef)
		fieldDefs.POST("/:field_def_id/archive", h.FieldDef.ArchiveFieldDef)
		fieldDefs.POST("/:field_def_id/options", h.FieldDef.AddFieldDefOption)
		fieldDefs.PUT("/:field_def_id/options/:option_id", h.FieldDef.UpdateFieldDefOption)
		fieldDefs.DELETE("/:field_def_id/options/:option_id", h.FieldDef.DeleteFieldDefOption)
	}

	components := api.Group("/components")
	{
		components.POST("", h.Component.CreateComponent)
		components.GET("", h.Component.ListComponents)
		components.GET("/:component_id", h.Component.GetComponent)
		components.PATCH("/:component_id", h.Component.UpdateComponent)
		components.DELETE("/:component_id", h.Component.DeleteComponent)
		components.POST("/:component_id/versions", h.Component.NewComponentVersion)
		components.POST("/:component_id/publish", h.Component.PublishComponent)
		components.POST("/:component_id/archive", h.Component.ArchiveComponent)
		components.POST("/:component_id/panels", h.Component.AddComponentPanel)
		components.GET("/:component_id/panels", h.Component.ListComponentPanels)
	}

	componentPanels := api.Group("/component-panels")
	{
		componentPanels.PATCH("/:panel_id", h.Component.UpdateComponentPanel)
		componentPanels.DELETE("/:panel_id", h.Component.DeleteComponentPanel)
		componentPanels.POST("/:panel_id/fields", h.Component.PlaceComponentField)
	}

	componentFields := api.Group("/component-panel-fields")
	{
		componentFields.PATCH("/:placement_id", h.Component.UpdateComponentPlacement)
		componentFields.DELETE("/:placement_id", h.Component.RemoveComponentPlacement)
		componentFields.POST("/:placement_id/reimprint", h.Component.ReimprintComponentPlacement)
		componentFields.GET("/:placement_id/drift", h.Component.ComponentPlacementDrift)
	}

	forms := api.Group("/forms")
	{
		forms.POST("", h.Form.CreateForm)
		forms.GET("", h.Form.ListForms)
		forms.GET("/:form_id", h.Form.GetForm)
		forms.PATCH("/:form_id", h.Form.UpdateForm)
		forms.DELETE("/:form_id", h.Form.DeleteForm)
		forms.POST("/:form_id/versions", h.Form.NewFormVersion)
		forms.POST("/:form_id/publish", h.Form.PublishForm)
		forms.POST("/:form_id/archive", h.Form.ArchiveForm)
		forms.POST("/:form_id/panels", h.Form.AddFormPanel)
		forms.GET("/:form_id/panels", h.Form.ListFormPanels)
		forms.GET("/:form_id/render", h.Render.RenderForm)
		forms.POST("/:form_id/export", h.Render.ExportForm)
		forms.POST("/:form_id/submissions", h.Submission.CreateSubmission)
		forms.GET("/:form_id/submissions", h.Submission.ListSubmissions)
	}

	formPanels := api.Group("/form-panels")
	{
		formPanels.PATCH("/:panel_id", h.Form.UpdateFormPanel)
		formPanels.DELETE("/:panel_id", h.Form.DeleteFormPanel)
		formPanels.PUT("/:panel_id/overrides", h.Form.SetFormPanelOverrides)
		formPanels.POST("/:panel_id/fields", h.Form.PlaceFormField)
		formPanels.POST("/:panel_id/components", h.Form.EmbedComponent)
	}

	formFields := api.Group("/form-panel-fields")
	{
		formFields.PATCH("/:placement_id", h.Form.UpdateFormPlacement)
		formFields.DELETE("/:placement_id", h.Form.RemoveFormPlacement)
		formFields.POST("/:placement_id/reimprint", h.Form.ReimprintFormPlacement)
		formFields.GET("/:placement_id/drift", h.Form.FormPlacementDrift)
	}

	instances := api.Group("/form-panel-components")
	{
		instances.PATCH("/:instance_id", h.Form.UpdateInstance)
		instances.DELETE("/:instance_id", h.Form.RemoveInstance)
		instances.PUT("/:instance_id/overrides", h.Form.SetInstanceOverrides)
	}

	submissions := api.Group("/submissions")
	{
		submissions.GET("/:submission_id", h.Submission.GetSubmission)
		submissions.DELETE("/:submission_id", h.Submission.DeleteSubmission)
		submissions.POST("/:submission_id/submit", h.Submission.SubmitSubmission)
		submissions.POST("/:submission_id/reopen", h.Submission.ReopenSubmission)
		submissions.POST("/:submission_id/archive", h.Submission.ArchiveSubmission)
		submissions.PUT("/:submission_id/values", h.Submission.UpsertValue)
		submissions.GET("/:submission_id/values", h.Submission.ListValues)
		submissions.DELETE("/:submission_id/values/:value_id", h.Submission.DeleteValue)
	}

	api.POST("/marketplace/install", h.Marketplace.InstallPackage)

	return r
}
