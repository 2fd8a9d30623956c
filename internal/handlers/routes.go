package handlers

import (
	"catalog-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Routes groups the API handlers mounted under /api/v1
type Routes struct {
	Categories *CategoryHandler
	Attributes *AttributeHandler
	Imports    *ImportHandler
	Exports    *ExportHandler

	// Throttle, when set, guards the upload and export endpoints
	Throttle gin.HandlerFunc
}

// Register mounts every catalog route on api. The group must already carry
// auth and tenant middleware.
func (r *Routes) Register(api *gin.RouterGroup) {
	admin := middleware.RequireAnyRole("admin", "catalog_admin")

	categories := api.Group("/categories")
	{
		categories.GET("/tree", r.Categories.GetTree)
		categories.GET("", r.Categories.ListCategories)
		categories.GET("/:id", r.Categories.GetCategory)
		categories.POST("", admin, r.Categories.CreateCategory)
		categories.PUT("/:id", admin, r.Categories.UpdateCategory)
		categories.PUT("/:id/sort-order", admin, r.Categories.UpdateSortOrder)
		categories.PUT("/:id/active", admin, r.Categories.SetActive)
		categories.DELETE("/:id", admin, r.Categories.DeleteCategory)

		categories.GET("/:id/attributes", r.Attributes.GetForCategory)
		categories.GET("/:id/attributes/linkable", r.Attributes.GetLinkable)
		categories.POST("/:id/attributes", admin, r.Attributes.AddOrLink)
		categories.POST("/:id/attributes/:definitionId", admin, r.Attributes.LinkExisting)
		categories.DELETE("/:id/attributes/:definitionId", admin, r.Attributes.Unlink)
	}

	attributes := api.Group("/attributes")
	{
		attributes.POST("/batch", r.Attributes.GetForCategories)
		attributes.PUT("/:id", admin, r.Attributes.UpdateDefinition)
		attributes.PUT("/:id/deprecated", admin, r.Attributes.SetDeprecated)
	}

	throttle := r.Throttle
	if throttle == nil {
		throttle = func(c *gin.Context) { c.Next() }
	}

	products := api.Group("/products")
	products.Use(middleware.SellerMiddleware())
	{
		products.GET("/import/template", r.Imports.GetImportTemplate)
		products.POST("/import/preview", throttle, r.Imports.PreviewImport)
		products.POST("/import", throttle, r.Imports.UploadImport)
		products.GET("/import/jobs", r.Imports.ListImportJobs)
		products.GET("/import/jobs/:id", r.Imports.GetImportJob)
		products.POST("/import/jobs/:id/confirm", r.Imports.ConfirmImport)

		products.POST("/export", throttle, r.Exports.QueueExport)
		products.GET("/export/jobs", r.Exports.ListExportJobs)
		products.GET("/export/jobs/:id", r.Exports.GetExportJob)
		products.GET("/export/jobs/:id/download", r.Exports.DownloadExport)
	}
}
