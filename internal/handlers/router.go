package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kpierre24/studio-sub001/internal/dashboard"
	"github.com/kpierre24/studio-sub001/internal/exports"
	"github.com/kpierre24/studio-sub001/internal/integration"
	"github.com/kpierre24/studio-sub001/internal/realtime"
	"github.com/kpierre24/studio-sub001/internal/reports"
	"github.com/kpierre24/studio-sub001/internal/repositories"
	"github.com/kpierre24/studio-sub001/internal/utils"
)

type HandlerManager struct {
	reportHandler      *ReportHandler
	dashboardHandler   *DashboardHandler
	realtimeHandler    *RealtimeHandler
	exportHandler      *ExportHandler
	integrationHandler *IntegrationHandler
}

func NewHandlerManager(
	generator *reports.Generator,
	datasets repositories.DatasetRepository,
	dashboards *dashboard.Manager,
	realtimeManager *realtime.Manager,
	exportManager *exports.Manager,
	integrationManager *integration.Manager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		reportHandler:      NewReportHandler(generator, datasets, logger),
		dashboardHandler:   NewDashboardHandler(dashboards, logger),
		realtimeHandler:    NewRealtimeHandler(realtimeManager, logger),
		exportHandler:      NewExportHandler(exportManager, logger),
		integrationHandler: NewIntegrationHandler(integrationManager, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Report routes
		v1.POST("/reports/generate", hm.reportHandler.GenerateReport)

		// Dashboard routes
		dashboards := v1.Group("/dashboards")
		{
			dashboards.POST("", hm.dashboardHandler.SaveLayout)
			dashboards.GET("", hm.dashboardHandler.ListLayouts)
			dashboards.GET("/default/:role", hm.dashboardHandler.GetDefaultLayout)
			dashboards.GET("/:id", hm.dashboardHandler.GetLayout)
			dashboards.PUT("/:id", hm.dashboardHandler.SaveLayout)
			dashboards.DELETE("/:id", hm.dashboardHandler.DeleteLayout)
		}

		// Widget routes
		widgets := v1.Group("/widgets")
		{
			widgets.POST("", hm.dashboardHandler.SaveWidget)
			widgets.GET("/:id", hm.dashboardHandler.GetWidget)
			widgets.DELETE("/:id", hm.dashboardHandler.DeleteWidget)
			widgets.POST("/:id/data", hm.dashboardHandler.ShapeWidgetData)
		}

		// Realtime source routes
		sources := v1.Group("/realtime/sources")
		{
			sources.POST("", hm.realtimeHandler.RegisterSource)
			sources.GET("", hm.realtimeHandler.ListSources)
			sources.GET("/:id", hm.realtimeHandler.GetSource)
			sources.PUT("/:id", hm.realtimeHandler.UpdateSource)
			sources.DELETE("/:id", hm.realtimeHandler.RemoveSource)
			sources.GET("/:id/data", hm.realtimeHandler.GetCachedPayload)
		}

		// Export routes
		exportsGroup := v1.Group("/exports")
		{
			exportsGroup.POST("", hm.exportHandler.CreateExport)
			exportsGroup.POST("/batch", hm.exportHandler.CreateBatchExport)
			exportsGroup.POST("/sweep", hm.exportHandler.SweepExpired)
			exportsGroup.POST("/schedules", hm.exportHandler.ScheduleExport)
			exportsGroup.GET("/schedules", hm.exportHandler.ListSchedules)
			exportsGroup.GET("/:id", hm.exportHandler.GetExport)
		}

		// Integration routes
		integrations := v1.Group("/integrations")
		{
			integrations.POST("", hm.integrationHandler.RegisterAPI)
			integrations.GET("", hm.integrationHandler.ListAPIs)
			integrations.POST("/:name/export", hm.integrationHandler.ExportToExternalSystem)
			integrations.POST("/:name/import", hm.integrationHandler.ImportFromExternalSystem)
			integrations.GET("/:name/health", hm.integrationHandler.CheckAPIHealth)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "analytics-engine",
		})
	})
}
