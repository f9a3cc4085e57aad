package routes

import (
	"hostwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterMetricsRoutes(r gin.IRouter, api *controllers.API) {
	metrics := r.Group("/metrics")
	{
		metrics.GET("/", api.GetStatus)
		metrics.GET("/cpu", api.GetCPU)
		metrics.GET("/memory", api.GetMemory)
		metrics.GET("/gpu", api.GetGPU)
		metrics.GET("/disk", api.GetDisk)
		metrics.GET("/network", api.GetNetwork)
		metrics.GET("/uptime", api.GetUptime)
	}
}

func RegisterHistoryRoutes(r gin.IRouter, api *controllers.API) {
	history := r.Group("/history")
	{
		history.GET("/", api.ListSeries)
		history.GET("/window", api.GetWindow)
		history.GET("/:series", api.GetSeries)
	}
}
