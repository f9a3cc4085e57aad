package routes

import (
	"hostwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterReportRoutes(r gin.IRouter, api *controllers.API) {
	r.GET("/report", api.GetReport)
	r.POST("/report/export", api.ExportReport)
	r.GET("/alerts", api.GetAlerts)
}

// RegisterWebSocketRoutes registers the live snapshot stream.
func RegisterWebSocketRoutes(r gin.IRouter, api *controllers.API) {
	r.GET("/ws", api.HandleWebSocket)
}
