package routes

import (
	"hostwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterProcessRoutes(r gin.IRouter, api *controllers.API) {
	processes := r.Group("/processes")
	{
		processes.GET("/", api.GetTopProcesses)
		processes.GET("/network", api.GetNetworkProcesses)
		processes.POST("/sort", api.SortProcesses)
		processes.POST("/network/sort", api.SortNetworkProcesses)
		processes.POST("/:pid/terminate", api.TerminateProcess)
	}
}
