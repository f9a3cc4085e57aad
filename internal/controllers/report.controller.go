package controllers

import (
	"net/http"

	"hostwatch/internal/services"

	"github.com/gin-gonic/gin"
)

// GetReport builds a report on demand.
// Query params: window=M minutes (0 for current values only), format=json|text
func (a *API) GetReport(c *gin.Context) {
	window, ok := queryInt(c, "window", 0, maxWindowMinutes)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "text" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or text"})
		return
	}

	report, err := a.Reports.BuildReport(c.Request.Context(), window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if format == "text" {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(services.RenderString(report)))
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportReport writes a report file into the export directory.
// Query params: window=M minutes
func (a *API) ExportReport(c *gin.Context) {
	window, ok := queryInt(c, "window", 0, maxWindowMinutes)
	if !ok {
		return
	}

	path, err := a.Exporter.Export(c.Request.Context(), window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": path})
}

// GetAlerts returns the newest alerts.
// Query params: limit=N (default: 10)
func (a *API) GetAlerts(c *gin.Context) {
	limit, ok := queryInt(c, "limit", services.ReportTableLimit, 1000)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alerts": a.Alerts.Recent(limit),
		"total":  a.Alerts.Len(),
	})
}
