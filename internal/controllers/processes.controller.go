package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"hostwatch/internal/services"

	"github.com/gin-gonic/gin"
)

func (a *API) sortOrder() gin.H {
	column, descending := a.Processes.State().Order()
	return gin.H{"column": column, "descending": descending}
}

func (a *API) networkSortOrder() gin.H {
	column, descending := a.Processes.NetworkState().Order()
	return gin.H{"column": column, "descending": descending}
}

// GetTopProcesses returns the process table in the current sort order.
// Query params: limit=N (default: 20)
func (a *API) GetTopProcesses(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 20, services.MaxProcesses)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processes":    a.Processes.Top(limit),
		"total":        a.Processes.Total(),
		"sort":         a.sortOrder(),
		"last_updated": a.Processes.LastUpdated(),
	})
}

// GetNetworkProcesses returns processes holding open connections.
// Query params: limit=N (default: 10)
func (a *API) GetNetworkProcesses(c *gin.Context) {
	limit, ok := queryInt(c, "limit", services.ReportTableLimit, services.NetworkScanLimit)
	if !ok {
		return
	}
	rows, err := a.Processes.NetworkProcesses(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processes":  rows,
		"scan_limit": services.NetworkScanLimit,
		"sort":       a.networkSortOrder(),
	})
}

// SortProcesses selects the sort column; repeating a column flips direction.
// Query params: column=pid|name|memory_mb|memory_percent|cpu_percent
func (a *API) SortProcesses(c *gin.Context) {
	column, err := services.ParseProcessColumn(c.Query("column"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.Processes.State().Toggle(column)
	c.JSON(http.StatusOK, a.sortOrder())
}

// SortNetworkProcesses selects the network table sort column.
// Query params: column=pid|name|connections
func (a *API) SortNetworkProcesses(c *gin.Context) {
	column, err := services.ParseNetworkColumn(c.Query("column"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.Processes.NetworkState().Toggle(column)
	c.JSON(http.StatusOK, a.networkSortOrder())
}

// TerminateProcess asks a process to exit and kills it if it ignores the request.
func (a *API) TerminateProcess(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 32)
	if err != nil || pid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pid must be a positive integer"})
		return
	}

	err = a.Processes.Terminate(c.Request.Context(), int32(pid))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"pid": pid, "terminated": true})
	case errors.Is(err, services.ErrNoSuchProcess):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAccessDenied):
		log.Printf("[SECURITY] Terminate denied for pid %d from %s", pid, c.ClientIP())
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTerminateUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
