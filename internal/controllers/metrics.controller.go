package controllers

import (
	"net/http"

	"hostwatch/internal/models"

	"github.com/gin-gonic/gin"
)

func (a *API) latest(c *gin.Context) (models.Snapshot, bool) {
	snap, ok := a.Snapshots.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot collected yet"})
		return models.Snapshot{}, false
	}
	return snap, true
}

// reading writes one category of the latest snapshot, or 503 when that
// category could not be sampled.
func (a *API) reading(c *gin.Context, name string, pick func(models.Snapshot) (any, bool)) {
	snap, ok := a.latest(c)
	if !ok {
		return
	}
	v, ok := pick(snap)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": name + " reading unavailable"})
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetStatus returns the latest complete snapshot.
func (a *API) GetStatus(c *gin.Context) {
	snap, ok := a.latest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *API) GetCPU(c *gin.Context) {
	a.reading(c, "cpu", func(s models.Snapshot) (any, bool) { return s.CPU, s.CPU != nil })
}

func (a *API) GetMemory(c *gin.Context) {
	a.reading(c, "memory", func(s models.Snapshot) (any, bool) { return s.Memory, s.Memory != nil })
}

func (a *API) GetGPU(c *gin.Context) {
	a.reading(c, "gpu", func(s models.Snapshot) (any, bool) { return s.GPU, s.GPU != nil })
}

// GetDisk returns usage, SMART labels and throughput together.
func (a *API) GetDisk(c *gin.Context) {
	a.reading(c, "disk", func(s models.Snapshot) (any, bool) {
		return gin.H{
			"usage":  s.Disk,
			"health": s.DiskHealth,
			"io":     s.DiskIO,
		}, s.Disk != nil || s.DiskIO != nil
	})
}

func (a *API) GetNetwork(c *gin.Context) {
	a.reading(c, "network", func(s models.Snapshot) (any, bool) { return s.Network, s.Network != nil })
}

func (a *API) GetUptime(c *gin.Context) {
	a.reading(c, "uptime", func(s models.Snapshot) (any, bool) { return s.Uptime, s.Uptime != nil })
}
