package controllers

import (
	"errors"
	"net/http"
	"time"

	"hostwatch/internal/models"
	"hostwatch/internal/services"

	"github.com/gin-gonic/gin"
)

// maxWindowMinutes bounds the window accepted by history and report queries.
const maxWindowMinutes = 24 * 60

// ListSeries returns the ids of every known series.
func (a *API) ListSeries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"series":   a.History.IDs(),
		"capacity": a.History.Capacity(),
		"interval": a.Interval.String(),
	})
}

// GetSeries returns one series, optionally only its newest points.
// Query params: points=N
func (a *API) GetSeries(c *gin.Context) {
	id := models.SeriesID(c.Param("series"))

	data, err := a.History.Series(id)
	if errors.Is(err, services.ErrUnknownSeries) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if _, given := c.GetQuery("points"); given {
		points, ok := queryInt(c, "points", 0, a.History.Capacity())
		if !ok {
			return
		}
		data.Values = a.History.ReadWindow(id, points)
	}
	c.JSON(http.StatusOK, data)
}

// GetWindow returns every series trimmed to the last M minutes.
// Query params: minutes=M (default: 5)
func (a *API) GetWindow(c *gin.Context) {
	minutes, ok := queryInt(c, "minutes", 5, maxWindowMinutes)
	if !ok {
		return
	}
	points := services.WindowPoints(time.Duration(minutes)*time.Minute, a.Interval)

	data := make(map[models.SeriesID][]float64)
	for _, id := range a.History.IDs() {
		data[id] = a.History.ReadWindow(id, points)
	}
	c.JSON(http.StatusOK, gin.H{
		"minutes": minutes,
		"points":  points,
		"data":    data,
	})
}
