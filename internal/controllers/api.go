// Package controllers holds the gin handlers of the local dashboard.
package controllers

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"hostwatch/internal/middleware"
	"hostwatch/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// API carries the components the handlers read from.
type API struct {
	Snapshots services.SnapshotSource
	History   *services.HistoryStore
	Interval  time.Duration
	Reports   *services.ReportBuilder
	Exporter  *services.Exporter
	Alerts    *services.AlertLog
	Processes *services.ProcessCollector
	Hub       *services.WebSocketHub
	Security  *middleware.SecurityLogger

	upgrader websocket.Upgrader
	clientID atomic.Uint64
}

// NewAPI prepares the handlers. The websocket upgrader only accepts
// browser origins on this machine.
func NewAPI(api *API) *API {
	if api.Security == nil {
		api.Security = middleware.NewSecurityLogger()
	}
	api.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.IsLocalOrigin(r.Header.Get("Origin"))
		},
	}
	return api
}

// queryInt reads a non-negative integer query parameter, falling back to def
// when absent. It writes a 400 response and returns false when malformed.
func queryInt(c *gin.Context, name string, def, max int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	if max > 0 && v > max {
		v = max
	}
	return v, true
}
