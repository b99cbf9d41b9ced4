package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pbellini/narrastats/internal/version"
)

// Health reports liveness plus build information.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"built":   version.Date,
		"dirty":   version.Dirty,
	})
}
