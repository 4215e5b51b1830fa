package monitor

import (
	"os"

	"github.com/gin-gonic/gin"

	"legal-request-api/config"
)

// RegisterLogsRoute exposes the backend log file for operators. Guarded by a
// token from the environment rather than real auth so it stays usable when
// the database is down.
func RegisterLogsRoute(router *gin.Engine) {
	token := os.Getenv("MONITOR_TOKEN")
	router.GET("/logs", func(c *gin.Context) {
		if token == "" || c.Query("token") != token {
			c.JSON(401, gin.H{"error": "Unauthorized"})
			return
		}
		logData, err := os.ReadFile(config.LogFilePath())
		if err != nil {
			c.JSON(500, gin.H{"error": "Unable to read log"})
			return
		}
		c.Data(200, "text/plain; charset=utf-8", logData)
	})
}
