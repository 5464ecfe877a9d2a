package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avfleet/avfleet/internal/model"
)

// maxBodySize caps intake request bodies at 10MB.
const maxBodySize = 10 << 20

func (s *Server) handleIngest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	var req model.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	accepted, err := s.intake.Ingest(&req)
	if err != nil {
		if ve, ok := model.AsValidationError(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Validation Error",
				"details": ve.Details,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   fmt.Sprintf("%d logs processed successfully", accepted),
		"clientId":  req.ClientID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleQueryLogs(c *gin.Context) {
	filter := model.LogFilter{
		Level:     c.Query("level"),
		ClientID:  c.Query("clientId"),
		Component: c.Query("component"),
	}
	page := model.PageOpts{
		Page:  intQuery(c, "page", 1),
		Limit: intQuery(c, "limit", model.DefaultPageLimit),
	}

	result, err := s.engine.QueryLogs(filter, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDashboard(c *gin.Context) {
	report, err := s.engine.Dashboard(c.DefaultQuery("timeframe", ""))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleThreats(c *gin.Context) {
	report, err := s.engine.Threats(c.DefaultQuery("timeframe", ""))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleClients(c *gin.Context) {
	includeInactive := c.Query("includeInactive") == "true"
	report, err := s.engine.Clients(c.DefaultQuery("timeframe", ""), includeInactive, intQuery(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unavailable",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"database":  "connected",
		"uptime":    time.Since(s.startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// intQuery reads an integer query parameter, falling back to def for
// missing or unparseable values.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
