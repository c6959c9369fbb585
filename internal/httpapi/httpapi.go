// Package httpapi implements the HTTP adapter: JSON routes over
// the core (Project/Dispatcher/Jobs), with no logic of its own beyond
// request parsing, project resolution, and status-code translation.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cuemap/cuemap/internal/jobs"
	"github.com/cuemap/cuemap/internal/security"
	"github.com/cuemap/cuemap/internal/tenant"
)

const (
	serviceName        = "cuemap"
	serviceVersion     = "0.1.0"
	serviceDescription = "In-memory temporal-associative memory store: keyed content recalled by weighted cue intersection."
)

// Server bundles the dependencies every route handler needs: the tenant
// dispatcher (project lookup/creation), the background job queue (enqueued
// from the write paths), and the read-only flag set by --load-static.
type Server struct {
	Tenant   *tenant.Dispatcher
	Jobs     *jobs.Queue
	ReadOnly bool
}

// MountRoutes wires every public endpoint onto r, plus the ambient
// health/ready/metrics trio.
func MountRoutes(r *gin.Engine, s *Server, auth gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ready"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := r.Group("/", auth)

	g.GET("/", s.handleRoot)
	g.POST("/memories", s.readOnlyGuard(), s.handleCreateMemory)
	g.POST("/recall", s.handleRecall)
	g.PATCH("/memories/:id/reinforce", s.readOnlyGuard(), s.handleReinforce)
	g.GET("/memories/:id", s.handleGetMemory)
	g.GET("/stats", s.handleStats)
	g.POST("/recall/grounded", s.handleRecallGrounded)
	g.GET("/projects", s.handleListProjects)
	g.DELETE("/projects/:id", s.readOnlyGuard(), s.handleDeleteProject)
}

// readOnlyGuard rejects mutation requests with 403 when the server was
// started with --load-static.
func (s *Server) readOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.ReadOnly {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "server is running in read-only mode"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        serviceName,
		"version":     serviceVersion,
		"description": serviceDescription,
	})
}

// requestProjectID reads the X-Project-ID header a multi-tenant request
// uses to select its Project; empty in single-tenant mode is fine since the
// Dispatcher ignores it there.
func requestProjectID(c *gin.Context) string {
	return c.GetHeader("X-Project-ID")
}

func observeLatency(operation string, start time.Time) {
	security.ObserveStoreLatency(operation, time.Since(start).Seconds())
}
