package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, a *api) {
	router.GET("/healthz", a.handleHealth)

	// Jobs and stages.
	router.POST("/jobs", a.handleCreateJob)
	router.GET("/jobs/:id/board", a.handleBoard)
	router.POST("/jobs/:id/applications", a.handleApply)
	router.GET("/jobs/:id/stages", a.handleListStages)
	router.POST("/jobs/:id/stages", a.handleCreateStage)
	router.POST("/jobs/:id/stages/defaults", a.handleCreateDefaultStages)

	// Pipeline.
	router.POST("/applications/:id/pipeline", a.handleEnsureEntry)
	router.GET("/applications/:id/pipeline", a.handleGetEntry)
	router.POST("/applications/:id/pipeline/move", a.handleMove)
	router.GET("/applications/:id/pipeline/history", a.handleHistory)
	router.GET("/pipelines/:entry", a.handleGetEntryByID)

	// Candidates.
	router.PUT("/candidates/:id/profile", a.handleSaveProfile)

	// Saved searches and matches.
	router.POST("/recruiters/:id/searches", a.handleCreateSearch)
	router.GET("/recruiters/:id/searches", a.handleListSearches)
	router.DELETE("/recruiters/:id/searches/:sid", a.handleDeleteSearch)
	router.POST("/recruiters/:id/searches/run", a.handleRunSearch)
	router.GET("/recruiters/:id/searches/:sid/matches", a.handleListMatches)
}

func (a *api) handleHealth(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, fmt.Errorf("invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return uint(v), true
}
