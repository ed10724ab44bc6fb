// Package server exposes the recruiter and candidate JSON API.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/jobyard/internal/geocode"
	"github.com/zulandar/jobyard/internal/jobboard"
	"github.com/zulandar/jobyard/internal/logger"
	"github.com/zulandar/jobyard/internal/match"
	"github.com/zulandar/jobyard/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB          *gorm.DB
	Port        int
	Out         io.Writer
	Log         *zap.Logger
	Notifier    notify.Notifier  // new-match sink; nil logs only
	Geocoder    geocode.Geocoder // nil disables geocoding on profile save
	CORSOrigins []string
}

// api carries the dependencies shared by handlers.
type api struct {
	db       *gorm.DB
	log      *zap.Logger
	board    *jobboard.Board
	engine   *match.Engine
	geocoder geocode.Geocoder
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("server: db is required")
	}
	log := logger.OrNop(opts.Log).Named("server")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(log))
	if len(opts.CORSOrigins) > 0 {
		router.Use(corsMiddleware(opts.CORSOrigins))
	}

	a := &api{
		db:       opts.DB,
		log:      log,
		board:    &jobboard.Board{DB: opts.DB, Log: opts.Log},
		engine:   &match.Engine{DB: opts.DB, Log: opts.Log, Notifier: opts.Notifier},
		geocoder: opts.Geocoder,
	}
	registerRoutes(router, a)
	return router, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
