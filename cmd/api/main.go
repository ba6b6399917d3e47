package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/handlers"
	"ecopulse-analytics-api/middleware"
	"ecopulse-analytics-api/modelstore"
	"ecopulse-analytics-api/peer"
	"ecopulse-analytics-api/services"
	"ecopulse-analytics-api/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to mongo
	st, err := store.Connect(ctx, cfg.Mongo, store.RetryPolicy{MaxAttempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay})
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()

	// Redis is optional; without it reads are uncached and the record feed is off
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("redis unavailable, running without cache: %v", err)
	}
	defer cache.Close()

	params, err := modelstore.Open(cfg.Models, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open model store: %v", err)
	}
	// Models retrained by other processes are announced on the records channel
	go cache.WatchModelEvents(ctx, params)

	analytics := services.NewAnalytics(services.AnalyticsSources{
		Records: st.Records(),
		Peer:    selectSource(cfg.Sources.Peer, cfg.Sources, st.Peer()),
		Costs:   selectSource(cfg.Sources.Costs, cfg.Sources, st.Peer()),
	}, params, peerConfig(cfg.Peer))

	auth := services.NewAuthService(cfg.JWT)
	if auth == nil {
		log.Printf("JWT_SECRET not set, write routes are unauthenticated")
	}

	router := newRouter(cfg, handlers.Deps{
		Analytics:       analytics,
		Cache:           cache,
		Auth:            auth,
		Records:         st.Records(),
		Peer:            st.Peer(),
		Recommendations: st.Recommendations(),
		PeerFeedsCosts:  cfg.Sources.Costs != config.SourceXLSX,
	}, st)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(cfg *config.Config, deps handlers.Deps, db pinger) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))
	router.Use(middleware.Metrics())
	router.Use(middleware.RateLimit(cfg.RateLimit))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "EcoPulse Analytics API is running",
			"cache":   deps.Cache.Available(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.Register(router, deps)
	return router
}

// selectSource returns the spreadsheet source when kind is xlsx and the mongo
// collection otherwise.
func selectSource(kind string, cfg config.SourceConfig, collection dataset.Source) dataset.Source {
	if kind == config.SourceXLSX {
		return dataset.XLSXSource{Path: cfg.XLSXPath, Sheet: cfg.XLSXSheet}
	}
	return collection
}

func peerConfig(cfg config.PeerConfig) peer.Config {
	pc := peer.DefaultConfig()
	if cfg.Region != "" {
		pc.Region = cfg.Region
	}
	if len(cfg.Subgrids) > 0 {
		pc.Subgrids = cfg.Subgrids
	}
	return pc
}
