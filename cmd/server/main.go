// Command server is the settlement backend: it opens the store, starts the
// tick loop, and serves the websocket event channel and the admin REST API on
// one HTTP listener. Shutdown is signal-driven via http.Server.Shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terraforming-mars-backend/internal/adminhttp"
	"terraforming-mars-backend/internal/config"
	"terraforming-mars-backend/internal/eventbus"
	"terraforming-mars-backend/internal/events"
	"terraforming-mars-backend/internal/gameloop"
	"terraforming-mars-backend/internal/gateway"
	"terraforming-mars-backend/internal/logger"
	"terraforming-mars-backend/internal/persistence"
	"terraforming-mars-backend/internal/structureservice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := logger.Init(nil); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Load()
	if cfg.Env != "production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := persistence.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("open store failed", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	hub := eventbus.NewHub()
	domainBus := events.NewInMemoryEventBusWithWorkers(8, 64)
	structures := structureservice.New(store, hub)
	hub.Dispatcher = gateway.New(store, hub, structures)

	loop := gameloop.New(store, hub, domainBus, cfg.TickInterval(), cfg.TickInterval())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go loop.Run(ctx)

	api := adminhttp.New(store, structures, cfg, config.LoadTemplates())
	api.Connections = hub
	router := api.Router()
	router.GET("/ws", func(c *gin.Context) {
		eventbus.NewHandler(hub, store).ServeWS(c.Writer, c.Request)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = domainBus.Close()
	}()

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}
