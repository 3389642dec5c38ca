package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	webrtc "github.com/pion/webrtc/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dcprobe/internal/core/services"
	httphandlers "dcprobe/internal/handlers/http"
	"dcprobe/internal/infrastructure/middleware"
	"dcprobe/internal/infrastructure/monitoring"
	webrtcinfra "dcprobe/internal/infrastructure/webrtc"
	"dcprobe/pkg/config"
	"dcprobe/pkg/logger"
	"dcprobe/pkg/tracing"
)

func main() {
	startTime := time.Now()

	configPath := flag.String("config", "", "path to config file")
	addr := flag.String("addr", "", "listen address override")
	staticDir := flag.String("static-dir", "", "directory containing dc-test.html/js")
	flag.Parse()

	// Try multiple config paths when none is given explicitly.
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}
	if *configPath != "" {
		configPaths = []string{*configPath}
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *staticDir != "" {
		cfg.Server.StaticDir = *staticDir
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "dcprobe",
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// WebRTC engine configuration (STUN/TURN from config when present).
	var iceServers []webrtc.ICEServer
	for _, s := range cfg.WebRTC.ICEServers {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}

	engineCfg := webrtcinfra.Config{
		ICEServers:          iceServers,
		DisconnectedTimeout: cfg.WebRTC.DisconnectedTimeout,
		FailedTimeout:       cfg.WebRTC.FailedTimeout,
		KeepAliveInterval:   cfg.WebRTC.KeepAliveInterval,
	}
	engineCfg.PortRange.Min = cfg.WebRTC.PortRange.Min
	engineCfg.PortRange.Max = cfg.WebRTC.PortRange.Max

	engine, err := webrtcinfra.NewPionEngine(engineCfg, log)
	if err != nil {
		log.Fatalw("failed to create WebRTC engine", "error", err)
	}

	// Wire the session core.
	registry := prometheus.NewRegistry()
	collector := monitoring.NewPrometheusCollector(registry)
	stats := services.NewStatsRegistry()
	router := services.NewChannelRouter(stats, collector, log)
	dispatcher := services.NewScenarioDispatcher(router, cfg.Session.MaxServerChannels, log)
	session := services.NewSessionService(engine, dispatcher, router, stats, collector, cfg.Session.AnswerTimeout, log)

	sessionHandler := httphandlers.NewSessionHandler(session, log)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(middleware.RecoveryMiddleware(log))
	ginRouter.Use(middleware.ErrorHandlerMiddleware(log))
	ginRouter.Use(middleware.RequestIDMiddleware())
	if cfg.Tracing.Enabled {
		ginRouter.Use(middleware.TracingMiddleware())
	}
	ginRouter.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	sessionHandler.SetupRoutes(ginRouter)

	// Browser-side test driver assets.
	ginRouter.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.Server.StaticDir, "dc-test.html"))
	})
	ginRouter.GET("/dc-test.js", func(c *gin.Context) {
		c.File(filepath.Join(cfg.Server.StaticDir, "dc-test.js"))
	})

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})
	ginRouter.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Monitoring.PrometheusEnabled {
		ginRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      ginRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting dcprobe server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down dcprobe server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	}

	// Release the live peer connection, if any.
	session.Reset()

	if err := tracerProvider.Shutdown(context.Background()); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("dcprobe server stopped")
}
