// Propelus taxonomy pipeline server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/audit"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/callback"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/config"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/api/rest"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/cache"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/logger"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/scheduler"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/storage"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/coordinator"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/mapping"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)

	appLogger.Info("starting propelus taxonomy server",
		"version", "1.0.0",
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	dbConfig := &storage.Config{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MinConnections,
		ConnMaxLifetime: cfg.Database.MaxConnLifetime,
		ConnMaxIdleTime: cfg.Database.MaxIdleTime,
		Debug:           cfg.Database.Debug || cfg.Logging.Level == "debug",
	}

	db, err := storage.NewDB(ctx, dbConfig)
	if err != nil {
		appLogger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer storage.Close(db)

	appLogger.Info("database connected", "max_conns", cfg.Database.MaxConnections)

	var redisCache *cache.RedisCache
	redisCache, err = cache.NewRedisCache(cfg.Redis)
	if err != nil {
		appLogger.Warn("redis cache unavailable, continuing without it", "error", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
		appLogger.Info("redis cache connected")
	}

	// Repositories (C6/C7/C8/C9/C10/C11 persistence).
	hierarchyRepo := storage.NewHierarchyRepository(db)
	loadRepo := storage.NewLoadRepository(db)
	taxonomyRepo := storage.NewTaxonomyRepository(db)
	versionRepo := storage.NewVersionRepository(db)
	mappingRepo := storage.NewMappingRepository(db)
	promotionRepo := storage.NewPromotionRepository(db)
	auditRepo := storage.NewAuditRepository(db)
	advisoryLocker := storage.NewAdvisoryLocker(db)

	appLogger.Info("repositories initialized")

	// C8: version engine, guarded by a per-taxonomy advisory lock.
	versionEngine := version.New(versionRepo, advisoryLocker)

	// C11: audit log, attributed to the service identity (requests carry
	// their own owner id; this is the actor recorded against the entry).
	auditRecorder := audit.New(auditRepo, "taxonomy-server")

	// Every silver/gold mutation site named in §4.11 gets the recorder
	// wired in: hierarchy upserts (C6) and version close/open (C8),
	// alongside the load-close snapshot the coordinator already takes.
	hierarchyRepo = hierarchyRepo.WithAudit(auditRecorder)
	versionEngine = versionEngine.WithAudit(auditRecorder)

	// C9: the mapping cascade, in the fixed exact -> nlp_qualifier ->
	// fuzzy -> semantic order (§4.9). No semantic matcher is wired here —
	// the vendor behind SemanticStrategy is an external collaborator this
	// service never assumes anything about, and none of the retrieved
	// dependencies implement one; the cascade simply runs without that
	// last-resort strategy until one is configured.
	vocab := mapping.NewVocabulary()
	cascade := mapping.DefaultCascade(vocab, nil, int(cfg.Mapping.SemanticMatcherTimeout.Seconds()))
	mappingEngine := mapping.NewEngine(mapping.Config{
		Rules:       mappingRepo,
		Candidates:  mappingRepo,
		Attributes:  mappingRepo,
		Filter:      mapping.NewFilterEvaluator(),
		Store:       mappingRepo,
		Cascade:     cascade,
		Concurrency: cfg.Mapping.SemanticMatcherConcurrency,
	}).WithAudit(auditRecorder)

	if cfg.Mapping.RuleAssignmentSeedPath != "" {
		seedBytes, err := os.ReadFile(cfg.Mapping.RuleAssignmentSeedPath)
		if err != nil {
			appLogger.Warn("mapping rule seed unreadable, skipping", "path", cfg.Mapping.RuleAssignmentSeedPath, "error", err)
		} else {
			seed, err := mapping.ParseSeed(seedBytes)
			if err != nil {
				appLogger.Warn("mapping rule seed invalid, skipping", "path", cfg.Mapping.RuleAssignmentSeedPath, "error", err)
			} else if err := storage.ApplyMappingSeed(ctx, db, hierarchyRepo, seed); err != nil {
				appLogger.Error("failed to apply mapping rule seed", "error", err)
			} else {
				appLogger.Info("mapping rule seed applied", "path", cfg.Mapping.RuleAssignmentSeedPath)
			}
		}
	}

	// C10: promotion projector, also reachable from the scheduler's
	// recurring rerun.
	projector := mapping.NewProjector(promotionRepo)

	// Signed callback notifier; disabled (nil) when no secret is
	// configured, since an unsigned callback would be meaningless.
	var notifier *callback.Notifier
	if cfg.Callback.SigningSecret != "" {
		notifier = callback.New(http.DefaultClient, cfg.Callback.SigningSecret, cfg.Callback.TokenTTL)
	} else {
		appLogger.Warn("callback signing secret not configured, load callbacks disabled")
	}

	// C12: the coordinator sequencing one load's rows end to end, through
	// C7/C8/C9/C11 and out to the callback notifier.
	coord := coordinator.New(coordinator.Config{
		Loads:      loadRepo,
		Rows:       loadRepo,
		Taxonomies: taxonomyRepo,
		Hierarchy:  hierarchyRepo,
		Dict:       hierarchyRepo,
		Versions:   versionEngine,
		Audit:      auditRecorder,
		Callback:   notifier,
		Reprocess:  mapping.NoopReprocessingPolicy{},
		Mapper:     mappingEngine,
		Tx:         storage.NewTxRunner(db, "taxonomy-server"),
	})

	appLogger.Info("pipeline coordinator initialized")

	// Background scheduler: C10 projector reruns and the stale-load sweep
	// (§5 "outside the request path").
	sched, err := scheduler.New(scheduler.Config{
		Projector: projector,
		Loads:     loadRepo,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error("failed to initialize scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()
	appLogger.Info("background scheduler started")

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	recoveryMiddleware := rest.NewRecoveryMiddleware(appLogger)
	loggingMiddleware := rest.NewLoggingMiddleware(appLogger)
	bodySizeMiddleware := rest.NewBodySizeMiddleware(appLogger, 10<<20) // 10 MiB
	apiKeyMiddleware := rest.NewAPIKeyMiddleware(cfg.Server.APIKeys)

	router.Use(recoveryMiddleware.Recovery())
	router.Use(loggingMiddleware.RequestLogger())
	router.Use(bodySizeMiddleware.LimitBodySize())

	if cfg.Server.CORS {
		router.Use(func(c *gin.Context) {
			origin := "*"
			if len(cfg.Server.CORSAllowedOrigins) > 0 {
				origin = cfg.Server.CORSAllowedOrigins[0]
			}
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
			c.Writer.Header().Set("Access-Control-Max-Age", "86400")
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
		})
		appLogger.Info("CORS enabled")
	}

	if redisCache != nil {
		redisLimiter := rest.NewRedisRateLimiter(redisCache.Client(), "ingest", 60, time.Minute, 5*time.Minute)
		router.Use(redisLimiter.Middleware())
	} else {
		ingestLimiter := rest.NewRateLimiter(60, time.Minute, 5*time.Minute)
		router.Use(ingestLimiter.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		healthCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := storage.Ping(healthCtx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": fmt.Sprintf("database: %s", err.Error())})
			return
		}
		if redisCache != nil {
			if err := redisCache.Health(healthCtx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": fmt.Sprintf("redis: %s", err.Error())})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/metrics", func(c *gin.Context) {
		dbStats := storage.Stats(db)
		metrics := gin.H{
			"database": gin.H{
				"open_connections": dbStats.OpenConnections,
				"in_use":           dbStats.InUse,
				"idle":             dbStats.Idle,
				"max_open_conns":   dbStats.MaxOpenConnections,
			},
		}
		if redisCache != nil {
			cacheStats := redisCache.Stats()
			metrics["redis"] = gin.H{
				"hits":        cacheStats.Hits,
				"misses":      cacheStats.Misses,
				"total_conns": cacheStats.TotalConns,
				"idle_conns":  cacheStats.IdleConns,
			}
		}
		c.JSON(http.StatusOK, gin.H{"metrics": metrics})
	})

	ingestHandlers := rest.NewIngestHandlers(coord, loadRepo, appLogger)
	mappingHandlers := rest.NewMappingHandlers(mappingRepo)

	apiV1 := router.Group("/api/v1")
	apiV1.Use(apiKeyMiddleware.RequireAPIKey())
	{
		apiV1.POST("/loads", ingestHandlers.HandleIngest)
		apiV1.GET("/loads/:id", ingestHandlers.HandleGetLoad)
		apiV1.GET("/loads/:id/rows", ingestHandlers.HandleGetLoadRows)

		apiV1.GET("/nodes/:id/mapping", mappingHandlers.HandleGetNodeMapping)
	}

	appLogger.Info("REST API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("http server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		appLogger.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		appLogger.Info("server shutdown initiated", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		sched.Stop()

		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("graceful shutdown failed", "error", err)
			if err := server.Close(); err != nil {
				appLogger.Error("server close failed", "error", err)
			}
		}

		appLogger.Info("server stopped")
	}
}
