package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/domain/repositories"
	"inkwell/internal/handler"
	"inkwell/internal/middleware"
	"inkwell/internal/repository/bolt"
	"inkwell/internal/repository/postgres"
	"inkwell/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
	)

	// Storage: postgres when a DSN is configured, the embedded bolt store
	// otherwise. Both implement the same repository interfaces.
	var (
		nodeRepo    repositories.NodeRepository
		contentRepo repositories.ContentRepository
		versionRepo repositories.VersionRepository
		txManager   repositories.TransactionManager
		closeStore  func()
	)

	ctx := context.Background()
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		nodeRepo = postgres.NewNodeRepository(pool)
		contentRepo = postgres.NewContentRepository(pool)
		versionRepo = postgres.NewVersionRepository(pool)
		txManager = postgres.NewTransactionManager(pool)
		closeStore = pool.Close
		logger.Info("database connected", "backend", "postgres")
	} else {
		store, err := bolt.New(cfg.BoltPath)
		if err != nil {
			log.Fatalf("Failed to open bolt store: %v", err)
		}
		nodeRepo = bolt.NewNodeRepository(store)
		contentRepo = bolt.NewContentRepository(store)
		versionRepo = bolt.NewVersionRepository(store)
		txManager = store
		closeStore = func() {
			if err := store.Close(); err != nil {
				logger.Error("bolt store close failed", "error", err)
			}
		}
		logger.Info("database connected", "backend", "bolt", "path", cfg.BoltPath)
	}
	defer closeStore()

	// Services
	treeService := service.NewTreeService(nodeRepo, contentRepo, versionRepo, txManager, logger)
	sessionManager := service.NewSessionManager(
		nodeRepo,
		contentRepo,
		cfg.FlushQuiet,
		cfg.FlushMaxWait,
		service.NewClock(),
		service.NewScheduler(),
		func(fileID string, err error) {
			logger.Warn("background flush failed", "file_id", fileID, "error", err)
		},
		logger,
	)
	versionService := service.NewVersionService(versionRepo, nodeRepo, logger)
	gateway := service.NewGateway(treeService, sessionManager, versionService, logger)
	shareService := service.NewShareService(nodeRepo, contentRepo, logger)
	importService := service.NewImportService(treeService, gateway, logger)

	// Handlers
	docHandler := handler.NewDocumentHandler(gateway, shareService, logger)
	nodeHandler := handler.NewNodeHandler(treeService, gateway, logger)
	treeHandler := handler.NewTreeHandler(shareService, logger)
	versionHandler := handler.NewVersionHandler(versionService, gateway, logger)
	importHandler := handler.NewImportHandler(importService, logger)
	resolveHandler := handler.NewResolveHandler(logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	mux.HandleFunc("GET /api/tree", treeHandler.GetTree)
	mux.HandleFunc("POST /api/resolve", resolveHandler.Resolve)

	mux.HandleFunc("POST /api/folders", nodeHandler.CreateFolder)
	mux.HandleFunc("GET /api/nodes", nodeHandler.ListRoot)
	mux.HandleFunc("GET /api/nodes/{id}", nodeHandler.GetNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", nodeHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", nodeHandler.DeleteNode)
	mux.HandleFunc("GET /api/nodes/{id}/children", nodeHandler.ListChildren)

	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("PUT /api/documents/{id}/content", docHandler.UpdateContent)
	mux.HandleFunc("GET /api/documents/{id}/text", docHandler.GetText)

	mux.HandleFunc("GET /api/documents/{id}/versions", versionHandler.ListVersions)
	mux.HandleFunc("GET /api/documents/{id}/versions/{versionID}", versionHandler.GetVersion)
	mux.HandleFunc("POST /api/documents/{id}/versions/{versionID}/restore", versionHandler.RestoreVersion)

	mux.HandleFunc("POST /api/import", importHandler.Import)

	// Middleware chain: CORS -> Logging -> Recovery -> Auth -> routes
	var root http.Handler = mux

	if cfg.JWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		root = middleware.Authenticate(verifier, logger)(root)
	} else if cfg.Environment == "dev" {
		logger.Warn("JWKS_URL not set: running without authentication (dev only)")
	} else {
		log.Fatal("JWKS_URL must be set outside dev")
	}

	root = middleware.Recovery(logger)(root)
	root = middleware.Logging(logger)(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: stop accepting requests, then let in-flight flushes
	// and handlers drain.
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}

	logger.Info("server stopped")
}
