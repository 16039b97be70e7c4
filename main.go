package main

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/config"
	"github.com/Grupo-LOROs/ComisionadorERA/src/handlers"
	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/Grupo-LOROs/ComisionadorERA/src/processors"
	"github.com/Grupo-LOROs/ComisionadorERA/src/services"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Comisionador backend server starting...")

	logger.L.Info("Initializing export cache...")
	exportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Export cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	sessionService := services.NewSessionService(exportCache)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	coordinatorHandler := handlers.NewCoordinatorHandler(processors.NewCoordinatorCalculator())

	// Loading the default rule workbook at boot is a convenience, not a
	// requirement; it can always be uploaded later.
	if config.Cfg.SchemaPath != "" {
		if _, err := os.Stat(config.Cfg.SchemaPath); err == nil {
			if _, err := sessionService.LoadSchema(context.Background(), config.Cfg.SchemaPath); err != nil {
				logger.L.Warn("Failed to load initial rule workbook", "path", config.Cfg.SchemaPath, "error", err)
			} else {
				logger.L.Info("Initial rule workbook loaded", "path", config.Cfg.SchemaPath)
			}
		} else {
			logger.L.Info("No rule workbook at configured path; waiting for upload", "path", config.Cfg.SchemaPath)
		}
	}

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/schema", sessionHandler.HandleUploadSchema)
	apiRouter.HandleFunc("POST /api/transactions", sessionHandler.HandleUploadTransactions)
	apiRouter.HandleFunc("POST /api/process", sessionHandler.HandleProcess)
	apiRouter.HandleFunc("GET /api/detail", sessionHandler.HandleGetDetail)
	apiRouter.HandleFunc("GET /api/summary", sessionHandler.HandleGetSummary)
	apiRouter.HandleFunc("GET /api/audit", sessionHandler.HandleGetAudit)
	apiRouter.HandleFunc("POST /api/export/cover-sheet", sessionHandler.HandleExportCoverSheet)

	apiRouter.HandleFunc("POST /api/coordinator/entries", coordinatorHandler.HandleAddEntry)
	apiRouter.HandleFunc("GET /api/coordinator/entries", coordinatorHandler.HandleListEntries)
	apiRouter.HandleFunc("DELETE /api/coordinator/entries", coordinatorHandler.HandleClear)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Comisionador backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
