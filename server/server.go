package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trackvault/cache"
	"trackvault/config"
	"trackvault/core/access"
	"trackvault/db"
	"trackvault/logger"
	"trackvault/repository"
	"trackvault/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	// Redis holds no authoritative state, so a missing cache is a warning,
	// not a startup failure.
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, running without list cache", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
	}

	trackRepo := repository.NewMySQLTrackRepository()
	settingsRepo := repository.NewMySQLSettingsRepository()
	resolver := access.NewResolver(settingsRepo, cfg.AdminPassword)
	trackCache := cache.NewTrackCache(db.RedisClient)

	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD is not set; admin endpoints reject everything until a password override is stored")
	}

	apiHandler := NewAPIHandler(trackRepo, settingsRepo, store, trackCache, resolver, cfg)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(apiHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// NewRouter builds the HTTP routing table. Split out from Start so tests can
// exercise real routing.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	// The read endpoints are called from arbitrary client-side game code, so
	// every origin is allowed. OPTIONS preflights short-circuit here.
	router.Use(corsMiddleware)

	router.HandleFunc("/tracks", h.public(h.GetTracksHandler)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/tracks/{id}", h.public(h.GetTrackHandler)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/random", h.public(h.RandomTrackHandler)).Methods(http.MethodGet, http.MethodOptions)

	router.HandleFunc("/auth", h.AuthHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/upload", h.adminOnly(h.UploadTrackHandler)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/delete/{id}", h.adminOnly(h.DeleteTrackHandler)).Methods(http.MethodDelete, http.MethodOptions)
	router.HandleFunc("/settings", h.adminOnly(h.GetSettingsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/settings", h.adminOnly(h.UpdateSettingsHandler)).Methods(http.MethodPut, http.MethodOptions)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		respondError(w, http.StatusNotFound, "Not found")
	})

	return router
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Password")
	w.Header().Set("Access-Control-Max-Age", "86400")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
