package server

import (
	"encoding/json"
	"net/http"

	"trackvault/cache"
	"trackvault/config"
	"trackvault/core/access"
	"trackvault/logger"
	"trackvault/repository"
	"trackvault/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	trackRepo    repository.TrackRepository
	settingsRepo repository.SettingsRepository
	store        storage.ObjectStore
	trackCache   *cache.TrackCache
	access       *access.Resolver
	cfg          *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	settingsRepo repository.SettingsRepository,
	store storage.ObjectStore,
	trackCache *cache.TrackCache,
	resolver *access.Resolver,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:    trackRepo,
		settingsRepo: settingsRepo,
		store:        store,
		trackCache:   trackCache,
		access:       resolver,
		cfg:          cfg,
	}
}

// adminHeader carries the claimed admin secret on admin-only requests.
const adminHeader = "X-Admin-Password"

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", logger.ErrorField(err))
		}
	}
}

// respondError writes a JSON error body. Backend error messages pass through
// for operator diagnosis but must never contain secrets.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// adminOnly rejects requests whose claimed admin secret does not match the
// currently effective one. It runs before any mutation.
func (h *APIHandler) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.access.Authorize(r.Header.Get(adminHeader)) {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

// public short-circuits public read endpoints while the kill switch is off.
// The 503 is deliberately distinct from 404 and 500 so clients can tell
// administrative disablement from failure.
func (h *APIHandler) public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.access.PublicAPIEnabled() {
			respondError(w, http.StatusServiceUnavailable, "Public API is disabled")
			return
		}
		next(w, r)
	}
}
