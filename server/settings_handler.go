package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"trackvault/core/access"
	"trackvault/logger"
	"trackvault/model"
)

// AuthHandler validates a claimed admin password and returns the current
// settings so the caller can render without a second round trip. Not behind
// adminOnly because its failure modes are richer: 400 empty, 500
// unconfigured, 401 wrong.
func (h *APIHandler) AuthHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		respondError(w, http.StatusBadRequest, "Please enter your admin password.")
		return
	}

	secret := h.access.AdminSecret()
	if secret.Source == access.SourceUnconfigured {
		// Distinguished from a wrong password so an operator can spot the
		// missing deployment configuration.
		respondError(w, http.StatusInternalServerError,
			"Admin password not configured. Set ADMIN_PASSWORD in the deployment environment.")
		return
	}
	if req.Password != secret.Value {
		respondError(w, http.StatusUnauthorized, "Invalid admin password. Please try again.")
		return
	}

	settings := h.access.CurrentSettings()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"username":    settings.Username,
		"api_enabled": settings.APIEnabled,
	})
}

// GetSettingsHandler returns the current settings, with defaults when the
// row has never been written. Admin only.
func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings := h.access.CurrentSettings()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"username":    settings.Username,
		"api_enabled": settings.APIEnabled,
	})
}

// updateSettingsRequest accepts any subset of the mutable settings fields.
type updateSettingsRequest struct {
	Username    *string `json:"username"`
	NewPassword *string `json:"new_password"`
	APIEnabled  *bool   `json:"api_enabled"`
}

// UpdateSettingsHandler applies a partial settings update. Admin only. A
// non-empty new_password becomes the password override and supersedes the
// static secret for every subsequent admin check, including this client's
// own next request.
func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := model.SettingsUpdate{
		Username:   req.Username,
		APIEnabled: req.APIEnabled,
	}
	passwordChanged := false
	if req.NewPassword != nil && *req.NewPassword != "" {
		update.PasswordOverride = req.NewPassword
		passwordChanged = true
	}

	settings, err := h.settingsRepo.UpsertSettings(update)
	if err != nil {
		logger.Error("Failed to update settings", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("Settings updated",
		logger.String("username", settings.Username),
		logger.Bool("api_enabled", settings.APIEnabled),
		logger.Bool("password_changed", passwordChanged))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"username":         settings.Username,
		"api_enabled":      settings.APIEnabled,
		"password_changed": passwordChanged,
	})
}
