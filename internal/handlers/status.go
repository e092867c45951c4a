package handlers

import (
	"net/http"

	"spandi-backend/internal/models"
)

type StatusHandler struct {
	ready    bool
	provider string
}

func NewStatusHandler(ready bool, provider string) *StatusHandler {
	return &StatusHandler{ready: ready, provider: provider}
}

// Health GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status GET /api/v1/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := models.StatusResponse{Ready: h.ready}
	if h.ready {
		resp.Provider = h.provider
	}
	writeJSON(w, http.StatusOK, resp)
}
