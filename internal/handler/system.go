package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type VersionInfo struct {
	Tag           string `json:"version_tag"`
	BackendImage  string `json:"backend_image"`
	FrontendImage string `json:"frontend_image"`
}

type SystemHandler struct {
	db      Pinger
	version VersionInfo
	logger  *slog.Logger
}

func NewSystemHandler(db Pinger, version VersionInfo, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{db: db, version: version, logger: logger}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status checks database connectivity. It always answers 200 so simple
// uptime probes can read the body.
func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(r.Context(), "database ping failed", "error", err)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ERROR",
			"message": "Backend or database connectivity issue",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Backend is healthy and database is reachable",
	})
}

func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.version)
}
