package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choremane/internal/auth"
	"github.com/dukerupert/choremane/internal/chore"
	"github.com/dukerupert/choremane/internal/export"
	"github.com/dukerupert/choremane/internal/websocket"
)

const maxImportBytes = 10 << 20

type TransferHandler struct {
	svc      *chore.Service
	uploader *export.Uploader
	hub      *websocket.Hub
	logger   *slog.Logger
}

// NewTransferHandler wires import and export. uploader may be nil when no
// archive bucket is configured.
func NewTransferHandler(svc *chore.Service, uploader *export.Uploader, hub *websocket.Hub, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{svc: svc, uploader: uploader, hub: hub, logger: logger}
}

func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.svc.Export(r.Context(), auth.Email(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to export data")
		return
	}

	var buf bytes.Buffer
	if err := export.Encode(&buf, snap, format); err != nil {
		writeError(w, r, h.logger, err, "Failed to export data")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format == export.FormatYAML {
		w.Header().Set("Content-Disposition", `attachment; filename="choremane-export.yaml"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	format := export.FormatJSON
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = export.FormatYAML
	}

	req, err := export.DecodeImport(http.MaxBytesReader(w, r.Body, maxImportBytes), format)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid import document")
		return
	}

	res, err := h.svc.Import(r.Context(), auth.Email(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to import data")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("chore", "imported", 0, map[string]any{"count": len(res.ImportedChores)}))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Import successful",
		"imported_chores": len(res.ImportedChores),
		"imported_logs":   res.ImportedLogs,
		"details":         res.ImportedChores,
	})
}

// Archive exports the caller's data and uploads it to the configured bucket.
func (h *TransferHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeDetail(w, http.StatusServiceUnavailable, "archive storage is not configured")
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.svc.Export(r.Context(), auth.Email(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to export data")
		return
	}
	archive, err := h.uploader.Upload(r.Context(), snap, format)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("archive export: %w", err), "Failed to archive export")
		return
	}
	writeJSON(w, http.StatusCreated, archive)
}
