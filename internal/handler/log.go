package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choremane/internal/auth"
	"github.com/dukerupert/choremane/internal/chore"
	"github.com/dukerupert/choremane/internal/undo"
	"github.com/dukerupert/choremane/internal/websocket"
)

type LogHandler struct {
	svc    *chore.Service
	engine *undo.Engine
	notify *notifier
	logger *slog.Logger
}

func NewLogHandler(svc *chore.Service, engine *undo.Engine, hub *websocket.Hub, logger *slog.Logger) *LogHandler {
	return &LogHandler{svc: svc, engine: engine, notify: &notifier{hub: hub, svc: svc}, logger: logger}
}

func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.Logs(r.Context(), auth.Email(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type undoRequest struct {
	LogID int64 `json:"log_id"`
}

func (h *LogHandler) Undo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LogID <= 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "log_id is required")
		return
	}

	res, err := h.engine.Undo(r.Context(), req.LogID, auth.Email(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to undo action")
		return
	}

	h.notify.chore(r.Context(), "undone", res.ChoreID, map[string]any{"action_type": res.ActionType})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     fmt.Sprintf("Action %s undone successfully", res.ActionType),
		"log_id":      res.LogID,
		"chore_id":    res.ChoreID,
		"undo_log_id": res.UndoLogID,
	})
}
