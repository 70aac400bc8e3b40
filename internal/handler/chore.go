package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/choremane/internal/auth"
	"github.com/dukerupert/choremane/internal/chore"
	"github.com/dukerupert/choremane/internal/websocket"
)

type ChoreHandler struct {
	svc    *chore.Service
	notify *notifier
	logger *slog.Logger
}

func NewChoreHandler(svc *chore.Service, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{svc: svc, notify: &notifier{hub: hub, svc: svc}, logger: logger}
}

// notifier broadcasts chore changes, keeping private chores on their
// owner's connections.
type notifier struct {
	hub *websocket.Hub
	svc *chore.Service
}

func (n *notifier) chore(ctx context.Context, action string, id int64, extra map[string]any) {
	if n.hub == nil {
		return
	}
	msg := websocket.NewMessage("chore", action, id, extra)
	requester := auth.Email(ctx)
	c, err := n.svc.Get(ctx, requester, id)
	if err != nil || c == nil || c.IsPrivate {
		// Deleted or private: only the requester's own clients hear about it.
		msg = msg.To(requester)
	}
	n.hub.Broadcast(msg)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	chores, err := h.svc.List(r.Context(), auth.Email(r.Context()), page, limit)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch chores")
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	chores, err := h.svc.ListArchived(r.Context(), auth.Email(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch archived chores")
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.svc.Get(r.Context(), auth.Email(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch chore")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req chore.CreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.Create(r.Context(), auth.Email(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to add chore")
		return
	}

	h.notify.chore(r.Context(), "created", c.ID, nil)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Chore added successfully", "id": c.ID})
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req chore.UpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.svc.Update(r.Context(), auth.Email(r.Context()), id, req); err != nil {
		writeError(w, r, h.logger, err, "Failed to update chore")
		return
	}

	h.notify.chore(r.Context(), "updated", id, nil)
	writeJSON(w, http.StatusOK, map[string]any{"message": fmt.Sprintf("Chore %d updated successfully", id)})
}

type doneRequest struct {
	DoneBy string `json:"done_by"`
}

func (h *ChoreHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req doneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.MarkDone(r.Context(), auth.Email(r.Context()), id, req.DoneBy)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to mark chore as done")
		return
	}

	h.notify.chore(r.Context(), "done", id, map[string]any{"done_by": res.DoneBy})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      fmt.Sprintf("Chore %d marked as done", id),
		"new_due_date": res.NewDueDate,
		"last_done":    res.LastDone,
		"done_by":      res.DoneBy,
	})
}

func (h *ChoreHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

func (h *ChoreHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *ChoreHandler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return
	}

	verb, apply := "archived", h.svc.Archive
	if !archived {
		verb, apply = "unarchived", h.svc.Unarchive
	}

	if err := apply(r.Context(), auth.Email(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err, "Failed to update archive state")
		return
	}

	h.notify.chore(r.Context(), verb, id, nil)
	writeJSON(w, http.StatusOK, map[string]any{"message": fmt.Sprintf("Chore %d %s successfully", id, verb)})
}

func (h *ChoreHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Counts(r.Context(), auth.Email(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to get chore counts")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *ChoreHandler) HouseholdHealth(w http.ResponseWriter, r *http.Request) {
	score, err := h.svc.HealthScore(r.Context(), auth.Email(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to calculate household health")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"score": score})
}
