package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Suggestion is a chore template offered to clients when they set up a
// household.
type Suggestion struct {
	Name         string `json:"name"`
	IntervalDays int    `json:"intervalDays"`
}

var defaultSuggestions = []Suggestion{
	{"General cleaning", 7},
	{"Vacuum floors", 3},
	{"Dust surfaces", 7},
	{"Clean bathroom", 7},
	{"Take out trash", 2},
	{"Change bed sheets", 7},
	{"Water plants", 3},
	{"Clean kitchen", 2},
}

type SuggestionHandler struct {
	logger *slog.Logger
}

func NewSuggestionHandler(logger *slog.Logger) *SuggestionHandler {
	return &SuggestionHandler{logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateRequest struct {
	Messages []chatMessage `json:"messages"`
}

// Generate answers a chat-style request with the built-in suggestion list,
// encoded as a JSON string in "content". A user message is required; its text
// does not change the answer.
func (h *SuggestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	found := false
	for _, m := range req.Messages {
		if m.Role == "user" && m.Content != "" {
			found = true
			break
		}
	}
	if !found {
		writeDetail(w, http.StatusBadRequest, "No user message found")
		return
	}

	content, err := json.Marshal(defaultSuggestions)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "encode suggestions", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to generate suggestions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": string(content)})
}
