package api

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"dashboard-sync-service/internal/assistant"
	"dashboard-sync-service/internal/logger"
)

type askRequest struct {
	Question string              `json:"question"`
	History  []assistant.Message `json:"history,omitempty"`
}

// Ask forwards a question to the assistant. Provider failures become user
// facing messages; they never affect the dashboards.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decode(w, r, &req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	conversation := make([]assistant.Message, 0, len(req.History)+2)
	conversation = append(conversation, assistant.Message{Role: assistant.RoleSystem, Content: assistant.CyberSystemPrompt})
	for _, m := range req.History {
		if m.Role == assistant.RoleUser || m.Role == assistant.RoleAssistant {
			conversation = append(conversation, m)
		}
	}
	conversation = append(conversation, assistant.Message{Role: assistant.RoleUser, Content: req.Question})

	reply, err := h.assistant.Send(r.Context(), conversation)
	switch {
	case errors.Is(err, assistant.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, assistant.QuotaMessage)
		return
	case errors.Is(err, assistant.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "AI assistant is not configured")
		return
	case err != nil:
		logger.Log.Warn("Assistant request failed", zap.String("username", sessionFrom(r).Username), zap.Error(err))
		writeError(w, http.StatusBadGateway, "AI assistant is unavailable right now")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
