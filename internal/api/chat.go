package api

import (
	"net/http"
	"strings"

	"github.com/nomnoms/nomnoms/internal/log"
)

type agentHandler struct {
	chat   ChatService
	logger log.Logger
}

type chatRequest struct {
	Prompt   string `json:"prompt"`
	ThreadID string `json:"thread_id,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

func (h *agentHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		writeError(w, http.StatusInternalServerError, "configuration_error",
			"agent is not configured: set the model provider API key", h.logger)
		return
	}

	var req chatRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "prompt is required", h.logger)
		return
	}

	response, threadID, err := h.chat.Chat(r.Context(), req.Prompt, req.ThreadID)
	if err != nil {
		// Provider-communication failures surface as 500 with detail.
		writeError(w, http.StatusInternalServerError, "upstream_error", err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: response, ThreadID: threadID}, h.logger)
}
