package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"loanwise/internal/clients"
	"loanwise/internal/service"
	"loanwise/internal/transport/auth"
)

type chatStreamRequest struct {
	Messages  []clients.ChatMessage `json:"messages"`
	MaxTokens int                   `json:"max_tokens"`
}

// chatStream relays an assistant conversation upstream and forwards
// content deltas to the client as server-sent events.
func (h *Handler) chatStream(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserID(r.Context()); err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	if h.chat == nil || !h.chat.Enabled() {
		Error(w, "chat is not configured", 503, http.StatusServiceUnavailable)
		return
	}

	var req chatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		ErrorInternal(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err := h.chat.Stream(r.Context(), req.Messages, req.MaxTokens, func(delta string) error {
		payload, err := json.Marshal(map[string]string{"content": delta})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Headers are already on the wire; signal failure in-stream.
		if !errors.Is(err, service.ErrChatDisabled) {
			log.Printf("[HTTP] chat stream error: %v", err)
		}
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}
