package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/venturelens/venturelens/internal/chat"
)

const msgChatFailed = "Sorry, something went wrong. Please try again."

// POST /chat  { "message": "..." } -> { "message": "..." }
func ChatHandler(responder chat.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, "message required")
			return
		}
		reply, err := chat.Reply(r.Context(), responder, req.Message)
		if errors.Is(err, chat.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if err != nil {
			log.Printf("api: chat: %v", err)
			writeError(w, http.StatusBadGateway, msgChatFailed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": reply})
	}
}
