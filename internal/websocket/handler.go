package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/choremane/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and runs it as a Hub
// client. originPatterns lists the hosts allowed to connect cross-origin; an
// empty list allows same-origin only.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := auth.Email(r.Context())
		if email == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "user", email)
		NewClient(hub, conn, email).Run(r.Context())
		logger.Debug("websocket disconnected", "user", email)
	}
}
