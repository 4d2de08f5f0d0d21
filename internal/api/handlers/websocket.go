package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/logger"
	ws "github.com/social-apps/backend/internal/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 65536
)

// NewUpgrader returns a websocket upgrader accepting the given origins.
// An empty list accepts any origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to WebSocket.
func WebSocketUpgrade(hub *ws.Hub, upgrader *websocket.Upgrader, lggr logger.Logger) http.HandlerFunc {
	lggr = lggr.Named("websocket")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			lggr.Warnw("upgrade failed", "err", err)
			return
		}

		client := ws.NewClient(hub, auth.FromContext(r.Context()).ID)
		hub.Register(client)

		go writePump(conn, client)
		go readPump(conn, client, hub, lggr)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func writePump(conn *websocket.Conn, client *ws.Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, lggr logger.Logger) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				lggr.Warnw("read failed", "user", client.UserID, "err", err)
			}
			break
		}

		if reply := handleClientMessage(message); reply != nil {
			client.Reply(reply)
		}
	}
}

// handleClientMessage answers a client command. Pings get a pong, anything
// else an error message.
func handleClientMessage(message []byte) []byte {
	var in struct {
		Type ws.MessageType `json:"type"`
	}

	var out ws.Message
	switch err := json.Unmarshal(message, &in); {
	case err != nil:
		out = ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: "invalid_message", Message: "message is not valid JSON"})
	case in.Type == ws.TypePing:
		out = ws.NewMessage(ws.TypePong, nil)
	default:
		out = ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:         "unknown_type",
			Message:      "unsupported message type",
			OriginalType: string(in.Type),
		})
	}

	data, err := out.JSON()
	if err != nil {
		return nil
	}
	return data
}
