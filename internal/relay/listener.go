package relay

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxbridge/relay-gateway/internal/config"
	"github.com/voxbridge/relay-gateway/internal/observability"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeTimeout = 10 * time.Second

// Listener accepts relay WebSocket connections and runs one session
// per connection
type Listener struct {
	cfg    *config.Config
	collab Collaborators
}

// NewListener creates the connection handler with the shared service
// collaborators
func NewListener(cfg *config.Config, collab Collaborators) *Listener {
	return &Listener{cfg: cfg, collab: collab}
}

// HandleRelayWS upgrades the HTTP request and drives the session until
// either side closes the stream
func (l *Listener) HandleRelayWS(w http.ResponseWriter, r *http.Request) {
	correlationID := r.URL.Query().Get("correlationId")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		upgradeLogger := observability.GetLogger()
		upgradeLogger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	session := NewSession(l.cfg, l.collab, correlationID)
	session.Start()

	logger := observability.SessionLogger(correlationID, session.ID())
	logger.Info().Str("remote", r.RemoteAddr).Msg("Relay connection established")

	go l.writePump(conn, session)

	// Single reader per connection, serializing inbound dispatch
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("Relay connection read error")
			} else {
				logger.Info().Msg("Relay connection closed")
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		session.HandleRaw(raw)
	}

	session.Close()
	conn.Close()
}

// writePump drains the session's outbound frames onto the socket. A
// terminal frame flushes and then closes the connection from our side.
func (l *Listener) writePump(conn *websocket.Conn, session *Session) {
	logger := observability.SessionLogger("", session.ID())

	for {
		select {
		case frame := <-session.Out():
			data, err := frame.Encode()
			if err != nil {
				logger.Error().Err(err).Msg("Failed to encode outbound frame")
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warn().Err(err).Msg("Failed to write outbound frame")
				session.Close()
				return
			}

			if _, terminal := frame.(EndFrame); terminal {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "handoff"))
				session.Close()
				conn.Close()
				return
			}

		case <-session.Done():
			return
		}
	}
}
