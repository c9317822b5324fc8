package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lottoline/bingo-relay/utils/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict this in production to your domains
		return true
	},
}

// HandleWebSocket upgrades the request and registers a bare session. The
// name/contact query params only prefill the session; membership in a room
// is established by a subsequent join-game event, never by the URL.
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("[WS] upgrade error: %v", err)
			return
		}

		sessionID := uuid.NewString()
		client := NewClient(sessionID, hub, conn, hub.cfg.SendBuffer)
		session := &Session{
			ID:          sessionID,
			Name:        c.Query("name"),
			Contact:     c.Query("contact"),
			Conn:        client,
			ConnectedAt: hub.now(),
		}

		logger.Infof("[WS] new connection %s from %s", sessionID, c.ClientIP())

		hub.Connect(session)
		client.Start()
	}
}
