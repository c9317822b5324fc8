package relay

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lottoline/bingo-relay/utils/logger"
)

var errSendBufferFull = errors.New("send buffer full")

// Client is the websocket transport for one session.
type Client struct {
	sessionID string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	once      sync.Once
}

func NewClient(sessionID string, hub *Hub, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Client{
		sessionID: sessionID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
}

// Send queues msg without blocking the hub loop. A full buffer counts as a
// failed delivery and the message is dropped.
func (c *Client) Send(msg []byte) error {
	defer func() {
		// close(c.send) can race a broadcast in flight; a drop is fine.
		if r := recover(); r != nil {
			logger.Debugf("[Client %s] send on closed channel", c.sessionID)
		}
	}()
	select {
	case c.send <- msg:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c.sessionID)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Infof("[Client %s] disconnected normally", c.sessionID)
			} else {
				logger.Infof("[Client %s] read error: %v", c.sessionID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
			// Malformed frame: error reply to this sender only, keep the
			// connection alive.
			c.replyError("malformed message")
			continue
		}
		c.hub.Submit(c.sessionID, env)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Infof("[Client %s] write error: %v", c.sessionID, err)
			return
		}
	}
}

func (c *Client) replyError(message string) {
	msg, err := json.Marshal(newOutbound(EventError, ErrorPayload{Message: message}, c.hub.now()))
	if err != nil {
		return
	}
	_ = c.Send(msg)
}
