package messaging

import (
	"time"

	"github.com/gorilla/websocket"
)

const maxInboundMessageSize = 512

// LiveClient is one websocket connection subscribed to a story room.
type LiveClient struct {
	StoryID string
	Session string
	Send    chan []byte
	conn    *websocket.Conn
	hub     *LiveHub
}

// Serve registers conn in the story's room and pumps events to it until either
// side closes. It blocks for the lifetime of the connection.
func (h *LiveHub) Serve(conn *websocket.Conn, storyID, session string) {
	client := &LiveClient{
		StoryID: storyID,
		Session: session,
		Send:    make(chan []byte, clientSendBuffer),
		conn:    conn,
		hub:     h,
	}
	if !h.Register(client) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.writeTimeout))
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// readPump only consumes control frames. Readers never send data; any read error ends the connection.
func (c *LiveClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.pingInterval * 2
	c.conn.SetReadLimit(maxInboundMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.hub.logger.Realtime().Debug("Live client read error", "storyId", c.StoryID, "error", err.Error())
			}
			return
		}
	}
}

func (c *LiveClient) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
