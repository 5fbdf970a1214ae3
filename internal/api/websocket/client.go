package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/auth"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8192
	sendBufferSize = 256

	authTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	logger        *zap.Logger
	authenticated bool
	permissions   []auth.Permission
	username      string
}

func (c *Client) remoteAddr() string {
	return c.conn.RemoteAddr().String()
}

type inboundMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// readPump reads client messages. With auth enabled the first message
// must be {"type":"auth","token":...}; the client only receives
// broadcasts after that. A rejected client is hung up by writePump once the
// rejection has been written.
func (c *Client) readPump() {
	rejected := false
	defer func() {
		if rejected {
			return
		}
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if !c.authenticated {
		c.conn.SetReadDeadline(time.Now().Add(authTimeout))
	} else {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	c.conn.SetPongHandler(func(string) error {
		if c.authenticated {
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
		}
		return nil
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("remote_addr", c.remoteAddr()))
			}
			return
		}

		if !c.authenticated {
			if !c.authenticate(msg) {
				rejected = true
				return
			}
			continue
		}

		c.logger.Debug("Received client message",
			zap.String("remote_addr", c.remoteAddr()),
			zap.String("type", msg.Type))
	}
}

// authenticate handles the first message. On failure the send queue is
// closed so writePump flushes the rejection and hangs up.
func (c *Client) authenticate(msg inboundMessage) bool {
	if msg.Type != messageTypeAuth {
		c.reject("First message must be authentication")
		return false
	}
	if msg.Token == "" {
		c.reject("Missing token in auth message")
		return false
	}

	claims, permissions, err := c.hub.authService.ValidateToken(msg.Token)
	if err != nil {
		c.logger.Warn("WebSocket authentication failed",
			zap.Error(err),
			zap.String("remote_addr", c.remoteAddr()))
		c.reject("Invalid or expired token")
		return false
	}

	c.authenticated = true
	c.permissions = permissions
	c.username = claims.Username
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	c.sendControl(map[string]interface{}{
		"type":        messageTypeAuthSuccess,
		"timestamp":   time.Now(),
		"permissions": permissions,
	})
	c.logger.Info("WebSocket client authenticated",
		zap.String("remote_addr", c.remoteAddr()),
		zap.String("username", c.username))

	c.hub.addClient(c)
	return true
}

func (c *Client) reject(reason string) {
	c.sendControl(map[string]interface{}{
		"type":      messageTypeAuthFailed,
		"timestamp": time.Now(),
		"reason":    reason,
	})
	close(c.send)
}

func (c *Client) sendControl(msg map[string]interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal control message", zap.Error(err))
		return
	}
	c.send <- data
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// coalesce queued messages, newline separated
			n := len(c.send)
			for i := 0; i < n; i++ {
				next, ok := <-c.send
				if !ok {
					break
				}
				w.Write([]byte{'\n'})
				w.Write(next)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request and starts the client pumps.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade error",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		logger:        hub.logger,
		authenticated: !hub.authService.Enabled(),
	}
	if client.authenticated {
		client.permissions = auth.AllPermissions()
		hub.addClient(client)
	}

	go client.writePump()
	go client.readPump()
}
