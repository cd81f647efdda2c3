package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dice-game-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams settled bets to connected clients. The hub fans a
// settlement out to every subscriber; implements services.Broadcaster.
type WebSocketHandler struct {
	hub    *webSocketHub
	logger *zap.Logger
}

type webSocketHub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan *wsMessage
}

type wsClient struct {
	sessionID string
	conn      *websocket.Conn
	send      chan *wsMessage
}

type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

func NewWebSocketHandler(logger *zap.Logger) *WebSocketHandler {
	hub := &webSocketHub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan *wsMessage, 100),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub, logger: logger}
}

func (hub *webSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true

		case client := <-hub.unregister:
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
			}

		case msg := <-hub.broadcast:
			for client := range hub.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer; drop it rather than stall the feed.
					delete(hub.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// BroadcastBetSettled pushes a settled bet to all subscribers. Secrets never
// travel here: only published fields of the result.
func (h *WebSocketHandler) BroadcastBetSettled(result *models.BetResult) {
	msg := &wsMessage{
		Type: "BET_SETTLED",
		Data: gin.H{
			"bet_id":     result.ID,
			"roll":       result.Roll,
			"target":     result.TargetPercent,
			"direction":  result.Direction,
			"is_win":     result.IsWin,
			"multiplier": result.Multiplier,
			"payout":     result.Payout,
			"nonce":      result.Nonce,
		},
	}

	select {
	case h.hub.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast buffer full, dropping settlement")
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	sessionID := c.GetString("session_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &wsClient{
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan *wsMessage, 16),
	}

	h.hub.register <- client

	go client.writeLoop()
	client.readLoop(h)
}

func (c *wsClient) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *wsClient) readLoop(h *WebSocketHandler) {
	defer func() {
		h.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		if msg.Type == "PING" {
			select {
			case c.send <- &wsMessage{Type: "PONG", Data: gin.H{"timestamp": time.Now().Unix()}}:
			default:
			}
		}
	}
}
