package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"CodeMart/chat"
	"CodeMart/models"
	"CodeMart/redis"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient adapts one websocket connection to the coordinator's Conn. Send
// never blocks: events queue on a buffered channel and are dropped with a
// log line when the peer cannot keep up.
type wsClient struct {
	conn   *websocket.Conn
	send   chan chat.Event
	ctx    context.Context
	cancel context.CancelFunc
}

func newWSClient(conn *websocket.Conn) *wsClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &wsClient{
		conn:   conn,
		send:   make(chan chat.Event, 256),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *wsClient) Send(ev chat.Event) {
	select {
	case c.send <- ev:
	default:
		log.Printf("chat client send buffer full, dropping %s", ev.Name)
	}
}

// inboundFrame is one JSON frame read off the socket.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type connectPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sendPayload struct {
	Text     string `json:"text"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

type uploadPayload struct {
	FileName string `json:"file_name"`
	FileData []byte `json:"file_data"` // base64 on the wire
	FileType string `json:"file_type"`
}

type selectPayload struct {
	SessionID string `json:"session_id"`
}

type closePayload struct {
	SessionID string `json:"session_id"`
}

type ChatWebSocketHandler struct {
	coordinator *chat.Coordinator
	redis       *redis.RedisClient // nil when presence mirroring is disabled
}

func NewChatWebSocketHandler(coordinator *chat.Coordinator, redisClient *redis.RedisClient) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		coordinator: coordinator,
		redis:       redisClient,
	}
}

// HandleVisitorSocket serves the anonymous storefront widget. The visitor
// gets an identity only after it sends user:connect.
func (h *ChatWebSocketHandler) HandleVisitorSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newWSClient(ws)
	go h.writePump(client)

	var visitorID string
	defer func() {
		client.cancel()
		ws.Close()
		if visitorID != "" {
			h.coordinator.DisconnectVisitor(visitorID)
		}
	}()

	h.configureRead(ws)
	for {
		var frame inboundFrame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("visitor socket error: %v", err)
			}
			return nil
		}

		switch frame.Event {
		case "user:connect":
			// One identity per socket. A repeat connect frame would mint a
			// second identity and strand the first one without a grace timer.
			if visitorID != "" {
				continue
			}
			var p connectPayload
			json.Unmarshal(frame.Data, &p)
			visitorID, _ = h.coordinator.VisitorConnect(client, chat.VisitorInfo{
				DisplayName: p.Name,
				Email:       p.Email,
			})
		case "message:send":
			var p sendPayload
			json.Unmarshal(frame.Data, &p)
			h.coordinator.VisitorMessage(client, visitorID, p.Text, p.FileURL, p.FileType)
		case "file:upload":
			var p uploadPayload
			json.Unmarshal(frame.Data, &p)
			h.coordinator.UploadFile(client, visitorID, p.FileName, p.FileData, p.FileType)
		}
	}
}

// HandleAdminSocket serves the operator console. The auth middleware has
// already resolved the user; admins are in the broadcast room from the
// moment the socket opens.
func (h *ChatWebSocketHandler) HandleAdminSocket(c echo.Context) error {
	user := c.Get("user").(*models.User)
	adminID := fmt.Sprintf("op-%d", user.ID)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newWSClient(ws)
	go h.writePump(client)

	h.coordinator.AdminConnect(adminID, client)
	h.markOperatorOnline(adminID, user.Username)

	defer func() {
		client.cancel()
		ws.Close()
		h.coordinator.DisconnectAdmin(adminID)
		h.markOperatorOffline(adminID)
	}()

	h.configureRead(ws)
	for {
		var frame inboundFrame
		if err := ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("admin socket error: %v", err)
			}
			return nil
		}

		switch frame.Event {
		case "session:select":
			var p selectPayload
			json.Unmarshal(frame.Data, &p)
			h.coordinator.SelectSession(client, adminID, p.SessionID)
		case "message:send":
			var p sendPayload
			json.Unmarshal(frame.Data, &p)
			h.coordinator.AdminMessage(client, adminID, p.Text, p.FileURL, p.FileType)
		case "session:close":
			var p closePayload
			json.Unmarshal(frame.Data, &p)
			h.coordinator.CloseSession(client, p.SessionID)
		case "file:upload":
			var p uploadPayload
			json.Unmarshal(frame.Data, &p)
			h.coordinator.UploadFile(client, adminID, p.FileName, p.FileData, p.FileType)
		}
	}
}

func (h *ChatWebSocketHandler) configureRead(ws *websocket.Conn) {
	ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
}

func (h *ChatWebSocketHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case <-client.ctx.Done():
			return

		case ev := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteJSON(ev); err != nil {
				log.Printf("WriteJSON error: %v", err)
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *ChatWebSocketHandler) markOperatorOnline(adminID, username string) {
	if h.redis == nil {
		return
	}
	info := redis.OperatorInfo{AdminID: adminID, Username: username}
	if err := h.redis.MarkOperatorOnline(context.Background(), info); err != nil {
		log.Printf("Failed to mark operator online: %v", err)
	}
}

func (h *ChatWebSocketHandler) markOperatorOffline(adminID string) {
	if h.redis == nil {
		return
	}
	if err := h.redis.MarkOperatorOffline(context.Background(), adminID); err != nil {
		log.Printf("Failed to mark operator offline: %v", err)
	}
}

// GetOnlineOperators is the REST view of operator presence.
func (h *ChatWebSocketHandler) GetOnlineOperators(c echo.Context) error {
	if h.redis == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"count": 0, "operators": []redis.OperatorInfo{}})
	}
	ops, err := h.redis.OnlineOperators(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch online operators",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(ops),
		"operators": ops,
	})
}
