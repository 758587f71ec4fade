package websocket

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
	"github.com/febriansr/vocalis/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clips arrive base64
	// encoded inside JSON frames, so size for a full recording.
	maxMessageSize = 16 * 1024 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and hands their turns to the
// shared queue.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	queue     *usecase.TurnQueue
	validator *MessageValidator

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub draining into the given queue.
func NewHub(queue *usecase.TurnQueue, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		queue:      queue,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.sessionID]; ok {
				delete(h.clients, client.sessionID)
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages. sendMu guards closed and
	// orders writes against the close; queue delivery callbacks may fire
	// after the hub has unregistered the client.
	send   chan WriteData
	sendMu sync.Mutex
	closed bool

	// Session ID for this connection
	sessionID string

	logger *zap.Logger
}

// closeSend marks the client closed and closes its send channel exactly
// once. Later enqueueWrite calls see the flag and drop their message.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// HandleWebSocket handles websocket requests from the peer.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		sessionID: uuid.New().String(),
		logger:    logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
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

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
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

// processMessage parses one frame and routes it by type.
func (c *Client) processMessage(message []byte) {
	parsed, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected malformed message", zap.Error(err))
		c.enqueueWrite(CreateErrorMessage("", "invalid_message", err.Error()))
		return
	}

	switch msg := parsed.(type) {
	case *AudioTurnMessage:
		c.handleAudioTurn(msg)
	case *TextTurnMessage:
		c.handleTextTurn(msg)
	case *PingMessage:
		c.enqueueWrite(CreatePongMessage(msg.Data))
	}
}

// handleAudioTurn decodes the clip, enqueues the turn and acknowledges it
// immediately; the result is pushed asynchronously when the queue reaches it.
func (c *Client) handleAudioTurn(msg *AudioTurnMessage) {
	clip, err := base64.StdEncoding.DecodeString(msg.AudioData)
	if err != nil {
		c.logger.Warn("Rejected undecodable clip", zap.Error(err))
		c.enqueueWrite(CreateErrorMessage(msg.TurnID, "invalid_audio", "audio_data is not valid base64"))
		return
	}

	turnID := msg.TurnID
	if turnID == "" {
		turnID = uuid.New().String()
	}

	req := &domain.TurnRequest{
		Audio:   clip,
		Format:  msg.Format,
		Options: msg.Options,
	}
	c.enqueueTurn(turnID, req)
}

func (c *Client) handleTextTurn(msg *TextTurnMessage) {
	turnID := msg.TurnID
	if turnID == "" {
		turnID = uuid.New().String()
	}

	req := &domain.TurnRequest{
		Message: msg.Message,
		Options: msg.Options,
	}
	c.enqueueTurn(turnID, req)
}

func (c *Client) enqueueTurn(turnID string, req *domain.TurnRequest) {
	depth := c.hub.queue.Enqueue(req, func(result *domain.TurnResult, err error) {
		if err != nil {
			c.enqueueWrite(CreateErrorMessage(turnID, "invalid_input", err.Error()))
			return
		}
		c.enqueueWrite(turnResultMessage(turnID, result))
	})

	c.logger.Info("Turn queued",
		zap.String("sessionID", c.sessionID),
		zap.String("turnID", turnID),
		zap.Int("depth", depth))

	c.enqueueWrite(CreateQueuedMessage(turnID, depth))
}

// enqueueWrite serializes a message onto the send channel. A full channel
// means the writer is gone or wedged; drop the client rather than block the
// queue's delivery goroutine.
func (c *Client) enqueueWrite(message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		c.logger.Debug("Dropping message for closed client", zap.String("sessionID", c.sessionID))
		return
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Dropping message for slow client", zap.String("sessionID", c.sessionID))
	}
}

func turnResultMessage(turnID string, result *domain.TurnResult) *TurnResultMessage {
	msg := &TurnResultMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTurnResult,
			Timestamp: time.Now().Format(time.RFC3339),
			TurnID:    turnID,
		},
		Status:      string(result.Status),
		Transcript:  result.Transcript,
		Reply:       result.Reply,
		AudioFormat: result.AudioFormat,
		Degraded:    result.Degraded,
		FailedStage: string(result.FailedStage),
		Error:       result.Err,
		Usage:       result.Usage,
	}
	if len(result.Audio) > 0 {
		msg.AudioData = base64.StdEncoding.EncodeToString(result.Audio)
	}
	return msg
}
