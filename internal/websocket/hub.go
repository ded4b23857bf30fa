package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/entities"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
	"github.com/muhannadalsrahen/speakright/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// How long a client may stay silent before the reaper disconnects it.
	idleTimeout = 10 * time.Minute
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SessionDefaults carries the engine parameters applied to every browser
// session opened through this hub.
type SessionDefaults struct {
	Model     string
	Voice     string
	FrameSize int
}

// Hub maintains the set of active clients and owns the shared session
// dependencies: the live connection dialer and the training log store.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	dialer   repositories.LiveDialer
	store    repositories.TrainingLogStore
	defaults SessionDefaults

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(
	dialer repositories.LiveDialer,
	store repositories.TrainingLogStore,
	defaults SessionDefaults,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		dialer:     dialer,
		store:      store,
		defaults:   defaults,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.clientID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.clientID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.clientID]; ok {
				delete(h.clients, client.clientID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("clientID", client.clientID))
		}
	}
}

// CloseIdle disconnects every client whose last activity predates the
// cutoff. Closing the connection lets the read pump run its normal
// teardown, so in-flight sessions still get ended and persisted.
func (h *Hub) CloseIdle(cutoff time.Time) int {
	h.mu.RLock()
	var idle []*Client
	for _, client := range h.clients {
		if client.lastActive().Before(cutoff) {
			idle = append(idle, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range idle {
		h.logger.Info("Disconnecting idle client", zap.String("clientID", client.clientID))
		client.conn.Close()
	}
	return len(idle)
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

	// Buffered channel of outbound messages.
	send chan WriteData

	// Authenticated identity for this client
	clientID string

	// Logger
	logger *zap.Logger

	validator *MessageValidator

	// Practice session state
	controller *session.Controller
	micBridge  *micBridge

	lastActivity time.Time

	mutex sync.Mutex
}

// HandleWebSocketWithAuth handles websocket requests with a pre-authenticated
// client identity.
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, clientID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan WriteData, 256),
		clientID:     clientID,
		logger:       logger,
		validator:    NewMessageValidator(),
		lastActivity: time.Now(),
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
		c.finishSession(false)
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

		c.touch()

		switch messageType {
		case websocket.TextMessage:
			// Process JSON messages (control messages)
			c.processMessage(message)
		case websocket.BinaryMessage:
			// Process binary audio data directly
			c.processBinaryAudioChunk(message)
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

// touch records client activity for the idle reaper.
func (c *Client) touch() {
	c.mutex.Lock()
	c.lastActivity = time.Now()
	c.mutex.Unlock()
}

func (c *Client) lastActive() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lastActivity
}

// enqueue queues outbound data without ever blocking a session goroutine.
// A client that cannot drain its send buffer loses frames, not the session.
func (c *Client) enqueue(data WriteData) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Send buffer full, dropping outbound frame",
			zap.String("clientID", c.clientID),
			zap.Int("size", len(data.Payload)))
	}
}

// sendJSON marshals and queues a JSON control message.
func (c *Client) sendJSON(message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}
	c.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
}

// processMessage processes incoming control messages from the client
func (c *Client) processMessage(message []byte) {
	parsed, err := c.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected invalid message", zap.Error(err))
		c.sendJSON(CreateErrorMessage("invalid_message", "Message validation failed", err.Error()))
		return
	}

	switch msg := parsed.(type) {
	case *SessionStartMessage:
		c.handleSessionStart(msg)
	case *MuteToggleMessage:
		c.handleMuteToggle()
	case *SessionEndMessage:
		c.finishSession(true)
	}
}

// processBinaryAudioChunk feeds microphone audio into the active session
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	bridge := c.micBridge
	c.mutex.Unlock()

	if bridge == nil {
		c.logger.Warn("Received binary audio chunk but no active session found",
			zap.String("clientID", c.clientID))
		return
	}

	bridge.Push(data)
}

// handleSessionStart opens a practice session for this client
func (c *Client) handleSessionStart(msg *SessionStartMessage) {
	c.mutex.Lock()
	if c.controller != nil {
		c.mutex.Unlock()
		c.sendJSON(CreateErrorMessage("session_active", "A session is already active", ""))
		return
	}

	bridge := newMicBridge(c.logger)
	controller := session.NewController(
		session.Options{
			Context:      msg.Context,
			VirtualWorld: msg.VirtualWorld,
			Model:        c.hub.defaults.Model,
			Voice:        c.hub.defaults.Voice,
			FrameSize:    c.hub.defaults.FrameSize,
		},
		c.hub.dialer,
		bridge,
		&clientRenderer{client: c},
		session.Callbacks{
			OnStatusChange: func(status entities.SessionStatus) {
				c.sendJSON(CreateSessionStatusMessage(status))
			},
			OnConversationUpdate: func(conversation []entities.Message) {
				c.sendJSON(CreateConversationUpdateMessage(conversation))
			},
			OnAISpeakingChange: func(speaking bool) {
				c.sendJSON(CreateAISpeakingMessage(speaking))
			},
			OnMicError: func(err error) {
				c.sendJSON(CreateMicErrorMessage(err.Error()))
			},
		},
		c.logger.With(zap.String("clientID", c.clientID)),
	)
	c.controller = controller
	c.micBridge = bridge
	c.mutex.Unlock()

	c.logger.Info("Starting practice session",
		zap.String("clientID", c.clientID),
		zap.String("context", msg.Context),
		zap.Bool("virtualWorld", msg.VirtualWorld))

	// Dialing the live connection blocks on the network; the read pump
	// must keep servicing the socket meanwhile.
	go func() {
		if err := controller.Start(context.Background()); err != nil {
			c.logger.Error("Failed to start practice session",
				zap.String("clientID", c.clientID),
				zap.Error(err))
			c.clearSession(controller)
		}
	}()
}

// handleMuteToggle flips the microphone mute state
func (c *Client) handleMuteToggle() {
	c.mutex.Lock()
	controller := c.controller
	c.mutex.Unlock()

	if controller == nil {
		c.sendJSON(CreateErrorMessage("no_session", "No active session", ""))
		return
	}

	c.sendJSON(CreateMuteStateMessage(controller.ToggleMute()))
}

// finishSession ends the active session, persists its training log, and,
// when notify is set, delivers the log to the client. No-op without an
// active session, so the disconnect path can always call it.
func (c *Client) finishSession(notify bool) {
	c.mutex.Lock()
	controller := c.controller
	c.controller = nil
	c.micBridge = nil
	c.mutex.Unlock()

	if controller == nil {
		return
	}

	log := controller.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.hub.store.Save(ctx, log); err != nil {
		c.logger.Error("Failed to persist training log",
			zap.String("clientID", c.clientID),
			zap.String("logID", log.ID),
			zap.Error(err))
	} else {
		c.logger.Info("Training log persisted",
			zap.String("clientID", c.clientID),
			zap.String("logID", log.ID),
			zap.Int("score", log.Score))
	}

	if notify {
		c.sendJSON(CreateSessionEndedMessage(log))
	}
}

// clearSession drops the session references if they still point at the
// given controller. Used when startup fails after the references were set.
func (c *Client) clearSession(controller *session.Controller) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.controller == controller {
		c.controller = nil
		c.micBridge = nil
	}
}
