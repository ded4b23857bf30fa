package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/entities"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
)

// fakeLive is a controllable live session for hub tests.
type fakeLive struct {
	events chan repositories.ServerEvent
	mu     sync.Mutex
	frames []string
	once   sync.Once
}

func newFakeLive() *fakeLive {
	return &fakeLive{events: make(chan repositories.ServerEvent, 16)}
}

func (f *fakeLive) SendAudioFrame(chunk string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, chunk)
	return nil
}

func (f *fakeLive) AcknowledgeTool(callID, name string) error { return nil }

func (f *fakeLive) Events() <-chan repositories.ServerEvent { return f.events }

func (f *fakeLive) Close() error {
	f.once.Do(func() { close(f.events) })
	return nil
}

func (f *fakeLive) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

type fakeDialer struct {
	live *fakeLive
}

func (d *fakeDialer) Connect(ctx context.Context, opts repositories.LiveOptions) (repositories.LiveSession, error) {
	return d.live, nil
}

// fakeStore records saved training logs.
type fakeStore struct {
	mu   sync.Mutex
	logs []*entities.TrainingLog
}

func (s *fakeStore) Save(ctx context.Context, log *entities.TrainingLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*entities.TrainingLog, error) {
	return nil, repositories.ErrLogNotFound
}

func (s *fakeStore) List(ctx context.Context) ([]*entities.TrainingLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs, nil
}

func (s *fakeStore) saved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func setupTestHub(t testing.TB) (*Hub, *fakeDialer, *fakeStore) {
	t.Helper()
	dialer := &fakeDialer{live: newFakeLive()}
	store := &fakeStore{}
	hub := NewHub(dialer, store, SessionDefaults{FrameSize: 4}, zap.NewNop())
	return hub, dialer, store
}

func newTestClient(hub *Hub) *Client {
	return &Client{
		hub:          hub,
		send:         make(chan WriteData, 256),
		clientID:     "client-1",
		logger:       zap.NewNop(),
		validator:    NewMessageValidator(),
		lastActivity: time.Now(),
	}
}

// eventually polls until the condition holds or the deadline passes.
func eventually(t *testing.T, condition func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}

func TestHub_NewHub(t *testing.T) {
	hub, _, _ := setupTestHub(t)

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.clients == nil {
		t.Error("Hub clients map not initialized")
	}
	if hub.register == nil {
		t.Error("Hub register channel not initialized")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel not initialized")
	}
}

func TestMicBridge_ConvertsPCM(t *testing.T) {
	bridge := newMicBridge(zap.NewNop())

	// 0x0000 = 0.0, 0x7FFF ≈ 1.0, 0x8000 = -1.0
	bridge.Push([]byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80})

	select {
	case samples := <-bridge.Samples():
		if len(samples) != 3 {
			t.Fatalf("Expected 3 samples, got %d", len(samples))
		}
		if samples[0] != 0 {
			t.Errorf("Expected sample 0, got %f", samples[0])
		}
		if samples[1] < 0.99 {
			t.Errorf("Expected sample near 1.0, got %f", samples[1])
		}
		if samples[2] != -1.0 {
			t.Errorf("Expected sample -1.0, got %f", samples[2])
		}
	case <-time.After(time.Second):
		t.Fatal("No samples received")
	}
}

func TestMicBridge_CarriesSplitSample(t *testing.T) {
	bridge := newMicBridge(zap.NewNop())

	// Three bytes: one full sample plus a dangling low byte.
	bridge.Push([]byte{0x00, 0x00, 0xFF})
	// Completes the dangling sample 0x7FFF and adds another.
	bridge.Push([]byte{0x7F, 0x00, 0x00})

	first := <-bridge.Samples()
	if len(first) != 1 {
		t.Fatalf("Expected 1 sample in first frame, got %d", len(first))
	}

	second := <-bridge.Samples()
	if len(second) != 2 {
		t.Fatalf("Expected 2 samples in second frame, got %d", len(second))
	}
	if second[0] < 0.99 {
		t.Errorf("Expected carried sample near 1.0, got %f", second[0])
	}
}

func TestMicBridge_CloseIsIdempotent(t *testing.T) {
	bridge := newMicBridge(zap.NewNop())

	if err := bridge.Close(); err != nil {
		t.Errorf("Expected no error on close, got %v", err)
	}
	if err := bridge.Close(); err != nil {
		t.Errorf("Expected no error on second close, got %v", err)
	}

	// Push after close must not panic or deliver.
	bridge.Push([]byte{0x00, 0x00})

	if _, ok := <-bridge.Samples(); ok {
		t.Error("Expected samples channel to be closed")
	}
}

func TestClientRenderer_ForwardsBinary(t *testing.T) {
	hub, _, _ := setupTestHub(t)
	client := newTestClient(hub)
	renderer := &clientRenderer{client: client}

	pcm := []byte{1, 2, 3, 4}
	if err := renderer.Write(pcm); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	select {
	case data := <-client.send:
		if data.Type != websocket.BinaryMessage {
			t.Errorf("Expected binary message, got type %d", data.Type)
		}
		if string(data.Payload) != string(pcm) {
			t.Errorf("Expected payload %v, got %v", pcm, data.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("No frame enqueued")
	}

	if err := renderer.Flush(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	select {
	case data := <-client.send:
		if data.Type != websocket.TextMessage {
			t.Errorf("Expected text message, got type %d", data.Type)
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(data.Payload, &msg); err != nil {
			t.Fatalf("Failed to unmarshal flush message: %v", err)
		}
		if msg["type"] != string(MessageTypePlaybackClear) {
			t.Errorf("Expected playback_clear, got %v", msg["type"])
		}
	case <-time.After(time.Second):
		t.Fatal("No flush message enqueued")
	}
}

func TestClient_InvalidMessageGetsErrorResponse(t *testing.T) {
	hub, _, _ := setupTestHub(t)
	client := newTestClient(hub)

	client.processMessage([]byte(`{invalid json}`))

	select {
	case data := <-client.send:
		var msg map[string]interface{}
		if err := json.Unmarshal(data.Payload, &msg); err != nil {
			t.Fatalf("Failed to unmarshal error response: %v", err)
		}
		if msg["type"] != string(MessageTypeError) {
			t.Errorf("Expected error type, got %v", msg["type"])
		}
	case <-time.After(time.Second):
		t.Fatal("Error response not received")
	}
}

func TestClient_SessionLifecycle(t *testing.T) {
	hub, dialer, store := setupTestHub(t)
	client := newTestClient(hub)

	client.processMessage([]byte(`{"type":"session_start","context":"Coffee Shop","virtual_world":true}`))

	client.mutex.Lock()
	controller := client.controller
	client.mutex.Unlock()
	if controller == nil {
		t.Fatal("Expected controller to be set after session start")
	}

	eventually(t, func() bool {
		return controller.Status() == entities.SessionStatusConnected
	}, "Session never reached connected status")

	// One frame of 4 samples at the configured frame size.
	client.processBinaryAudioChunk([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	eventually(t, func() bool {
		return dialer.live.frameCount() == 1
	}, "Microphone audio never reached the live session")

	// A second session while one is active is refused.
	client.processMessage([]byte(`{"type":"session_start","context":"Airport"}`))
	client.mutex.Lock()
	sameController := client.controller == controller
	client.mutex.Unlock()
	if !sameController {
		t.Error("Expected active session to be kept")
	}

	client.processMessage([]byte(`{"type":"session_end"}`))

	if store.saved() != 1 {
		t.Fatalf("Expected 1 saved training log, got %d", store.saved())
	}
	if controller.Status() != entities.SessionStatusEnded {
		t.Errorf("Expected ended status, got %s", controller.Status())
	}

	client.mutex.Lock()
	cleared := client.controller == nil
	client.mutex.Unlock()
	if !cleared {
		t.Error("Expected controller to be cleared after session end")
	}
}

func TestClient_DisconnectPersistsSession(t *testing.T) {
	hub, _, store := setupTestHub(t)
	client := newTestClient(hub)

	client.processMessage([]byte(`{"type":"session_start","context":"Airport"}`))

	client.mutex.Lock()
	controller := client.controller
	client.mutex.Unlock()
	eventually(t, func() bool {
		return controller.Status() == entities.SessionStatusConnected
	}, "Session never reached connected status")

	// The disconnect path ends without notifying.
	client.finishSession(false)

	if store.saved() != 1 {
		t.Fatalf("Expected 1 saved training log, got %d", store.saved())
	}

	// Idempotent: a second teardown saves nothing.
	client.finishSession(false)
	if store.saved() != 1 {
		t.Errorf("Expected no duplicate save, got %d", store.saved())
	}
}

func TestClient_BinaryChunkWithoutSession(t *testing.T) {
	hub, _, _ := setupTestHub(t)
	client := newTestClient(hub)

	// Must not panic.
	client.processBinaryAudioChunk([]byte{0, 0})
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub, _, _ := setupTestHub(t)
	go hub.Run()

	client := newTestClient(hub)
	hub.register <- client

	eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, "Client never registered")

	hub.unregister <- client

	eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 0
	}, "Client never unregistered")
}

func TestHub_CloseIdle(t *testing.T) {
	hub, _, _ := setupTestHub(t)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocketWithAuth(hub, c, "idle-client", zap.NewNop())
	})
	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket connection failed: %v", err)
	}
	defer ws.Close()

	eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, "Client never registered")

	// Nothing is idle yet.
	if n := hub.CloseIdle(time.Now().Add(-time.Minute)); n != 0 {
		t.Errorf("Expected 0 reaped clients, got %d", n)
	}

	// Everything is idle against a future cutoff.
	if n := hub.CloseIdle(time.Now().Add(time.Minute)); n != 1 {
		t.Errorf("Expected 1 reaped client, got %d", n)
	}

	eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 0
	}, "Reaped client never unregistered")
}
