package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// writeWait bounds a single websocket write so one stalled client cannot block a broadcast.
const writeWait = 5 * time.Second

// Event is the JSON envelope sent to websocket clients.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusProvider answers the /status and /health endpoints.
type StatusProvider interface {
	GetStatus() *StatusResponse
	GetHealth() *HealthStatus
}

// ClientSubscription tracks event subscriptions for a WebSocket client.
type ClientSubscription struct {
	subscriptions map[string]bool
	subscribeAll  bool // Set until the client subscribes to specific types
	mu            sync.RWMutex
}

// NewClientSubscription creates a subscription that receives every event.
func NewClientSubscription() *ClientSubscription {
	return &ClientSubscription{
		subscriptions: make(map[string]bool),
		subscribeAll:  true,
	}
}

// Subscribe adds event types to the subscription list.
// The first explicit subscription disables "subscribe all" mode.
func (cs *ClientSubscription) Subscribe(eventTypes []string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.subscribeAll && len(eventTypes) > 0 {
		cs.subscribeAll = false
	}
	for _, eventType := range eventTypes {
		cs.subscriptions[eventType] = true
	}
}

// Unsubscribe removes event types from the subscription list.
func (cs *ClientSubscription) Unsubscribe(eventTypes []string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, eventType := range eventTypes {
		delete(cs.subscriptions, eventType)
	}
}

// SubscribeAll enables receiving all events.
func (cs *ClientSubscription) SubscribeAll() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.subscribeAll = true
}

// IsSubscribed checks if the client should receive the given event type.
func (cs *ClientSubscription) IsSubscribed(eventType string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if cs.subscribeAll {
		return true
	}
	return cs.subscriptions[eventType]
}

// GetSubscriptions returns a copy of current subscriptions.
func (cs *ClientSubscription) GetSubscriptions() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if cs.subscribeAll {
		return []string{"*"}
	}

	result := make([]string, 0, len(cs.subscriptions))
	for eventType := range cs.subscriptions {
		result = append(result, eventType)
	}
	return result
}

// wsClient serializes writes to one connection; gorilla allows a single concurrent writer.
type wsClient struct {
	conn         *websocket.Conn
	subscription *ClientSubscription
	writeMu      sync.Mutex
}

func (c *wsClient) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // Write reports the failure
	return c.conn.WriteJSON(v)
}

// WebSocketServer manages WebSocket connections and event broadcasting.
type WebSocketServer struct {
	port       int
	clients    map[*websocket.Conn]*wsClient
	clientsMu  sync.RWMutex
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once
	upgrader   websocket.Upgrader
	server     *http.Server
	addr       string
	status     StatusProvider
	metrics    http.Handler
	corsConfig CORSConfig
	logger     *zap.Logger
}

// NewWebSocketServer creates a new WebSocket server and starts its broadcast loop.
func NewWebSocketServer(port int, corsConfig CORSConfig, logger *zap.Logger) *WebSocketServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &WebSocketServer{
		port:       port,
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan Event, 100),
		done:       make(chan struct{}),
		corsConfig: corsConfig,
		logger:     logger.Named("websocket"),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	go s.handleBroadcasts()
	return s
}

// checkOrigin validates the request origin against the configured CORS policy.
func (s *WebSocketServer) checkOrigin(r *http.Request) bool {
	if s.corsConfig.AllowAllOrigins {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// Same-origin request
		return true
	}

	for _, allowed := range s.corsConfig.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	s.logger.Warn("rejected websocket origin", zap.String("origin", origin), zap.Strings("allowed", s.corsConfig.AllowedOrigins))
	return false
}

// SetStatusProvider sets the source for /status and /health responses.
func (s *WebSocketServer) SetStatusProvider(provider StatusProvider) {
	s.status = provider
}

// SetMetricsHandler serves h on /metrics.
func (s *WebSocketServer) SetMetricsHandler(h http.Handler) {
	s.metrics = h
}

// Handler returns the HTTP routes of the server.
func (s *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Start binds the port and serves in the background.
func (s *WebSocketServer) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.addr = listener.Addr().String()

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("websocket server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("websocket server listening", zap.String("addr", s.addr))
	return nil
}

// Addr returns the bound address once started.
func (s *WebSocketServer) Addr() string {
	return s.addr
}

// Stop closes every client and shuts the HTTP server down.
func (s *WebSocketServer) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)

		s.clientsMu.Lock()
		for conn := range s.clients {
			_ = conn.Close() //nolint:errcheck // Ignore error on cleanup
		}
		s.clients = make(map[*websocket.Conn]*wsClient)
		s.clientsMu.Unlock()

		if s.server != nil {
			err = s.server.Shutdown(ctx)
		}
	})
	return err
}

// Broadcast queues an event for every subscribed client. Events are dropped
// when the queue is full or the server is stopped.
func (s *WebSocketServer) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.broadcast <- event:
	default:
		s.logger.Warn("broadcast queue full, dropping event", zap.String("event", event.Type))
	}
}

// ClientCount returns the number of connected clients.
func (s *WebSocketServer) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// handleWebSocket handles WebSocket upgrade requests.
func (s *WebSocketServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn, subscription: NewClientSubscription()}
	s.clientsMu.Lock()
	s.clients[conn] = client
	s.clientsMu.Unlock()

	s.logger.Info("client connected", zap.Int("clients", s.ClientCount()))

	welcome := Event{
		Type: "daemon:connected",
		Data: map[string]any{
			"message":       "Connected to Fall Guys Companion daemon",
			"subscriptions": client.subscription.GetSubscriptions(),
		},
		Timestamp: time.Now(),
	}
	if err := client.send(welcome); err != nil {
		s.logger.Debug("failed to send welcome", zap.Error(err))
	}

	go s.handleClient(client)
}

// clientMessage is a command sent by a websocket client.
type clientMessage struct {
	Type   string          `json:"type"`
	Events json.RawMessage `json:"events"`
}

// handleClient handles messages from a specific client.
func (s *WebSocketServer) handleClient(client *wsClient) {
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.conn)
		s.clientsMu.Unlock()

		_ = client.conn.Close() //nolint:errcheck // Ignore error on cleanup
		s.logger.Info("client disconnected", zap.Int("clients", s.ClientCount()))
	}()

	for {
		var msg clientMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		reply, ok := s.handleMessage(client, msg)
		if !ok {
			continue
		}
		if err := client.send(reply); err != nil {
			s.logger.Debug("failed to reply", zap.String("request", msg.Type), zap.Error(err))
			return
		}
	}
}

// handleMessage applies one client command and returns the reply, if any.
func (s *WebSocketServer) handleMessage(client *wsClient, msg clientMessage) (Event, bool) {
	now := time.Now()
	subscription := client.subscription

	switch msg.Type {
	case "ping":
		return Event{Type: "pong", Data: map[string]any{}, Timestamp: now}, true
	case "subscribe":
		eventTypes := extractEventTypes(msg.Events)
		if len(eventTypes) == 0 {
			subscription.SubscribeAll()
		} else {
			subscription.Subscribe(eventTypes)
		}
		return subscriptionAck("subscribe", subscription, now), true
	case "unsubscribe":
		subscription.Unsubscribe(extractEventTypes(msg.Events))
		return subscriptionAck("unsubscribe", subscription, now), true
	case "get_subscriptions":
		return Event{
			Type:      "subscription:list",
			Data:      map[string]any{"subscriptions": subscription.GetSubscriptions()},
			Timestamp: now,
		}, true
	case "get_status":
		if s.status == nil {
			return Event{}, false
		}
		return Event{Type: "daemon:status", Data: s.status.GetStatus(), Timestamp: now}, true
	default:
		return Event{}, false
	}
}

func subscriptionAck(action string, subscription *ClientSubscription, now time.Time) Event {
	return Event{
		Type: "subscription:updated",
		Data: map[string]any{
			"action":        action,
			"subscriptions": subscription.GetSubscriptions(),
		},
		Timestamp: now,
	}
}

// handleBroadcasts delivers queued events to subscribed clients until Stop.
func (s *WebSocketServer) handleBroadcasts() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.broadcast:
			s.deliver(event)
		}
	}
}

func (s *WebSocketServer) deliver(event Event) {
	s.clientsMu.RLock()
	targets := make([]*wsClient, 0, len(s.clients))
	for _, client := range s.clients {
		if client.subscription.IsSubscribed(event.Type) {
			targets = append(targets, client)
		}
	}
	s.clientsMu.RUnlock()

	for _, client := range targets {
		if err := client.send(event); err != nil {
			s.logger.Debug("failed to broadcast", zap.String("event", event.Type), zap.Error(err))
			// The read loop notices the closed connection and unregisters it.
			_ = client.conn.Close() //nolint:errcheck // Ignore error on cleanup
		}
	}
}

// extractEventTypes accepts either a string or an array of strings.
func extractEventTypes(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// handleStatus handles HTTP status requests.
func (s *WebSocketServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"}, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, s.status.GetStatus(), s.logger)
}

// handleHealth handles HTTP health check requests.
func (s *WebSocketServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"message": "Service not fully initialized",
		}, s.logger)
		return
	}

	health := s.status.GetHealth()
	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health, s.logger)
}

func writeJSON(w http.ResponseWriter, code int, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to encode response", zap.Error(err))
	}
}
