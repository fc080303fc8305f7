package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-input/internal/input"
)

// Message types on the WebSocket.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// Event channels a client can subscribe to.
const (
	ChannelDevices      = "devices.updated"
	ChannelDeviceStatus = "device.status_changed"
	ChannelBinding      = "binding.overridden"
	ChannelReady        = "inputs.ready"
)

var knownChannels = []string{ChannelDevices, ChannelDeviceStatus, ChannelBinding, ChannelReady}

// retainedChannels carry state rather than edges: their last event is
// replayed to new subscribers.
var retainedChannels = map[string]bool{
	ChannelDevices: true,
	ChannelReady:   true,
}

// clientBufferSize is the per-client outbound queue length. Events for a
// client whose queue is full are dropped.
const clientBufferSize = 256

// WSMessage is a server-to-client message.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`
}

// WSRequest is a client-to-server message.
type WSRequest struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// DevicesEvent is the payload of ChannelDevices.
type DevicesEvent struct {
	Devices []device.Device `json:"devices"`
	Active  device.Device   `json:"active"`
}

// DeviceStatusEvent is the payload of ChannelDeviceStatus.
type DeviceStatusEvent struct {
	Device device.Device     `json:"device"`
	Kind   device.ChangeKind `json:"kind"`
}

// ReadyEvent is the payload of ChannelReady.
type ReadyEvent struct {
	Ready bool `json:"ready"`
}

// Hub fans input notifications out to subscribed WebSocket clients.
// It implements input.Notifier.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	retained map[string][]byte
}

var _ input.Notifier = (*Hub)(nil)

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	channels map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origins are enforced by the CORS middleware.
		return true
	},
}

// NewHub creates a hub with no clients.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		clients:  make(map[*wsClient]struct{}),
		retained: make(map[string][]byte),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

// unregister removes c. The send queue is closed only by whoever removes c
// from the map, so Run and a dying read pump never close it twice.
func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		close(c.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// Broadcast sends payload to every client subscribed to channel.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(newMessage(WSTypeEvent, "", channel, payload))
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	h.mu.Lock()
	if retainedChannels[channel] {
		h.retained[channel] = data
	}
	targets := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if c.subscribed(channel) {
			c.enqueue(data)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("websocket event sent", "channel", channel, "recipients", sent)
	}
}

// replay returns the retained events for channels.
func (h *Hub) replay(channels []string) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out [][]byte
	for _, ch := range channels {
		if data, ok := h.retained[ch]; ok {
			out = append(out, data)
		}
	}
	return out
}

// DevicesUpdated implements input.Notifier.
func (h *Hub) DevicesUpdated(devices []device.Device, active device.Device) {
	if devices == nil {
		devices = []device.Device{}
	}
	h.Broadcast(ChannelDevices, DevicesEvent{Devices: devices, Active: active})
}

// DeviceStatusChanged implements input.Notifier.
func (h *Hub) DeviceStatusChanged(d device.Device, kind device.ChangeKind) {
	h.Broadcast(ChannelDeviceStatus, DeviceStatusEvent{Device: d, Kind: kind})
}

// BindingOverridden implements input.Notifier.
func (h *Hub) BindingOverridden(ev input.BindingEvent) {
	h.Broadcast(ChannelBinding, ev)
}

// InputsReady implements input.Notifier.
func (h *Hub) InputsReady() {
	h.Broadcast(ChannelReady, ReadyEvent{Ready: true})
}

// handleWebSocket upgrades the connection and starts the client's pumps.
// Clients receive nothing until they subscribe.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, clientBufferSize),
		channels: make(map[string]struct{}),
	}
	s.hub.register(c)

	ka := newKeepalive(s.wsCfg)
	go c.writePump(ka)
	go c.readPump(ka, int64(s.wsCfg.MaxMessageSize))
}

// keepalive is the ping cadence of a connection. A zero keepalive
// disables pings and deadlines.
type keepalive struct {
	interval time.Duration
	wait     time.Duration
}

func newKeepalive(cfg config.WebSocketConfig) keepalive {
	return keepalive{
		interval: time.Duration(cfg.PingInterval) * time.Second,
		wait:     time.Duration(cfg.PongTimeout) * time.Second,
	}
}

func (k keepalive) readDeadline() time.Time {
	if k.interval+k.wait == 0 {
		return time.Time{}
	}
	return time.Now().Add(k.interval + k.wait)
}

func (k keepalive) writeDeadline() time.Time {
	if k.wait == 0 {
		return time.Time{}
	}
	return time.Now().Add(k.wait)
}

func (c *wsClient) readPump(ka keepalive, limit int64) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	if limit > 0 {
		c.conn.SetReadLimit(limit)
	}
	//nolint:errcheck // a failed deadline surfaces on the next read
	c.conn.SetReadDeadline(ka.readDeadline())
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(ka.readDeadline())
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		// Browsers may not answer protocol pings; any message counts as alive.
		//nolint:errcheck // a failed deadline surfaces on the next read
		c.conn.SetReadDeadline(ka.readDeadline())
		c.handle(data)
	}
}

func (c *wsClient) writePump(ka keepalive) {
	var tick <-chan time.Time
	if ka.interval > 0 {
		ticker := time.NewTicker(ka.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.conn.Close()

	for {
		select {
		case data, ok := <-c.send:
			//nolint:errcheck // write errors below end the pump
			c.conn.SetWriteDeadline(ka.writeDeadline())
			if !ok {
				//nolint:errcheck // peer may already be gone
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-tick:
			//nolint:errcheck // write errors below end the pump
			c.conn.SetWriteDeadline(ka.writeDeadline())
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle dispatches one client request.
func (c *wsClient) handle(data []byte) {
	var req WSRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(WSTypeError, "", map[string]string{"message": "invalid JSON message"})
		return
	}

	switch req.Type {
	case WSTypeSubscribe:
		if unknown := unknownChannels(req.Channels); len(unknown) > 0 {
			c.reply(WSTypeError, req.ID, map[string]any{"message": "unknown channels", "channels": unknown})
			return
		}
		c.subscribe(req.Channels)
		c.hub.logger.Debug("websocket client subscribed", "channels", req.Channels)
		c.reply(WSTypeResponse, req.ID, map[string]any{"subscribed": req.Channels})
		for _, ev := range c.hub.replay(req.Channels) {
			c.enqueue(ev)
		}
	case WSTypeUnsubscribe:
		c.unsubscribe(req.Channels)
		c.reply(WSTypeResponse, req.ID, map[string]any{"unsubscribed": req.Channels})
	case WSTypePing:
		c.reply(WSTypePong, req.ID, nil)
	default:
		c.reply(WSTypeError, req.ID, map[string]string{"message": "unknown message type: " + req.Type})
	}
}

func unknownChannels(channels []string) []string {
	var unknown []string
	for _, ch := range channels {
		if !slices.Contains(knownChannels, ch) {
			unknown = append(unknown, ch)
		}
	}
	return unknown
}

func (c *wsClient) subscribe(channels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		c.channels[ch] = struct{}{}
	}
}

func (c *wsClient) unsubscribe(channels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		delete(c.channels, ch)
	}
}

func (c *wsClient) subscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channel]
	return ok
}

// enqueue queues data without blocking. A full queue drops the message and
// a queue closed by a concurrent disconnect is ignored.
func (c *wsClient) enqueue(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on a queue closed during shutdown
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *wsClient) reply(msgType, id string, payload any) {
	data, err := json.Marshal(newMessage(msgType, id, "", payload))
	if err != nil {
		return
	}
	c.enqueue(data)
}

func newMessage(msgType, id, channel string, payload any) WSMessage {
	return WSMessage{
		Type:      msgType,
		ID:        id,
		Channel:   channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
}
