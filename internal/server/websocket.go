package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type hubConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func defaultHubConfig() hubConfig {
	return hubConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     64,
	}
}

type wsConn struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	rooms       map[string]struct{}
	connectedAt time.Time
}

// wsHub fans messages out to websocket connections grouped by session code.
// Delivery is best effort: a connection whose buffer is full is dropped.
type wsHub struct {
	mu    sync.RWMutex
	cfg   hubConfig
	conns map[string]*wsConn
	rooms map[string]map[string]struct{}
}

type HubStats struct {
	Connections int            `json:"connections"`
	Rooms       int            `json:"rooms"`
	RoomSizes   map[string]int `json:"roomSizes"`
}

func newWSHub(cfg hubConfig) *wsHub {
	return &wsHub{
		cfg:   cfg,
		conns: make(map[string]*wsConn),
		rooms: make(map[string]map[string]struct{}),
	}
}

func (h *wsHub) register(conn *websocket.Conn) *wsConn {
	client := &wsConn{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, h.cfg.SendBuffer),
		rooms:       make(map[string]struct{}),
		connectedAt: time.Now().UTC(),
	}
	h.mu.Lock()
	h.conns[client.id] = client
	total := len(h.conns)
	h.mu.Unlock()
	log.Debug().Str("connection_id", client.id).Int("total_connections", total).Msg("connection registered")
	return client
}

// unregister removes the connection and closes its send channel. It reports
// whether the connection was still registered.
func (h *wsHub) unregister(connID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.conns[connID]
	if !ok {
		return false
	}
	delete(h.conns, connID)
	for code := range client.rooms {
		h.leaveLocked(code, connID)
	}
	close(client.send)
	return true
}

func (h *wsHub) Subscribe(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.conns[connID]
	if !ok {
		return
	}
	room := h.rooms[code]
	if room == nil {
		room = make(map[string]struct{})
		h.rooms[code] = room
	}
	room[connID] = struct{}{}
	client.rooms[code] = struct{}{}
}

func (h *wsHub) Unsubscribe(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.conns[connID]; ok {
		delete(client.rooms, code)
	}
	h.leaveLocked(code, connID)
}

func (h *wsHub) leaveLocked(code, connID string) {
	room := h.rooms[code]
	if room == nil {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, code)
	}
}

func (h *wsHub) CloseRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connID := range h.rooms[code] {
		if client, ok := h.conns[connID]; ok {
			delete(client.rooms, code)
		}
	}
	delete(h.rooms, code)
}

func (h *wsHub) Send(connID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("failed to marshal message")
		return
	}
	h.mu.RLock()
	client, ok := h.conns[connID]
	full := false
	if ok {
		select {
		case client.send <- data:
		default:
			full = true
		}
	}
	h.mu.RUnlock()
	if full {
		h.drop(client)
	}
}

func (h *wsHub) Broadcast(code string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("failed to marshal message")
		return
	}
	var slow []*wsConn
	h.mu.RLock()
	room := h.rooms[code]
	delivered := 0
	for connID := range room {
		client := h.conns[connID]
		if client == nil {
			continue
		}
		select {
		case client.send <- data:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()
	for _, client := range slow {
		h.drop(client)
	}
	log.Debug().
		Str("type", msg.Type).
		Str("session_code", code).
		Int("connections", delivered).
		Msg("message broadcast")
}

// drop closes a connection that cannot keep up. Its read pump then reports
// the disconnect.
func (h *wsHub) drop(client *wsConn) {
	if h.unregister(client.id) {
		log.Warn().Str("connection_id", client.id).Msg("connection send buffer full, closing connection")
		_ = client.conn.Close()
	}
}

func (h *wsHub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sizes := make(map[string]int, len(h.rooms))
	for code, room := range h.rooms {
		sizes[code] = len(room)
	}
	return HubStats{
		Connections: len(h.conns),
		Rooms:       len(h.rooms),
		RoomSizes:   sizes,
	}
}

func (h *wsHub) CloseAll() {
	h.mu.RLock()
	clients := make([]*wsConn, 0, len(h.conns))
	for _, client := range h.conns {
		clients = append(clients, client)
	}
	h.mu.RUnlock()
	for _, client := range clients {
		if h.unregister(client.id) {
			_ = client.conn.Close()
		}
	}
}

func (h *wsHub) writePump(client *wsConn) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", client.id).Msg("failed to write websocket message")
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", client.id).Msg("failed to send ping")
				return
			}
		}
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", c.Request.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	client := s.hub.register(conn)
	log.Info().
		Str("connection_id", client.id).
		Str("remote", c.Request.RemoteAddr).
		Msg("ws connected")
	go s.hub.writePump(client)
	go s.readPump(client)
}

func (s *Server) readPump(client *wsConn) {
	defer func() {
		s.hub.unregister(client.id)
		_ = client.conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		defer cancel()
		if err := s.orch.Disconnect(ctx, client.id); err != nil && !errors.Is(err, ErrOrchestratorStopped) {
			log.Error().Err(err).Str("connection_id", client.id).Msg("disconnect handling failed")
		}
	}()

	cfg := s.hub.cfg
	client.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", client.id).Msg("unexpected websocket close")
			}
			log.Info().Str("connection_id", client.id).Msg("ws disconnected")
			return
		}
		s.handleFrame(client.id, data)
		_ = client.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}
