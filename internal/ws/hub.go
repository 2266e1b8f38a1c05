package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// sendBufferSize bounds how far a slow consumer may lag before the hub
// starts dropping messages for it.
const sendBufferSize = 256

var (
	wsSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gridhealth",
		Subsystem: "ws",
		Name:      "sessions",
		Help:      "Currently attached WebSocket sessions.",
	})
	wsDroppedMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gridhealth",
		Subsystem: "ws",
		Name:      "dropped_messages_total",
		Help:      "Messages dropped because a session's send buffer was full.",
	})
)

func init() {
	prometheus.MustRegister(wsSessions, wsDroppedMessages)
}

// session is one attached WebSocket consumer. Sessions are created by
// Hub.Attach and torn down by Hub.Detach.
type session struct {
	id     uint64
	conn   *websocket.Conn
	userID string
	send   chan Message
	logger *zap.Logger
}

// Hub fans events out to every attached session. Send buffers are
// bounded; a session that cannot keep up loses messages rather than
// stalling the rest of the fleet stream.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uint64]*session
	lastID   uint64
	logger   *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[uint64]*session),
		logger:   logger,
	}
}

// Attach creates a session for the connection and starts tracking it.
func (h *Hub) Attach(conn *websocket.Conn, userID string) *session {
	h.mu.Lock()
	h.lastID++
	s := &session{
		id:     h.lastID,
		conn:   conn,
		userID: userID,
		send:   make(chan Message, sendBufferSize),
		logger: h.logger.With(zap.Uint64("session_id", h.lastID)),
	}
	h.sessions[s.id] = s
	h.mu.Unlock()

	wsSessions.Inc()
	s.logger.Debug("websocket session attached", zap.String("user_id", userID))
	return s
}

// Detach removes the session and closes its send channel. Safe to call
// more than once.
func (h *Hub) Detach(s *session) {
	h.mu.Lock()
	_, attached := h.sessions[s.id]
	if attached {
		delete(h.sessions, s.id)
		close(s.send)
	}
	h.mu.Unlock()

	if attached {
		wsSessions.Dec()
		s.logger.Debug("websocket session detached", zap.String("user_id", s.userID))
	}
}

// Broadcast queues a message for every attached session, dropping it
// for sessions whose buffers are full.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.sessions {
		select {
		case s.send <- msg:
		default:
			wsDroppedMessages.Inc()
			s.logger.Warn("send buffer full, dropping message",
				zap.String("user_id", s.userID),
				zap.String("type", string(msg.Type)))
		}
	}
}

// SessionCount reports how many sessions are attached.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// writePump drains the send channel onto the wire until the channel is
// closed by Detach or a write fails.
func (s *session) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, s.conn, msg)
			cancel()
			if err != nil {
				s.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

// readPump drains inbound frames. The stream is server-to-client only;
// reading serves solely to notice the peer going away.
func (s *session) readPump(ctx context.Context) {
	for {
		if _, _, err := s.conn.Read(ctx); err != nil {
			return
		}
	}
}
