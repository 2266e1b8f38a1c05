package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/internal/auth"
	"github.com/Arwindpianist/gridhealth/internal/fleet"
	"github.com/Arwindpianist/gridhealth/internal/health"
	"github.com/Arwindpianist/gridhealth/internal/telemetry"
	"github.com/Arwindpianist/gridhealth/pkg/models"
	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

// Handler provides WebSocket endpoints for real-time fleet and health
// event streaming.
type Handler struct {
	hub    *Hub
	tokens *auth.TokenService
	bus    plugin.EventBus
	logger *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to fleet,
// telemetry and health events.
func NewHandler(tokens *auth.TokenService, bus plugin.EventBus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		tokens: tokens,
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/events", h.handleEventStream)
}

// handleEventStream upgrades the connection to WebSocket and streams
// fleet and health events.
func (h *Handler) handleEventStream(w http.ResponseWriter, r *http.Request) {
	// Validate JWT from query parameter (browser WS API doesn't support headers).
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token parameter", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	// Accept WebSocket upgrade.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Allow any origin since we validate via JWT token.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	sess := h.hub.Attach(conn, claims.UserID)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		sess.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	sess.readPump(ctx)

	// Peer disconnected -- stop the write pump and detach.
	h.hub.Detach(sess)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents forwards fleet, telemetry and health bus events to
// all attached WebSocket sessions.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}

	h.bus.Subscribe(fleet.TopicDeviceRegistered, func(_ context.Context, event plugin.Event) {
		device, ok := event.Payload.(models.Device)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageDeviceRegistered,
			DeviceID:  device.ID,
			Timestamp: event.Timestamp,
			Data: DeviceRegisteredData{
				Device: device,
			},
		})
	})

	h.bus.Subscribe(telemetry.TopicRecordReceived, func(_ context.Context, event plugin.Event) {
		record, ok := event.Payload.(telemetry.RecordReceived)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageRecordReceived,
			DeviceID:  record.DeviceID,
			Timestamp: event.Timestamp,
			Data: RecordReceivedData{
				MetricType: record.MetricType,
				ReportedAt: record.ReportedAt,
			},
		})
	})

	forwardScoreChange := func(msgType MessageType) func(context.Context, plugin.Event) {
		return func(_ context.Context, event plugin.Event) {
			change, ok := event.Payload.(health.ScoreChange)
			if !ok {
				return
			}
			h.hub.Broadcast(Message{
				Type:      msgType,
				DeviceID:  change.DeviceID,
				Timestamp: event.Timestamp,
				Data: ScoreChangeData{
					Overall: change.Overall,
					Status:  change.Status,
				},
			})
		}
	}
	h.bus.Subscribe(health.TopicDeviceCritical, forwardScoreChange(MessageDeviceCritical))
	h.bus.Subscribe(health.TopicDeviceRecovered, forwardScoreChange(MessageDeviceRecovered))

	h.logger.Info("subscribed to fleet and health events for WebSocket broadcasting")
}
