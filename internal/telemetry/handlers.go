package telemetry

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/internal/server"
	"github.com/Arwindpianist/gridhealth/pkg/models"
	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/records", Handler: m.handleIngest},
		{Method: "GET", Path: "/devices/{device_id}/records", Handler: m.handleRecentMetrics},
		{Method: "GET", Path: "/devices/{device_id}/heartbeats", Handler: m.handleRecentHeartbeats},
	}
}

// handleIngest stores a telemetry record as submitted.
//
//	@Summary		Ingest telemetry
//	@Description	Stores a raw health scan, system metrics sample or heartbeat.
//	@Tags			telemetry
//	@Accept			json
//	@Security		BearerAuth
//	@Param			record	body	models.HealthScan	true	"Telemetry record"
//	@Success		202		"Record accepted"
//	@Failure		400		{object}	server.Problem
//	@Router			/telemetry/records [post]
func (m *Module) handleIngest(w http.ResponseWriter, r *http.Request) {
	var scan models.HealthScan
	if err := json.NewDecoder(r.Body).Decode(&scan); err != nil {
		server.BadRequest(w, "invalid record body", r.URL.Path)
		return
	}
	if scan.DeviceID == "" {
		server.BadRequest(w, "device_id is required", r.URL.Path)
		return
	}

	if err := m.Record(r.Context(), &scan); err != nil {
		m.logger.Error("record ingest failed",
			zap.String("device_id", scan.DeviceID), zap.Error(err))
		server.InternalError(w, "failed to store record", r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleRecentMetrics returns recent non-heartbeat records for a device.
//
//	@Summary	Recent metrics
//	@Tags		telemetry
//	@Produce	json
//	@Security	BearerAuth
//	@Param		device_id	path	string	true	"Device ID"
//	@Param		limit		query	int		false	"Maximum records (default 100)"
//	@Success	200			{array}	models.HealthScan
//	@Router		/telemetry/devices/{device_id}/records [get]
func (m *Module) handleRecentMetrics(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	scans, err := m.store.RecentMetrics(r.Context(), deviceID, MetricFilter{Limit: limit})
	if err != nil {
		m.logger.Error("recent metrics failed",
			zap.String("device_id", deviceID), zap.Error(err))
		server.InternalError(w, "failed to list records", r.URL.Path)
		return
	}
	if scans == nil {
		scans = []models.HealthScan{}
	}
	writeJSON(w, http.StatusOK, scans)
}

// handleRecentHeartbeats returns recent heartbeat records for a device.
//
//	@Summary	Recent heartbeats
//	@Tags		telemetry
//	@Produce	json
//	@Security	BearerAuth
//	@Param		device_id	path	string	true	"Device ID"
//	@Param		limit		query	int		false	"Maximum records (default 50)"
//	@Success	200			{array}	models.Heartbeat
//	@Router		/telemetry/devices/{device_id}/heartbeats [get]
func (m *Module) handleRecentHeartbeats(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	beats, err := m.store.RecentHeartbeats(r.Context(), deviceID, time.Time{}, limit)
	if err != nil {
		m.logger.Error("recent heartbeats failed",
			zap.String("device_id", deviceID), zap.Error(err))
		server.InternalError(w, "failed to list heartbeats", r.URL.Path)
		return
	}
	if beats == nil {
		beats = []models.Heartbeat{}
	}
	writeJSON(w, http.StatusOK, beats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
