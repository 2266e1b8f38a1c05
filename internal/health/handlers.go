package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/internal/server"
	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/devices/{device_id}", Handler: m.handleDeviceHealth},
		{Method: "GET", Path: "/devices/{device_id}/report", Handler: m.handleDeviceReport},
		{Method: "GET", Path: "/organizations/{org_id}/summary", Handler: m.handleOrgSummary},
		{Method: "GET", Path: "/organizations/{org_id}/report", Handler: m.handleOrgReport},
	}
}

// handleDeviceHealth returns the resolved health state of one device.
//
//	@Summary		Device health
//	@Description	Resolves a device's current health score, status and uptime.
//	@Tags			health
//	@Produce		json
//	@Security		BearerAuth
//	@Param			device_id	path		string	true	"Device ID"
//	@Success		200			{object}	models.DeviceHealthState
//	@Failure		404			{object}	server.Problem
//	@Router			/health/devices/{device_id} [get]
func (m *Module) handleDeviceHealth(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	state, err := m.ResolveDevice(r.Context(), deviceID)
	if err != nil {
		m.writeResolveError(w, r, deviceID, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleOrgSummary returns the organization fleet roll-up.
//
//	@Summary		Organization health summary
//	@Description	Rolls up health and reachability counts over the organization's active-license fleet.
//	@Tags			health
//	@Produce		json
//	@Security		BearerAuth
//	@Param			org_id	path		string	true	"Organization ID"
//	@Success		200		{object}	models.OrganizationHealthSummary
//	@Router			/health/organizations/{org_id}/summary [get]
func (m *Module) handleOrgSummary(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("org_id")
	summary, err := m.SummarizeOrganization(r.Context(), orgID)
	if err != nil {
		m.logger.Error("organization summary failed",
			zap.String("org_id", orgID), zap.Error(err))
		server.InternalError(w, "failed to summarize organization", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleDeviceReport returns a device report as JSON or CSV.
//
//	@Summary		Device report
//	@Description	Builds a device report with bounded recent history. Use format=csv for a CSV projection.
//	@Tags			health
//	@Produce		json
//	@Produce		text/csv
//	@Security		BearerAuth
//	@Param			device_id	path		string	true	"Device ID"
//	@Param			format		query		string	false	"Output format: json (default) or csv"
//	@Param			columns		query		string	false	"Comma-separated CSV column selection"
//	@Success		200			{object}	models.DeviceReport
//	@Failure		404			{object}	server.Problem
//	@Router			/health/devices/{device_id}/report [get]
func (m *Module) handleDeviceReport(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	report, err := m.resolver.BuildDeviceReport(r.Context(), deviceID, m.cfg.reportBounds())
	if err != nil {
		m.writeResolveError(w, r, deviceID, err)
		return
	}

	if wantsCSV(r) {
		doc, err := DeviceReportCSV(report, csvColumns(r))
		if err != nil {
			m.logger.Error("device report csv failed",
				zap.String("device_id", deviceID), zap.Error(err))
			server.InternalError(w, "failed to render report", r.URL.Path)
			return
		}
		writeCSVResponse(w, "device-report-"+deviceID+".csv", doc)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleOrgReport returns an organization report as JSON or CSV.
//
//	@Summary		Organization report
//	@Description	Builds a fleet report with per-device health rows. Use format=csv for a CSV projection.
//	@Tags			health
//	@Produce		json
//	@Produce		text/csv
//	@Security		BearerAuth
//	@Param			org_id	path		string	true	"Organization ID"
//	@Param			format	query		string	false	"Output format: json (default) or csv"
//	@Param			columns	query		string	false	"Comma-separated CSV column selection"
//	@Success		200		{object}	models.OrganizationReport
//	@Router			/health/organizations/{org_id}/report [get]
func (m *Module) handleOrgReport(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("org_id")
	report, err := m.resolver.BuildOrganizationReport(r.Context(), orgID, m.cfg.reportBounds())
	if err != nil {
		m.logger.Error("organization report failed",
			zap.String("org_id", orgID), zap.Error(err))
		server.InternalError(w, "failed to build report", r.URL.Path)
		return
	}

	if wantsCSV(r) {
		doc, err := OrganizationReportCSV(report, csvColumns(r))
		if err != nil {
			m.logger.Error("organization report csv failed",
				zap.String("org_id", orgID), zap.Error(err))
			server.InternalError(w, "failed to render report", r.URL.Path)
			return
		}
		writeCSVResponse(w, "org-report-"+orgID+".csv", doc)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (m *Module) writeResolveError(w http.ResponseWriter, r *http.Request, deviceID string, err error) {
	if errors.Is(err, ErrDeviceNotFound) {
		server.NotFound(w, "device not found", r.URL.Path)
		return
	}
	m.logger.Error("device resolution failed",
		zap.String("device_id", deviceID), zap.Error(err))
	server.InternalError(w, "failed to resolve device health", r.URL.Path)
}

func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "csv")
}

func csvColumns(r *http.Request) []string {
	raw := r.URL.Query().Get("columns")
	if raw == "" {
		return nil
	}
	cols := strings.Split(raw, ",")
	out := cols[:0]
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func writeCSVResponse(w http.ResponseWriter, filename, doc string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
