package fleet

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/internal/server"
	"github.com/Arwindpianist/gridhealth/pkg/models"
	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/devices", Handler: m.handleEnrollDevice},
		{Method: "GET", Path: "/devices", Handler: m.handleListDevices},
		{Method: "GET", Path: "/devices/{device_id}", Handler: m.handleGetDevice},
		{Method: "GET", Path: "/organizations", Handler: m.handleListOrganizations},
		{Method: "GET", Path: "/organizations/{org_id}/devices", Handler: m.handleListOrgDevices},
	}
}

// EnrollRequest is the body for device enrollment.
type EnrollRequest struct {
	DeviceID     string `json:"device_id" example:"a3f1c2d4"`
	LicenseKey   string `json:"license_key" example:"GRID-XXXX-YYYY"`
	Hostname     string `json:"hostname" example:"finance-ws-07"`
	OS           string `json:"os" example:"Windows 11 Pro"`
	DeviceType   string `json:"device_type" example:"desktop"`
	AgentVersion string `json:"agent_version" example:"1.4.2"`
}

// handleEnrollDevice registers or refreshes a device under a license.
//
//	@Summary		Enroll device
//	@Description	Registers a device under a license key, or refreshes its inventory fields if already enrolled.
//	@Tags			fleet
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		EnrollRequest	true	"Device enrollment"
//	@Success		201		{object}	models.Device
//	@Failure		400		{object}	server.Problem
//	@Router			/fleet/devices [post]
func (m *Module) handleEnrollDevice(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if req.DeviceID == "" || req.LicenseKey == "" {
		server.BadRequest(w, "device_id and license_key are required", r.URL.Path)
		return
	}

	device := &models.Device{
		ID:           req.DeviceID,
		LicenseKey:   req.LicenseKey,
		Hostname:     req.Hostname,
		OS:           req.OS,
		DeviceType:   models.DeviceType(req.DeviceType),
		AgentVersion: req.AgentVersion,
	}
	if err := m.EnrollDevice(r.Context(), device); err != nil {
		if errors.Is(err, ErrUnknownLicense) {
			server.BadRequest(w, "unknown license key", r.URL.Path)
			return
		}
		m.logger.Error("device enrollment failed",
			zap.String("device_id", req.DeviceID), zap.Error(err))
		server.InternalError(w, "failed to enroll device", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

// handleListDevices returns all enrolled devices.
//
//	@Summary		List devices
//	@Description	Returns every enrolled device across all organizations.
//	@Tags			fleet
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}	models.Device
//	@Router			/fleet/devices [get]
func (m *Module) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := m.store.ListDevices(r.Context())
	if err != nil {
		m.logger.Error("list devices failed", zap.Error(err))
		server.InternalError(w, "failed to list devices", r.URL.Path)
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleGetDevice returns a single device by ID.
//
//	@Summary	Get device
//	@Tags		fleet
//	@Produce	json
//	@Security	BearerAuth
//	@Param		device_id	path		string	true	"Device ID"
//	@Success	200			{object}	models.Device
//	@Failure	404			{object}	server.Problem
//	@Router		/fleet/devices/{device_id} [get]
func (m *Module) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	device, err := m.store.GetDevice(r.Context(), deviceID)
	if err != nil {
		m.logger.Error("get device failed", zap.String("device_id", deviceID), zap.Error(err))
		server.InternalError(w, "failed to get device", r.URL.Path)
		return
	}
	if device == nil {
		server.NotFound(w, "device not found", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// handleListOrganizations returns all organizations.
//
//	@Summary	List organizations
//	@Tags		fleet
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	models.Organization
//	@Router		/fleet/organizations [get]
func (m *Module) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := m.store.ListOrganizations(r.Context())
	if err != nil {
		m.logger.Error("list organizations failed", zap.Error(err))
		server.InternalError(w, "failed to list organizations", r.URL.Path)
		return
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	writeJSON(w, http.StatusOK, orgs)
}

// handleListOrgDevices returns the devices bound to an organization.
//
//	@Summary	List organization devices
//	@Tags		fleet
//	@Produce	json
//	@Security	BearerAuth
//	@Param		org_id	path	string	true	"Organization ID"
//	@Success	200		{array}	models.Device
//	@Failure	404		{object}	server.Problem
//	@Router		/fleet/organizations/{org_id}/devices [get]
func (m *Module) handleListOrgDevices(w http.ResponseWriter, r *http.Request) {
	orgID := r.PathValue("org_id")
	org, err := m.store.GetOrganization(r.Context(), orgID)
	if err != nil {
		m.logger.Error("get organization failed", zap.String("org_id", orgID), zap.Error(err))
		server.InternalError(w, "failed to get organization", r.URL.Path)
		return
	}
	if org == nil {
		server.NotFound(w, "organization not found", r.URL.Path)
		return
	}

	devices, err := m.store.ListDevicesByOrganization(r.Context(), orgID)
	if err != nil {
		m.logger.Error("list organization devices failed", zap.String("org_id", orgID), zap.Error(err))
		server.InternalError(w, "failed to list devices", r.URL.Path)
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
