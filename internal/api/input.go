package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-input/internal/binding"
	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/override"
)

// defaultHistoryLimit is used when /overrides/history has no limit parameter.
const defaultHistoryLimit = 50

// StateResponse is the body of GET /state.
type StateResponse struct {
	State     string          `json:"state"`
	Ready     bool            `json:"ready"`
	Active    device.Device   `json:"active_device"`
	Connected []device.Device `json:"connected"`
}

// DevicesResponse is the body of GET /devices.
type DevicesResponse struct {
	Active    device.Device   `json:"active"`
	Connected []device.Device `json:"connected"`
	Stats     device.Stats    `json:"stats"`
}

// PreferredDeviceRequest is the body of PUT /devices/preferred.
type PreferredDeviceRequest struct {
	Device string `json:"device"`
}

// RebindRequest is the body of PUT .../bindings/{index}.
type RebindRequest struct {
	// Bind is a dotted path ("Keyboard.Space") or "null" to unbind.
	Bind string `json:"bind"`
}

// BindingResponse is returned by rebind and reset.
type BindingResponse struct {
	Changed   bool                   `json:"changed"`
	Persisted bool                   `json:"persisted"`
	Change    *override.Change       `json:"change,omitempty"`
	Part      *binding.CompositePart `json:"part"`
	Error     string                 `json:"error,omitempty"`
}

// ReloadResponse is the body of POST /overrides/reload.
type ReloadResponse struct {
	Applied []override.Change `json:"applied"`
	Skipped int               `json:"skipped"`
	Errors  []string          `json:"errors"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	connected := s.input.ConnectedDevices()
	if connected == nil {
		connected = []device.Device{}
	}
	writeJSON(w, http.StatusOK, StateResponse{
		State:     s.input.State().String(),
		Ready:     s.input.IsReady(),
		Active:    s.input.ActiveDevice(),
		Connected: connected,
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	connected := s.input.ConnectedDevices()
	if connected == nil {
		connected = []device.Device{}
	}
	writeJSON(w, http.StatusOK, DevicesResponse{
		Active:    s.input.ActiveDevice(),
		Connected: connected,
		Stats:     s.input.DeviceStats(),
	})
}

func (s *Server) handleSetPreferredDevice(w http.ResponseWriter, r *http.Request) {
	var req PreferredDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	d, err := device.ParseDevice(req.Device)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.input.SetPreferredDevice(r.Context(), d); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"preferred": d,
		"active":    s.input.ActiveDevice(),
	})
}

func (s *Server) handleListMaps(w http.ResponseWriter, _ *http.Request) {
	names := s.input.MapNames()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"maps": names})
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	mapName := chi.URLParam(r, "map")

	found := false
	for _, name := range s.input.MapNames() {
		if name == mapName {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "action map not found: "+mapName)
		return
	}

	actions := []*binding.ActionBinding{}
	for _, a := range s.input.Actions() {
		if a.Map == mapName {
			actions = append(actions, a)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"map":     mapName,
		"actions": actions,
	})
}

func (s *Server) handleGetAction(w http.ResponseWriter, r *http.Request) {
	a, err := s.input.Action(chi.URLParam(r, "map"), chi.URLParam(r, "action"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// bindingParams extracts the map, action and binding index of a binding route.
func bindingParams(w http.ResponseWriter, r *http.Request) (mapName, action string, index int, ok bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeBadRequest(w, "binding index must be a non-negative integer")
		return "", "", 0, false
	}
	return chi.URLParam(r, "map"), chi.URLParam(r, "action"), index, true
}

func (s *Server) handleRebind(w http.ResponseWriter, r *http.Request) {
	mapName, action, index, ok := bindingParams(w, r)
	if !ok {
		return
	}
	var req RebindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ch, changed, err := s.input.Rebind(r.Context(), mapName, action, index, req.Bind)
	s.writeBindingResult(w, mapName, action, index, ch, changed, err)
}

func (s *Server) handleResetBinding(w http.ResponseWriter, r *http.Request) {
	mapName, action, index, ok := bindingParams(w, r)
	if !ok {
		return
	}

	ch, changed, err := s.input.ResetBinding(r.Context(), mapName, action, index)
	s.writeBindingResult(w, mapName, action, index, ch, changed, err)
}

// writeBindingResult answers a rebind or reset. A change that applied but
// could not be saved is still a success for the live binding, so it is
// reported with persisted=false rather than as an error.
func (s *Server) writeBindingResult(w http.ResponseWriter, mapName, action string, index int, ch override.Change, changed bool, err error) {
	if err != nil && !changed {
		writeDomainError(w, err)
		return
	}

	part, partErr := s.input.Part(mapName, action, index)
	if partErr != nil {
		writeDomainError(w, partErr)
		return
	}

	resp := BindingResponse{
		Changed:   changed,
		Persisted: err == nil,
		Part:      part,
	}
	if changed {
		resp.Change = &ch
	}
	if err != nil {
		s.logger.Warn("binding applied but not persisted", "map", mapName, "action", action, "index", index, "error", err)
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListOverrides(w http.ResponseWriter, _ *http.Request) {
	records := s.input.Overrides()
	if records == nil {
		records = []override.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"overrides": records})
}

func (s *Server) handleReloadOverrides(w http.ResponseWriter, r *http.Request) {
	res, err := s.input.ReloadOverrides(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ReloadResponse{
		Applied: res.Applied,
		Skipped: res.Skipped,
		Errors:  make([]string, 0, len(res.Errors)),
	}
	if resp.Applied == nil {
		resp.Applied = []override.Change{}
	}
	for _, e := range res.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOverrideHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries := []override.HistoryEntry{}
	if s.history != nil {
		recent, err := s.history.Recent(r.Context(), limit)
		if err != nil {
			s.logger.Error("reading binding history", "error", err)
			writeInternalError(w, "reading binding history")
			return
		}
		if recent != nil {
			entries = recent
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}
