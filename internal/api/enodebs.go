package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/enodebd/internal/audit"
	"github.com/nerrad567/enodebd/internal/devices"
	"github.com/nerrad567/enodebd/internal/enodeb"
	"github.com/nerrad567/enodebd/internal/manager"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
	"github.com/nerrad567/enodebd/internal/tr069"
)

// enodebView is one entry of the device list. Live is false for devices
// known only from the database.
type enodebView struct {
	manager.StatusView
	Live bool `json:"live"`
}

// handleListEnodebs lists every live device followed by stored devices
// that have no machine in this process.
func (s *Server) handleListEnodebs(w http.ResponseWriter, r *http.Request) {
	live := s.manager.List()
	views := make([]enodebView, 0, len(live))
	seen := make(map[string]struct{}, len(live))
	for _, st := range live {
		views = append(views, enodebView{StatusView: manager.NewStatusView(st), Live: true})
		seen[st.Serial] = struct{}{}
	}

	records, err := s.records.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list stored enodebs", "error", err)
		writeInternalError(w, "failed to list enodebs")
		return
	}
	for i := range records {
		if _, ok := seen[records[i].Serial]; ok {
			continue
		}
		views = append(views, enodebView{StatusView: viewFromRecord(&records[i])})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Serial < views[j].Serial })

	if dt := r.URL.Query().Get("device_type"); dt != "" {
		filtered := views[:0]
		for _, v := range views {
			if v.DeviceType == dt {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"enodebs": views,
		"count":   len(views),
	})
}

// handleGetEnodeb returns the full status of one device, including its
// observed and desired configuration.
func (s *Server) handleGetEnodeb(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	if st, err := s.manager.Status(serial); err == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"live":   true,
			"status": st,
		})
		return
	}

	rec, err := s.records.Get(r.Context(), serial)
	if errors.Is(err, enodeb.ErrNotFound) {
		writeNotFound(w, "enodeb not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get enodeb", "serial", serial, "error", err)
		writeInternalError(w, "failed to get enodeb")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"live":   false,
		"record": rec,
	})
}

// handleListTransitions returns recent state changes, newest first.
func (s *Server) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	transitions, err := s.records.Transitions(r.Context(), serial, limit)
	if err != nil {
		s.logger.Error("failed to list transitions", "serial", serial, "error", err)
		writeInternalError(w, "failed to list transitions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"serial":      serial,
		"transitions": transitions,
		"count":       len(transitions),
	})
}

// handleReboot queues a reboot. It is sent at the device's next turn
// boundary, so the response is 202.
func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	if !s.operate(w, serial, "reboot", s.manager.Reboot(r.Context(), serial, callerID(r.Context()), audit.SourceAPI)) {
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"serial": serial, "status": "reboot_queued"})
}

// handleReset returns the device's machine to the disconnected state.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	if !s.operate(w, serial, "reset", s.manager.Reset(r.Context(), serial, callerID(r.Context()), audit.SourceAPI)) {
		return
	}
	st, _ := s.manager.Status(serial) //nolint:errcheck // machine existed a moment ago; a zero status is acceptable
	writeJSON(w, http.StatusAccepted, map[string]any{"serial": serial, "state": st.State})
}

// operate writes the error response for a failed device operation and
// reports whether the caller should continue.
func (s *Server) operate(w http.ResponseWriter, serial, op string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, manager.ErrUnknownDevice):
		writeNotFound(w, "enodeb not connected")
	case errors.Is(err, sm.ErrNoCapability):
		writeConflict(w, err.Error())
	default:
		s.logger.Error("enodeb operation failed", "serial", serial, "operation", op, "error", err)
		writeInternalError(w, op+" failed")
	}
	return false
}

// handleExchange runs one protocol turn for serial. The request body is
// the device's message as an envelope; the response is the reply.
func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	var env tr069.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	reply, err := s.manager.Exchange(r.Context(), serial, env)
	switch {
	case err == nil:
	case errors.Is(err, manager.ErrUnknownDevice):
		writeNotFound(w, "enodeb not connected; send an Inform first")
		return
	case errors.Is(err, tr069.ErrUnknownKind), errors.Is(err, tr069.ErrMalformed),
		errors.Is(err, manager.ErrSerialMismatch), errors.Is(err, manager.ErrNoSerial):
		writeBadRequest(w, err.Error())
		return
	case errors.Is(err, devices.ErrUnidentified), errors.Is(err, devices.ErrUnknownDeviceType):
		writeValidation(w, err.Error())
		return
	default:
		s.logger.Error("exchange failed", "serial", serial, "kind", env.Kind, "error", err)
		writeInternalError(w, "exchange failed")
		return
	}

	// Only session starts are audited.
	if env.Kind == tr069.KindInform {
		s.auditLog(audit.ActionExchange, audit.EntityEnodeb, serial, callerID(r.Context()), map[string]any{
			"request": env.Kind,
			"reply":   reply.Kind,
		})
	}
	writeJSON(w, http.StatusOK, reply)
}

func viewFromRecord(rec *enodeb.Record) manager.StatusView {
	return manager.StatusView{
		Serial:          rec.Serial,
		DeviceType:      rec.DeviceType,
		State:           rec.State,
		Description:     rec.StateDescription,
		Session:         rec.SessionID,
		InvasiveApplied: rec.InvasiveApplied,
		LastError:       rec.LastError,
		SWVersion:       rec.SWVersion,
		UpdatedAt:       rec.UpdatedAt,
	}
}
