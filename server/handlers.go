package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/teranos/wander/am"
	"github.com/teranos/wander/engine"
	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/version"
)

// HandleWebSocket upgrades a connection, performs the version handshake,
// and hands the socket to the pumps. The handshake happens before the
// pumps start, while this goroutine still owns the write side.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.getState() != StateRunning {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		server:    s,
		conn:      conn,
		id:        uuid.New().String(),
		sendFrame: make(chan engine.Frame, MaxClientMessageQueueSize),
		sendMsg:   make(chan interface{}, MaxClientMessageQueueSize),
	}

	info := version.Get()
	if err := conn.WriteJSON(VersionMessage{
		Type:       "version",
		Version:    info.Version,
		CommitHash: info.CommitHash,
		BuildTime:  info.BuildTime,
		Timestamp:  nowUnixMilli(),
	}); err != nil {
		conn.Close()
		return
	}

	select {
	case s.register <- client:
	case <-s.ctx.Done():
		conn.Close()
		return
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
}

// HandleHealth reports liveness, version, and a short engine summary.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	state := s.getState()
	status := "ok"
	if state != StateRunning {
		status = state.String()
	}

	stats := s.eng.Stats()
	info := version.Get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"state":     state.String(),
		"version":   info.Version,
		"commit":    info.Short(),
		"clients":   s.ClientCount(),
		"verbosity": s.Verbosity(),
		"engine": map[string]interface{}{
			"settled": stats.Settled,
			"fault":   stats.Fault,
			"ticks":   stats.Ticks,
		},
	})
}

// HandleTrail serves the most recent frame snapshot. The engine goroutine
// owns the store, so the API reads the published frame, never the store.
func (s *Server) HandleTrail(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	frame, ok := s.LastFrame()
	if !ok {
		frame = engine.Frame{Nodes: []engine.NodeView{}, Links: []engine.LinkView{}}
	}
	writeJSON(w, http.StatusOK, frame)
}

// HandleEngine serves the engine's inspection stats.
func (s *Server) HandleEngine(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.eng.Stats())
}

// configUpdateBody is the PATCH payload: flat dotted keys to new values.
type configUpdateBody struct {
	Updates map[string]interface{} `json:"updates"`
}

// HandleConfig serves effective settings on GET and applies updates on
// POST or PATCH. Updates persist through the same allowlisted setters the
// WebSocket tune path uses.
func (s *Server) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("introspection") == "true" {
			intro, err := am.GetConfigIntrospection()
			if err != nil {
				writeWrappedError(w, err, "config introspection failed")
				return
			}
			writeJSON(w, http.StatusOK, intro)
			return
		}
		writeJSON(w, http.StatusOK, am.GetConfigSummary())

	case http.MethodPost, http.MethodPatch:
		var body configUpdateBody
		if err := readJSON(r, &body); err != nil {
			writeWrappedError(w, err, "invalid config update body")
			return
		}
		if len(body.Updates) == 0 {
			writeError(w, http.StatusBadRequest, "no updates given")
			return
		}

		updated := make([]string, 0, len(body.Updates))
		for key, value := range body.Updates {
			if err := applyConfigKeyUpdate(key, value); err != nil {
				writeWrappedError(w, err, "config update failed at "+key)
				return
			}
			updated = append(updated, key)
		}

		s.applyConfigReload()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"updated": updated,
		})

	default:
		requireMethods(w, r, http.MethodGet, http.MethodPost, http.MethodPatch)
	}
}

// applyConfigKeyUpdate persists one dotted-key update through the
// section's allowlisted setter. JSON numbers arrive as float64.
func applyConfigKeyUpdate(key string, value interface{}) error {
	section, field, ok := strings.Cut(key, ".")
	if !ok {
		return errors.Wrapf(errors.ErrInvalidRequest, "config key %q must be section.field", key)
	}

	switch section {
	case "physics", "viewport":
		num, ok := value.(float64)
		if !ok {
			return errors.Wrapf(errors.ErrInvalidRequest, "config key %q needs a numeric value", key)
		}
		if section == "physics" {
			return am.UpdatePhysicsSetting(field, num)
		}
		return am.UpdateViewportSetting(field, num)

	case "server":
		switch field {
		case "log_theme":
			theme, ok := value.(string)
			if !ok {
				return errors.Wrapf(errors.ErrInvalidRequest, "config key %q needs a string value", key)
			}
			return am.UpdateServerLogTheme(theme)
		case "broadcast_fps":
			num, ok := value.(float64)
			if !ok {
				return errors.Wrapf(errors.ErrInvalidRequest, "config key %q needs a numeric value", key)
			}
			return am.UpdateServerBroadcastFPS(int(num))
		default:
			return errors.Wrapf(errors.ErrInvalidRequest, "config key %q is not tunable", key)
		}

	default:
		return errors.Wrapf(errors.ErrInvalidRequest, "unknown config section %q", section)
	}
}
