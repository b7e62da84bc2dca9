package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/intervaltimer/internal/presets"
	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/internal/timer"
	"github.com/2beens/intervaltimer/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	cueStreamBuffer   = 32
	heartbeatInterval = 15 * time.Second
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

// SetupRoutes registers the timer routes. Session creation goes through createLimiter.
func (h *Handler) SetupRoutes(r *mux.Router, createLimiter mux.MiddlewareFunc) {
	r.Handle("/timers", createLimiter(http.HandlerFunc(h.HandleCreate))).Methods("POST", "OPTIONS").Name("new-timer")
	r.HandleFunc("/timers", h.HandleList).Methods("GET", "OPTIONS").Name("list-timers")
	r.HandleFunc("/timers/{id}", h.HandleGet).Methods("GET", "OPTIONS").Name("get-timer")
	r.HandleFunc("/timers/{id}", h.HandleReconfigure).Methods("PUT", "OPTIONS").Name("reconfigure-timer")
	r.HandleFunc("/timers/{id}", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-timer")
	r.HandleFunc("/timers/{id}/cues", h.HandleCues).Methods("GET").Name("timer-cues")
	r.HandleFunc("/timers/{id}/{action:start|pause|resume|reset}", h.HandleControl).Methods("POST", "OPTIONS").Name("control-timer")
}

// ConfigRequest carries either a preset name or an explicit config.
type ConfigRequest struct {
	Preset string        `json:"preset,omitempty"`
	Config *timer.Config `json:"config,omitempty"`
}

func decodeConfigRequest(body io.Reader) (ConfigRequest, error) {
	var req ConfigRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, err
	}
	if req.Preset == "" && req.Config == nil {
		return req, errors.New("either preset or config is required")
	}
	if req.Preset != "" && req.Config != nil {
		return req, errors.New("preset and config are mutually exclusive")
	}
	return req, nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.timers.create")
	defer span.End()

	req, err := decodeConfigRequest(r.Body)
	if err != nil {
		log.Errorf("new timer, invalid request: %s", err)
		http.Error(w, fmt.Sprintf("invalid request: %s", err), http.StatusBadRequest)
		return
	}

	var view View
	if req.Preset != "" {
		span.SetAttributes(attribute.String("preset", req.Preset))
		view, err = h.manager.CreateFromPreset(ctx, req.Preset)
	} else {
		view, err = h.manager.Create(*req.Config)
	}
	if err != nil {
		writeError(w, "create timer", err)
		return
	}

	span.SetAttributes(attribute.String("session-id", view.ID))
	pkg.WriteJSON(w, view, http.StatusCreated)
}

type ListResponse struct {
	Timers []View `json:"timers"`
	Total  int    `json:"total"`
}

func (h *Handler) HandleList(w http.ResponseWriter, _ *http.Request) {
	views := h.manager.List()
	pkg.WriteJSON(w, ListResponse{Timers: views, Total: len(views)}, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, "get timer", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (h *Handler) HandleReconfigure(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.timers.reconfigure")
	defer span.End()

	id := mux.Vars(r)["id"]
	req, err := decodeConfigRequest(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %s", err), http.StatusBadRequest)
		return
	}

	var view View
	if req.Preset != "" {
		view, err = h.manager.ReconfigureFromPreset(ctx, id, req.Preset)
	} else {
		view, err = h.manager.Reconfigure(id, *req.Config)
	}
	if err != nil {
		writeError(w, "reconfigure timer", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.manager.Delete(id); err != nil {
		writeError(w, "delete timer", err)
		return
	}
	pkg.WriteJSON(w, map[string]string{"deleted": id}, http.StatusOK)
}

func (h *Handler) HandleControl(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.timers.control")
	defer span.End()

	vars := mux.Vars(r)
	id, action := vars["id"], vars["action"]
	span.SetAttributes(attribute.String("session-id", id), attribute.String("action", action))

	var (
		view View
		err  error
	)
	switch action {
	case "start":
		view, err = h.manager.Start(id)
	case "pause":
		view, err = h.manager.Pause(id)
	case "resume":
		view, err = h.manager.Resume(id)
	case "reset":
		view, err = h.manager.Reset(id)
	default:
		http.Error(w, "unknown action", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, action+" timer", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

// HandleCues streams the session cues as server-sent events. The first event
// carries the current session view.
func (h *Handler) HandleCues(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := h.manager.Get(id)
	if err != nil {
		writeError(w, "stream cues", err)
		return
	}

	cuesCh, unsubscribe, err := h.manager.Subscribe(id, cueStreamBuffer)
	if err != nil {
		writeError(w, "stream cues", err)
		return
	}
	defer unsubscribe()

	rc := http.NewResponseController(w)
	// streams outlive the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Warnf("cue stream %s, clear write deadline: %s", id, err)
	}

	w.Header().Set("Content-Type", pkg.ContentType.EventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, "state", view); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case cue, ok := <-cuesCh:
			if !ok {
				return
			}
			if err := writeEvent(w, rc, cue.Type.String(), cue); err != nil {
				log.Debugf("cue stream %s closed: %s", id, err)
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, rc *http.ResponseController, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return rc.Flush()
}

func writeError(w http.ResponseWriter, op string, err error) {
	var cfgErr *timer.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		pkg.WriteJSON(w, map[string]any{
			"error":  cfgErr.Error(),
			"fields": cfgErr.FieldErrors(),
		}, http.StatusBadRequest)
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, presets.ErrPresetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrTooManySessions), errors.Is(err, ErrManagerClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
