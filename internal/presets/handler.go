package presets

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/internal/timer"
	"github.com/2beens/intervaltimer/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// SetupRoutes registers the preset routes. Writes go through adminOnly.
func (h *Handler) SetupRoutes(r *mux.Router, adminOnly mux.MiddlewareFunc) {
	r.HandleFunc("/presets", h.HandleList).Methods("GET", "OPTIONS").Name("list-presets")
	r.HandleFunc("/presets/{name}", h.HandleGet).Methods("GET", "OPTIONS").Name("get-preset")
	r.Handle("/presets", adminOnly(http.HandlerFunc(h.HandleAdd))).Methods("POST", "OPTIONS").Name("new-preset")
	r.Handle("/presets/{name}", adminOnly(http.HandlerFunc(h.HandleDelete))).Methods("DELETE", "OPTIONS").Name("delete-preset")
}

type presetsListResponse struct {
	Presets []Preset `json:"presets"`
	Total   int      `json:"total"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.presets.list")
	defer span.End()

	presets, err := h.service.List(ctx)
	if err != nil {
		log.Errorf("list presets: %s", err)
		http.Error(w, "failed to list presets", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, presetsListResponse{Presets: presets, Total: len(presets)}, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.presets.get")
	defer span.End()

	name := mux.Vars(r)["name"]
	preset, err := h.service.Get(ctx, name)
	if err != nil {
		if errors.Is(err, ErrPresetNotFound) {
			http.Error(w, "preset not found", http.StatusNotFound)
			return
		}
		log.Errorf("get preset [%s]: %s", name, err)
		http.Error(w, "failed to get preset", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, preset, http.StatusOK)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.presets.add")
	defer span.End()

	var preset Preset
	if err := json.NewDecoder(r.Body).Decode(&preset); err != nil {
		log.Errorf("new preset, unmarshal json params: %s", err)
		http.Error(w, "invalid preset json", http.StatusBadRequest)
		return
	}

	added, err := h.service.Add(ctx, preset)
	if err != nil {
		var cfgErr *timer.ConfigError
		switch {
		case errors.As(err, &cfgErr):
			pkg.WriteJSON(w, map[string]any{
				"error":  cfgErr.Error(),
				"fields": cfgErr.FieldErrors(),
			}, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidName):
			http.Error(w, "invalid preset name", http.StatusBadRequest)
		case errors.Is(err, ErrBuiltInPreset), errors.Is(err, ErrPresetExists):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Errorf("new preset [%s]: %s", preset.Name, err)
			http.Error(w, "failed to add preset", http.StatusInternalServerError)
		}
		return
	}

	log.Printf("new preset added: [%s] %s", added.Name, added.Config)
	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.presets.delete")
	defer span.End()

	name := mux.Vars(r)["name"]
	if err := h.service.Delete(ctx, name); err != nil {
		switch {
		case errors.Is(err, ErrPresetNotFound):
			http.Error(w, "preset not found", http.StatusNotFound)
		case errors.Is(err, ErrBuiltInPreset):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Errorf("delete preset [%s]: %s", name, err)
			http.Error(w, "failed to delete preset", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteJSON(w, map[string]string{"deleted": name}, http.StatusOK)
}
