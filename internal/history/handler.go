package history

import (
	"context"
	"net/http"
	"strconv"

	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=history_test

const maxPageSize = 200

type historyRepo interface {
	List(ctx context.Context, params ListParams) ([]*Event, error)
	Count(ctx context.Context, sessionID string) (int, error)
}

type Handler struct {
	repo historyRepo
}

func NewHandler(repo historyRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/history/page/{page}/size/{size}", h.HandleList).Methods("GET", "OPTIONS").Name("list-history")
}

type ListResponse struct {
	Events []*Event `json:"events"`
	Total  int      `json:"total"`
}

// HandleList returns a page of workout events, newest first. The optional
// session query param narrows the list to a single timer session.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.list")
	defer span.End()

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil || page < 1 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil || size < 1 || size > maxPageSize {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}

	sessionID := r.URL.Query().Get("session")
	events, err := h.repo.List(ctx, ListParams{
		SessionID: sessionID,
		Page:      page,
		Size:      size,
	})
	if err != nil {
		log.Errorf("list workout events: %s", err)
		http.Error(w, "failed to list workout events", http.StatusInternalServerError)
		return
	}

	total, err := h.repo.Count(ctx, sessionID)
	if err != nil {
		log.Errorf("count workout events: %s", err)
		http.Error(w, "failed to count workout events", http.StatusInternalServerError)
		return
	}

	if events == nil {
		events = []*Event{}
	}
	pkg.WriteJSON(w, ListResponse{Events: events, Total: total}, http.StatusOK)
}
