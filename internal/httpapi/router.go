package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"

	"jobwatch-go/internal/model"
)

type Checker interface {
	Run(ctx context.Context) bool
	Running() bool
	Latest(ctx context.Context) (*model.Snapshot, error)
	History(ctx context.Context) ([]model.Snapshot, error)
}

type Handler struct {
	service Checker
	// runCtx outlives the request that triggered the check.
	runCtx context.Context
}

func NewHandler(runCtx context.Context, service Checker) *Handler {
	return &Handler{service: service, runCtx: runCtx}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealth)
	r.Post("/checks", h.handleCheck)
	r.Get("/snapshots", h.handleHistory)
	r.Get("/snapshots/latest", h.handleLatest)
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Post("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/allocs", pprof.Handler("allocs").ServeHTTP)
		r.Get("/block", pprof.Handler("block").ServeHTTP)
		r.Get("/goroutine", pprof.Handler("goroutine").ServeHTTP)
		r.Get("/heap", pprof.Handler("heap").ServeHTTP)
		r.Get("/mutex", pprof.Handler("mutex").ServeHTTP)
		r.Get("/threadcreate", pprof.Handler("threadcreate").ServeHTTP)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if h.service.Running() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "check already running"})
		return
	}
	go h.service.Run(h.runCtx)

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Check started"})
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Latest(r.Context())
	if err != nil {
		log.Printf("latest snapshot: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot store unavailable"})
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot yet"})
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*snap))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.service.History(r.Context())
	if err != nil {
		log.Printf("snapshot history: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot store unavailable"})
		return
	}
	out := make([]snapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, toResponse(snap))
	}
	writeJSON(w, http.StatusOK, out)
}

type snapshotResponse struct {
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
	Count     int       `json:"count"`
	Listings  []string  `json:"listings"`
}

func toResponse(snap model.Snapshot) snapshotResponse {
	return snapshotResponse{
		Tag:       snap.Tag,
		CreatedAt: snap.CreatedAt,
		Count:     snap.Listings.Len(),
		Listings:  snap.Listings.Strings(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
