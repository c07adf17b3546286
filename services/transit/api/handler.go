package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rmrobinson/timetables/services/transit"
	"github.com/rmrobinson/timetables/services/transit/db"
	"go.uber.org/zap"
)

const queryTimeout = 5 * time.Second

// ConnectionStore is the read side of the sqlite export.
type ConnectionStore interface {
	LastRun(ctx context.Context) (*db.Run, error)
	Pairs(ctx context.Context) ([]transit.Pair, error)
	Connections(ctx context.Context, from, to string) ([]*transit.Segment, error)
}

// Handler serves the exported connection index as JSON.
type Handler struct {
	logger *zap.Logger
	store  ConnectionStore
}

// NewHandler creates a handler backed by the supplied store.
func NewHandler(logger *zap.Logger, store ConnectionStore) *Handler {
	return &Handler{
		logger: logger,
		store:  store,
	}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RunResponse is the JSON response for GET /api/run
type RunResponse struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Pairs       int       `json:"pairs"`
	Segments    int       `json:"segments"`
}

// PairResponse is a single station pair.
type PairResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PairsResponse is the JSON response for GET /api/pairs
type PairsResponse struct {
	Pairs []PairResponse `json:"pairs"`
	Count int            `json:"count"`
}

// ConnectionsResponse is the JSON response for GET /api/connections/{from}/{to}
type ConnectionsResponse struct {
	From        string             `json:"from"`
	To          string             `json:"to"`
	Connections []*transit.Segment `json:"connections"`
	Count       int                `json:"count"`
}

// Routes mounts the API endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/run", h.GetRun)
	r.Get("/api/pairs", h.GetPairs)
	r.Get("/api/connections/{from}/{to}", h.GetConnections)
}

// GetRun handles GET /api/run
// Returns the build that produced the exported index.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	run, err := h.store.LastRun(ctx)
	if errors.Is(err, db.ErrNoRuns) {
		writeError(w, http.StatusNotFound, "no connection index exported yet")
		return
	} else if err != nil {
		h.internalError(w, "unable to load run", err)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{
		ID:          run.ID,
		GeneratedAt: run.GeneratedAt.UTC(),
		Pairs:       run.Pairs,
		Segments:    run.Segments,
	})
}

// GetPairs handles GET /api/pairs
func (h *Handler) GetPairs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	pairs, err := h.store.Pairs(ctx)
	if err != nil {
		h.internalError(w, "unable to load pairs", err)
		return
	}

	resp := PairsResponse{
		Pairs: make([]PairResponse, 0, len(pairs)),
		Count: len(pairs),
	}
	for _, p := range pairs {
		resp.Pairs = append(resp.Pairs, PairResponse{From: p.From, To: p.To})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetConnections handles GET /api/connections/{from}/{to}
// Station names are path escaped.
func (h *Handler) GetConnections(w http.ResponseWriter, r *http.Request) {
	from, err := url.PathUnescape(chi.URLParam(r, "from"))
	if err != nil || from == "" {
		writeError(w, http.StatusBadRequest, "invalid from station")
		return
	}
	to, err := url.PathUnescape(chi.URLParam(r, "to"))
	if err != nil || to == "" {
		writeError(w, http.StatusBadRequest, "invalid to station")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	segments, err := h.store.Connections(ctx, from, to)
	if err != nil {
		h.internalError(w, "unable to load connections", err)
		return
	}
	if len(segments) < 1 {
		writeError(w, http.StatusNotFound, "no connections between the stations")
		return
	}

	writeJSON(w, http.StatusOK, ConnectionsResponse{
		From:        from,
		To:          to,
		Connections: segments,
		Count:       len(segments),
	})
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Warn(msg,
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
