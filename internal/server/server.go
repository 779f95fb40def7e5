// Package server exposes the dashboard over HTTP: JSON endpoints for the
// coin list, per-coin summaries, the distribution sample and the insights
// document, plus a websocket feed of render events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/applause/dashboard/internal/dashboard"
	"github.com/applause/dashboard/internal/ingest"
	"github.com/applause/dashboard/internal/metrics"
	"github.com/applause/dashboard/internal/store"
)

// Server is the HTTP server with all routes configured.
type Server struct {
	ctrl        *dashboard.Controller
	tracker     *metrics.Tracker
	broadcaster *Broadcaster
	unsubscribe func()
	mux         *http.ServeMux
	server      *http.Server
}

// New creates a Server and subscribes its broadcaster to ctrl.
func New(addr string, ctrl *dashboard.Controller, tracker *metrics.Tracker) *Server {
	mux := http.NewServeMux()
	broadcaster := NewBroadcaster()

	s := &Server{
		ctrl:        ctrl,
		tracker:     tracker,
		broadcaster: broadcaster,
		unsubscribe: ctrl.Subscribe(broadcaster.Broadcast),
		mux:         mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/coins", s.handleCoins)
	s.mux.HandleFunc("GET /api/coins/{coin}/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/distribution", s.handleDistribution)
	s.mux.HandleFunc("GET /api/insights", s.handleInsights)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("/ws", s.broadcaster.Handler())
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins listening for HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	slog.Info("http_server_started", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	s.broadcaster.Close()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uptime_s":    int64(snap.Uptime.Seconds()),
		"live_charts": snap.LiveCharts,
		"ws_clients":  s.broadcaster.Clients(),
	})
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	coins := s.ctrl.Current().Coins
	if len(coins) == 0 {
		loaded, err := s.ctrl.LoadCoins(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		coins = loaded
	}
	writeJSON(w, http.StatusOK, store.CommonCoins{Coins: coins})
}

type summaryResponse struct {
	Exchanges []store.Exchange `json:"exchanges"`
	*dashboard.CoinView
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	view, err := s.ctrl.Summary(r.Context(), r.PathValue("coin"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Exchanges: s.ctrl.Exchanges(),
		CoinView:  view,
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	if s.ctrl.Current().Insights == nil {
		if _, err := s.ctrl.LoadInsights(r.Context()); err != nil && !errors.Is(err, dashboard.ErrStaleResponse) {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.ctrl.Distribution(r.URL.Query().Get("highlight")))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	doc := s.ctrl.Current().Insights
	if doc == nil {
		loaded, err := s.ctrl.LoadInsights(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		doc = loaded
	}
	writeJSON(w, http.StatusOK, doc)
}

type stateResponse struct {
	Coin      string                     `json:"coin,omitempty"`
	Highlight string                     `json:"highlight,omitempty"`
	Detail    string                     `json:"detail"`
	DetailKey string                     `json:"detail_exchange,omitempty"`
	Charts    []string                   `json:"charts"`
	Sample    dashboard.DistributionView `json:"distribution"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.Current()
	resp := stateResponse{
		Highlight: st.Highlight,
		Detail:    st.Detail.String(),
		DetailKey: st.DetailKey,
		Charts:    s.ctrl.LiveCharts(),
		Sample:    st.Distribution,
	}
	if st.Current != nil {
		resp.Coin = st.Current.Coin
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// writeError maps load errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ingest.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrStaleResponse):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
