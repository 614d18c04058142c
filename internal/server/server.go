// Package server exposes the announcement controller over HTTP: a small
// mobile page with the three feature buttons, a JSON API, a websocket
// event stream and Prometheus metrics.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/neelchudasama51-ui/netramarg/internal/announce"
	"github.com/neelchudasama51-ui/netramarg/internal/notify"
)

//go:embed static/index.html
var indexHTML []byte

// Options configures a Server.
type Options struct {
	// History backs GET /api/v1/toasts. Optional.
	History *notify.History
	// Metrics is mounted at /metrics when set.
	Metrics     http.Handler
	ReadTimeout time.Duration
	Logger      *log.Logger
}

// Server routes HTTP requests to a controller.
type Server struct {
	ctrl    *announce.Controller
	history *notify.History
	metrics http.Handler
	hub     *Hub
	router  *mux.Router
	timeout time.Duration
	log     *log.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type taskResponse struct {
	Feature announce.Feature `json:"feature"`
	Due     time.Time        `json:"due"`
	State   announce.State   `json:"state"`
}

type voiceResponse struct {
	VoiceEnabled bool `json:"voice_enabled"`
}

// New creates a Server for ctrl and subscribes its event hub.
func New(ctrl *announce.Controller, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}

	s := &Server{
		ctrl:    ctrl,
		history: opts.History,
		metrics: opts.Metrics,
		timeout: opts.ReadTimeout,
		log:     logger.WithPrefix("http"),
	}
	s.hub = NewHub(ctrl, s.log)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/voice/toggle", s.handleToggleVoice).Methods(http.MethodPost)
	api.HandleFunc("/vision", s.handleTrigger(announce.FeatureVision)).Methods(http.MethodPost)
	api.HandleFunc("/navigation", s.handleTrigger(announce.FeatureNavigation)).Methods(http.MethodPost)
	api.HandleFunc("/sos", s.handleTrigger(announce.FeatureSOS)).Methods(http.MethodPost)
	api.HandleFunc("/focus/{feature}", s.handleFocus).Methods(http.MethodPost)
	api.HandleFunc("/toasts", s.handleToasts).Methods(http.MethodGet)
	api.Handle("/events", s.hub).Methods(http.MethodGet)

	r.Use(s.logRequests)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. The bound address is reported through ready when non-nil.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.timeout,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	s.log.Info("listening", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case err := <-errc:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects websocket clients.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.ctrl.State().Closed {
		http.Error(w, "controller closed", http.StatusServiceUnavailable)
		return
	}
	_, _ = fmt.Fprintln(w, "OK")
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleToggleVoice(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, voiceResponse{VoiceEnabled: s.ctrl.ToggleVoice()})
}

func (s *Server) handleTrigger(f announce.Feature) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		task := s.ctrl.Trigger(f)
		if task == nil {
			st := s.ctrl.State()
			if st.Closed {
				writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "controller closed"})
				return
			}
			writeJSON(w, http.StatusConflict, errorResponse{Error: f.Title() + " is already processing"})
			return
		}
		writeJSON(w, http.StatusAccepted, taskResponse{Feature: f, Due: task.Due, State: s.ctrl.State()})
	}
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	f, err := announce.ParseFeature(mux.Vars(r)["feature"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	s.ctrl.Focus(f)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToasts(w http.ResponseWriter, _ *http.Request) {
	toasts := []notify.Toast{}
	if s.history != nil {
		toasts = s.history.List()
	}
	writeJSON(w, http.StatusOK, toasts)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
