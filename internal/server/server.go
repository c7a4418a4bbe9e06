// Package server exposes an engine over HTTP.
//
// Routes:
//
//	POST /calculate  JSON object of raw input values -> outputs or errors
//	GET  /healthz    liveness and the loaded engine
//	GET  /metrics    Prometheus metrics
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/roach88/calc/internal/engine"
	"github.com/roach88/calc/internal/ir"
)

// MaxBodyBytes bounds the size of a /calculate request body.
const MaxBodyBytes = 1 << 20

// Recorder persists run records. *store.Store implements it.
type Recorder interface {
	WriteRun(ctx context.Context, rec ir.RunRecord) error
}

// Server routes HTTP requests to one engine.
type Server struct {
	engine   *engine.Engine
	router   *chi.Mux
	logger   zerolog.Logger
	recorder Recorder
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRecorder records every run. Recording failures are logged and do not
// change the response.
func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithGatherer sets the registry /metrics serves.
// Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a Server for e.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   e,
		logger:   zerolog.Nop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Post("/calculate", s.handleCalculate)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info().Str("addr", addr).Str("engine", s.engine.Program().EngineID()).Msg("server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("server stopping: context cancelled")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	prog := s.engine.Program()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"engineId": prog.EngineID(),
		"hash":     prog.Hash(),
	})
}

type calculateResponse struct {
	AllOK   bool               `json:"allOk"`
	RunID   string             `json:"runId"`
	Outputs map[string]any     `json:"outputs,omitempty"`
	Errors  []engine.CalcError `json:"errors,omitempty"`
}

// Calculation handler
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	inputs, err := DecodeInputs(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	res := s.engine.Calculate(inputs)
	if s.recorder != nil {
		if err := s.recorder.WriteRun(r.Context(), res.Record()); err != nil {
			s.logger.Error().Err(err).Str("run", res.RunID).Msg("failed to record run")
		}
	}

	if !res.OK {
		respondJSON(w, http.StatusBadRequest, calculateResponse{RunID: res.RunID, Errors: res.Errors})
		return
	}

	outputs := make(map[string]any, len(res.Outputs))
	rendered := res.Rendered()
	for name, v := range res.Outputs {
		if b, err := v.Bool(); err == nil {
			outputs[name] = b
			continue
		}
		outputs[name] = rendered[name]
	}
	respondJSON(w, http.StatusOK, calculateResponse{AllOK: true, RunID: res.RunID, Outputs: outputs})
}

// DecodeInputs reads a JSON object whose values are raw input text.
// Numbers are taken verbatim, booleans as "true"/"false" and null as a
// blank value; nested values are rejected.
func DecodeInputs(r io.Reader) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("body must be a JSON object")
	}

	inputs := make(map[string]string, len(raw))
	for name, msg := range raw {
		var v any
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		switch val := v.(type) {
		case nil:
			inputs[name] = ""
		case string:
			inputs[name] = val
		case json.Number:
			inputs[name] = val.String()
		case bool:
			inputs[name] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("input %q must be a string, number, boolean or null", name)
		}
	}
	return inputs, nil
}

// requestLogger logs one line per request through zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
