// Package server exposes a plugin runtime's metrics and health over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/andrei-cloud/plugcore/internal/host"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Server serves /metrics and /healthz for one runtime.
type Server struct {
	address string
	srv     *http.Server
	rt      *host.Runtime
}

// health is the /healthz response body.
type health struct {
	Status    string `json:"status"`
	Namespace string `json:"namespace"`
	Commands  int    `json:"commands"`
	Plugins   int    `json:"plugins"`
}

// NewServer configures and returns the metrics server instance.
func NewServer(address string, rt *host.Runtime) (*Server, error) {
	if address == "" {
		return nil, errors.New("server setup failed: empty address")
	}

	s := &Server{address: address, rt: rt}
	s.srv = &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(s.rt.Registry, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health{
		Status:    "ok",
		Namespace: s.rt.Namespace(),
		Commands:  s.rt.Count(),
		Plugins:   len(s.rt.Libraries()),
	})
}

// Start begins listening and blocks until the server stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	log.Info().Str("address", ln.Addr().String()).Msg("metrics server started")

	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
