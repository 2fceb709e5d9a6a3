// Package server provides the http server exposing edit sessions,
// their selection events, metrics and health.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mandelsoft/interedit/pkg/service"
)

type Server struct {
	*http.Server
	*http.ServeMux
	listener        net.Listener
	shutdownTimeout time.Duration
}

var _ service.Service = (*Server)(nil)

// NewServer creates a server for the given port. Port 0 chooses a free
// port when the server is started.
func NewServer(port int, shutdownTimeout time.Duration) *Server {
	mux := http.NewServeMux()
	return &Server{
		Server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ServeMux:        mux,
		shutdownTimeout: shutdownTimeout,
	}
}

// Address returns the listen address of a started server.
func (s *Server) Address() string {
	if s.listener == nil {
		return s.Addr
	}
	return s.listener.Addr().String()
}

// Start opens the listener and serves requests until the context is
// done.
func (s *Server) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, nil, err
	}
	s.listener = l
	log.Info("listening on {{address}}", "address", l.Addr().String())

	done := service.SyncTrigger()
	go func() {
		done.SetError(s.serve(ctx, l))
		done.Trigger()
	}()
	return nil, done, nil
}

func (s *Server) ListenAndServeContext(ctx context.Context) error {
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.listener = l
	return s.serve(ctx, l)
}

func (s *Server) serve(ctx context.Context, l net.Listener) error {
	serverErr := make(chan error, 1)
	go func() {
		// Shutdown causes Serve to return http.ErrServerClosed.
		serverErr <- s.Serve(l)
	}()
	var err error
	select {
	case <-ctx.Done():
		log.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		err = s.Shutdown(sctx)
	case err = <-serverErr:
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
