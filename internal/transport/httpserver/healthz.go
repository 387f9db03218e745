/*
Copyright 2021 ICS-FORTH.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package httpserver implements the HTTP surface of spec.md §6.4: a single
// /healthz endpoint reflecting the Scheduler's liveness.
package httpserver

import (
	"context"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// tooEarly is the status spec.md §6.4 requires when the scheduler thread is
// not yet (or no longer) alive: RFC 8470's 425 Too Early, the same value as
// net/http's http.StatusTooEarly.
const tooEarly = 425

// AliveChecker reports whether the scheduler thread is alive. Implemented by
// *internal/scheduler.Scheduler.
type AliveChecker interface {
	Alive() bool
}

// Server owns the HTTP listener for spec.md §6.4.
type Server struct {
	addr    string
	log     logr.Logger
	checker AliveChecker
	srv     *http.Server
}

// New constructs a Server bound to addr (unstarted).
func New(addr string, checker AliveChecker, log logr.Logger) *Server {
	s := &Server{addr: addr, log: log, checker: checker}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.srv = &http.Server{Addr: addr, Handler: mux}

	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if s.checker.Alive() {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(tooEarly)
}

// Serve blocks, accepting connections on s.addr until Shutdown is called.
func (s *Server) Serve() error {
	s.log.Info("HTTP server listening", "addr", s.addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
