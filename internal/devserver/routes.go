// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// routes wraps the application handler with recovery, request logging and the
// optional metrics and introspection endpoints.
func (s *Server) routes(app http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	if s.cfg.MetricsPath != "" {
		m := newServerMetrics(s.registry, s.State)
		app = m.instrument(app)
		r.Method(http.MethodGet, s.cfg.MetricsPath, m.handler())
	}
	if s.cfg.IntrospectionPath != "" {
		if d, ok := s.app.(Describer); ok {
			r.Get(s.cfg.IntrospectionPath, s.introspect(d))
		}
	}

	r.Handle("/*", app)
	return r
}

func (s *Server) introspect(d Describer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := struct {
			State       string `json:"state"`
			Address     string `json:"address"`
			Application any    `json:"application"`
		}{
			State:       s.State().String(),
			Address:     s.Addr(),
			Application: d.Describe(),
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(body); err != nil {
			s.logger.Warn("introspection write failed", "err", err)
		}
	}
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
