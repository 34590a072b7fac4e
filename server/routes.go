package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/teranos/marquee/logger"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.cors)
		r.Get("/effects", s.handleEffects)
		r.Get("/effects/{product}", s.handleProductEffects)
		r.Get("/effects/{product}/{id}", s.handleEffect)
		r.Get("/parse", s.handleParse)
		r.Get("/presets", s.handlePresets)
	})

	r.Get("/p/{preset}", s.handlePreset)
	r.Get("/ws", s.handleWebSocket)

	// Everything else is a display request
	r.Get("/*", s.handleDisplay)
	return r
}

// requestLogger logs one line per request with the chi request id
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if rid := middleware.GetReqID(ctx); rid != "" {
			ctx = logger.WithRequestID(ctx, rid)
			r = r.WithContext(ctx)
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log := logger.FromContext(ctx, s.log)
		fields := []interface{}{
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, status,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			log.Warnw("Request failed", fields...)
			return
		}
		log.Debugw("Request", fields...)
	})
}

// cors sets CORS headers for allowed origins and answers preflight requests
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOrigin validates the Origin header against server.allowed_origins.
// Requests without an Origin are allowed. With no configured origins only
// same-host origins pass.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := s.config().Server.AllowedOrigins
	if len(allowed) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}

	// Prefix matching allows any port
	for _, a := range allowed {
		if a == "*" || strings.HasPrefix(origin, a) {
			return true
		}
	}
	return false
}
