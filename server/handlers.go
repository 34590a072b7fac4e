package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/request"
	"github.com/teranos/marquee/version"
)

// handleHealth reports liveness, build and session count
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"version":    info.Version,
		"commit":     info.CommitHash,
		"plugin_api": info.PluginAPI,
		"sessions":   len(s.Sessions()),
		"presets":    len(s.presets.Names()),
		"qr_cached":  s.qr.Len(),
	})
}

// handleEffects lists every product's effects
func (s *Server) handleEffects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.effects.Catalogue())
}

func (s *Server) handleProductEffects(w http.ResponseWriter, r *http.Request) {
	effects, err := s.effects.Effects(request.Product(chi.URLParam(r, "product")))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, effects)
}

func (s *Server) handleEffect(w http.ResponseWriter, r *http.Request) {
	info, err := s.effects.Effect(request.Product(chi.URLParam(r, "product")), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ParseResponse is the body of /api/parse.
type ParseResponse struct {
	Parsed request.Parsed  `json:"parsed"`
	Config param.Map       `json:"config"`
	Result *display.Result `json:"result,omitempty"`
}

// handleParse runs the request parser on ?url= and, with resolve=true,
// also resolves the effect and the merged config.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	parsed, cfg, err := request.ParseURL(raw)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := ParseResponse{Parsed: parsed, Config: cfg}

	if resolve, _ := strconv.ParseBool(r.URL.Query().Get("resolve")); resolve {
		products, err := s.newProducts()
		if err != nil {
			writeErr(w, err)
			return
		}
		defer products.Close()

		f, err := show(r.Context(), products, parsed, cfg, display.Engines{})
		if err != nil {
			writeErr(w, err)
			return
		}
		resp.Result = &f.Result
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.presets.List())
}

// handlePreset renders a named preset; the request's own query overrides it
func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "preset")
	parsed, cfg, err := s.presets.Expand(name, r.URL.RawQuery)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	logger.FromContext(r.Context(), s.log).Debugw("Expanding preset", logger.FieldPreset, name)
	s.renderPage(w, r, parsed, cfg)
}

// handleDisplay renders the display a path and query describe
func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	parsed, cfg, err := request.Parse(r.URL.EscapedPath(), r.URL.RawQuery)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.renderPage(w, r, parsed, cfg)
}

// renderPage shows the request on a per-request display and writes the page.
// Effects are torn down once the markup is written.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, parsed request.Parsed, cfg param.Map) {
	products, err := s.newProducts()
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	defer products.Close()

	f, err := show(r.Context(), products, parsed, cfg, display.Engines{})
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	lang := f.Result.Config.String("lang", "")
	if err := writeDocument(&buf, s.config().Display.Title, lang, f.Root); err != nil {
		s.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// renderError writes a minimal page carrying the error message
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logger.FromContext(r.Context(), s.log)
	if status >= http.StatusInternalServerError {
		log.Errorw("Display render failed", logger.FieldPath, r.URL.Path, logger.FieldError, err)
	} else {
		log.Infow("Display request rejected", logger.FieldPath, r.URL.Path, logger.FieldError, err)
	}

	root := newRoot()
	root.SetData("error", errors.UnwrapAll(err).Error())
	root.Text = err.Error()

	var buf bytes.Buffer
	if werr := writeDocument(&buf, s.config().Display.Title, "", root); werr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
