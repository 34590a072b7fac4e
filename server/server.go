// Package server serves marquee displays over HTTP and live websocket sessions.
package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/teranos/marquee/config"
	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/effects/clock"
	"github.com/teranos/marquee/effects/qr"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/presets"
	"github.com/teranos/marquee/request"
	"go.uber.org/zap"
)

// Server renders displays and hosts live sessions.
type Server struct {
	log     *zap.SugaredLogger
	qr      *qr.Encoder
	now     clock.Clock
	presets *presets.Catalogue

	// effects answers catalogue queries; it never shows anything
	effects *display.Products

	mu       sync.RWMutex
	cfg      *config.Config
	defaults map[request.Product]param.Map

	sessionsMu sync.Mutex
	sessions   map[string]*Session

	router http.Handler
	ctx    context.Context
	cancel context.CancelFunc
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now for clock faces.
func WithClock(now clock.Clock) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server for cfg. Call Close when done.
func New(cfg *config.Config, log *zap.SugaredLogger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server requires a config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if log == nil {
		log = logger.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		log:      log.With(logger.FieldComponent, "server"),
		qr:       qr.NewEncoder(time.Duration(cfg.Cache.QRTTLSeconds) * time.Second),
		presets:  presets.NewCatalogue(nil),
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	effects, err := s.newProducts()
	if err != nil {
		cancel()
		return nil, err
	}
	s.effects = effects

	if err := s.ApplyConfig(cfg); err != nil {
		cancel()
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Presets returns the live preset catalogue.
func (s *Server) Presets() *presets.Catalogue {
	return s.presets
}

// ApplyConfig swaps display defaults, presets and session settings.
// Open sessions pick up the new defaults on their next navigation.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	found, err := presets.Discover(PresetsDir(cfg))
	if err != nil {
		// Keep the configured presets; a broken file should not take the server down
		s.log.Warnw("Failed to discover presets", logger.FieldError, err)
		found = nil
	}
	s.presets.Replace(presets.Merge(found, cfg.Presets))

	defaults := cfg.ProductDefaults()

	// Held while pushing so register never installs defaults older than these.
	s.mu.Lock()
	s.cfg = cfg
	s.defaults = defaults
	for _, sess := range s.Sessions() {
		sess.products.SetDefaults(defaults)
	}
	s.mu.Unlock()

	s.log.Infow("Configuration applied",
		"presets", len(s.presets.Names()),
		"product_defaults", len(defaults))
	return nil
}

// PresetsDir is the directory searched for the preset catalogue and
// presets/*.toml: display.presets_dir, else ~/.marquee.
func PresetsDir(cfg *config.Config) string {
	if cfg.Display.PresetsDir != "" {
		return cfg.Display.PresetsDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, config.UserDir)
}

func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// newProducts builds a display with the current defaults and the shared QR cache.
func (s *Server) newProducts() (*display.Products, error) {
	s.mu.RLock()
	defaults := s.defaults
	s.mu.RUnlock()

	return display.New(display.Options{
		QR:       s.qr,
		Now:      s.now,
		Defaults: defaults,
	}, s.log)
}

// Sessions returns the open live sessions.
func (s *Server) Sessions() []*Session {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// register adds sess and installs the current defaults, covering a reload
// that landed between building its products and registering it.
func (s *Server) register(sess *Session) {
	s.sessionsMu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.sessionsMu.Unlock()

	s.mu.RLock()
	sess.products.SetDefaults(s.defaults)
	s.mu.RUnlock()
	s.log.Infow("Session opened", logger.FieldSessionID, sess.id, logger.FieldCount, n)
}

func (s *Server) unregister(sess *Session) {
	s.sessionsMu.Lock()
	_, ok := s.sessions[sess.id]
	delete(s.sessions, sess.id)
	n := len(s.sessions)
	s.sessionsMu.Unlock()
	if ok {
		s.log.Infow("Session closed", logger.FieldSessionID, sess.id, logger.FieldCount, n)
	}
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.config()
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("Server listening", logger.FieldAddress, cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "failed to listen on %s", cfg.Server.Addr)
	case <-ctx.Done():
	}

	timeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Infow("Server shutting down", "timeout", timeout)
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	return nil
}

// Close ends every live session.
func (s *Server) Close() {
	s.cancel()
	for _, sess := range s.Sessions() {
		sess.close()
	}
}
