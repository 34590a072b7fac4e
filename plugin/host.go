package plugin

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/surface"
)

// PostProcessFunc adjusts the target after an effect's Init. Camera hosts use
// it to apply the brightness/contrast/saturate filter.
type PostProcessFunc func(target *surface.Element, cfg param.Map)

// HostConfig describes the product-specific parts of a host.
type HostConfig struct {
	// Name identifies the host in logs, usually the product name.
	Name string
	// Layout controls which layout parameters the host honors.
	Layout layout.Options
	// PostProcess runs after Init when set.
	PostProcess PostProcessFunc
}

// Host drives the effects of one product: it owns the registry and the single
// active instance. Switch, Resize and TogglePause are serialized.
type Host[E any] struct {
	mu       sync.RWMutex
	registry *Registry[E]
	cfg      HostConfig
	log      *zap.SugaredLogger

	current       Plugin[E]
	currentID     string
	currentConfig param.Map
}

// NewHost creates a host in the Empty state.
func NewHost[E any](registry *Registry[E], cfg HostConfig, log *zap.SugaredLogger) *Host[E] {
	if log == nil {
		log = logger.Logger
	}
	if registry == nil {
		registry = NewRegistry[E](log)
	}
	if cfg.Name != "" {
		log = log.With(logger.FieldProduct, cfg.Name)
	}
	return &Host[E]{
		registry: registry,
		cfg:      cfg,
		log:      log,
	}
}

// Name returns the host name from its config
func (h *Host[E]) Name() string {
	return h.cfg.Name
}

// Registry returns the registry backing the host
func (h *Host[E]) Registry() *Registry[E] {
	return h.registry
}

// Register adds an effect to the host's registry
func (h *Host[E]) Register(p Plugin[E]) error {
	return h.registry.Register(p)
}

// Switch tears down the active effect and installs id (or the default effect)
// inside container. raw is merged over the effect's defaults.
//
// The only error is ErrPluginNotFound, returned when neither id nor the default
// effect is registered; the host is then left Empty. Failures inside the
// effect's Init or Destroy are logged and do not stop the switch.
func (h *Host[E]) Switch(ctx context.Context, id string, container *surface.Element, content string, raw param.Map, engine E) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := logger.FromContext(ctx, h.log)

	h.teardown(log)

	container.Clear()
	container.ResetStyling()

	p, fallback, err := h.registry.Resolve(id)
	if err != nil {
		log.Errorw("No effect to switch to",
			logger.FieldEffect, id,
			logger.FieldError, err,
		)
		return err
	}
	if fallback {
		log.Debugw("Effect not registered, using default",
			logger.FieldEffect, id,
			logger.FieldFallback, DefaultID,
		)
	}

	defaults := p.Defaults()
	merged := defaults.Merge(raw)

	opts := h.cfg.Layout
	if bg, ok := defaults["bg"].(string); ok && opts.DefaultBG == "" {
		opts.DefaultBG = bg
	}
	target := layout.Apply(container, layout.Compute(merged, opts))

	h.guard(log, "init", p.ID(), func() error {
		return p.Init(target, content, merged.Clone(), engine)
	})

	if h.cfg.PostProcess != nil {
		h.cfg.PostProcess(target, merged)
	}

	h.current = p
	h.currentID = p.ID()
	h.currentConfig = merged

	log.Debugw("Switched effect",
		logger.FieldEffect, h.currentID,
		logger.FieldCount, len(merged),
	)
	return nil
}

// Reset destroys the active effect and returns the host to the Empty state.
func (h *Host[E]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.teardown(h.log)
}

// Resize forwards to the active effect when it is Resizable.
func (h *Host[E]) Resize() {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.current.(Resizable)
	if !ok {
		return
	}
	h.guard(h.log, "resize", h.currentID, func() error {
		r.Resize()
		return nil
	})
}

// TogglePause flips the pause state of a Pausable active effect.
// It reports the new state and whether the effect supports pausing.
func (h *Host[E]) TogglePause() (paused bool, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.current.(Pausable)
	if !ok {
		return false, false
	}
	h.guard(h.log, "pause", h.currentID, func() error {
		paused = p.TogglePause()
		return nil
	})
	return paused, true
}

// IsPaused reports whether the active effect is Pausable and paused.
func (h *Host[E]) IsPaused() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.isPaused()
}

// Current returns the active effect, or nil when Empty.
func (h *Host[E]) Current() Plugin[E] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// CurrentID returns the id of the active effect, or "" when Empty.
func (h *Host[E]) CurrentID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentID
}

// CurrentConfig returns a copy of the merged config of the active effect.
func (h *Host[E]) CurrentConfig() param.Map {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentConfig.Clone()
}

// State returns a snapshot of the active instance.
func (h *Host[E]) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return State{
		ID:     h.currentID,
		Config: h.currentConfig.Clone(),
		Paused: h.isPaused(),
	}
}

// Defaults returns a copy of the declared defaults of id, or nil if unknown.
func (h *Host[E]) Defaults(id string) param.Map {
	return h.registry.Defaults(id)
}

// Description returns the summary of id, or "" when it has none.
func (h *Host[E]) Description(id string) string {
	return h.registry.Description(id)
}

// EffectIDs returns the registered ids in sorted order.
func (h *Host[E]) EffectIDs() []string {
	return h.registry.List()
}

// HasEffect reports whether id is registered.
func (h *Host[E]) HasEffect(id string) bool {
	return h.registry.Has(id)
}

func (h *Host[E]) isPaused() bool {
	p, ok := h.current.(Pausable)
	return ok && p.IsPaused()
}

// teardown destroys the active effect and clears the state. Callers hold mu.
func (h *Host[E]) teardown(log *zap.SugaredLogger) {
	if h.current == nil {
		return
	}
	if d, ok := h.current.(Destroyer); ok {
		h.guard(log, "destroy", h.currentID, d.Destroy)
	}
	h.current = nil
	h.currentID = ""
	h.currentConfig = nil
}

// guard runs an effect callback, logging returned errors and recovered panics.
func (h *Host[E]) guard(log *zap.SugaredLogger, op, id string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Effect panicked",
				logger.FieldOperation, op,
				logger.FieldEffect, id,
				logger.FieldError, fmt.Sprint(r),
			)
		}
	}()
	if err := fn(); err != nil {
		log.Errorw("Effect failed",
			logger.FieldOperation, op,
			logger.FieldEffect, id,
			logger.FieldError, err,
		)
	}
}
