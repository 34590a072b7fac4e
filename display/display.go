// Package display routes a parsed request to the host of its product.
//
// A Products value owns one plugin.Host per product. Each connected display
// (or each page render) gets its own Products so switches never interfere.
package display

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/marquee/effects/camera"
	"github.com/teranos/marquee/effects/clock"
	"github.com/teranos/marquee/effects/draw"
	"github.com/teranos/marquee/effects/light"
	"github.com/teranos/marquee/effects/qr"
	"github.com/teranos/marquee/effects/sound"
	"github.com/teranos/marquee/effects/text"
	"github.com/teranos/marquee/engine"
	"github.com/teranos/marquee/engine/strokes"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/plugin"
	"github.com/teranos/marquee/request"
	"github.com/teranos/marquee/surface"
)

// Engines carries the engine handles for a display. Nil handles are replaced
// by idle engines; a nil Draw is loaded from the request's draw token.
type Engines struct {
	Camera engine.Camera
	Sound  engine.Sound
	Draw   engine.Draw
}

// Options configures the built-in effects.
type Options struct {
	// QR shares rendered QR matrices between displays. Nil gives each
	// Products its own encoder.
	QR *qr.Encoder
	// Now is the clock used by clock faces. Nil means time.Now.
	Now clock.Clock
	// Defaults are per-product parameters applied under the request's own.
	Defaults map[request.Product]param.Map
}

// Result describes what Show installed.
type Result struct {
	Product   request.Product `json:"product"`
	Requested string          `json:"requested"`
	Effect    string          `json:"effect"`
	Fallback  bool            `json:"fallback"`
	Config    param.Map       `json:"config"`
}

// EffectInfo describes one registered effect.
type EffectInfo struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Defaults    param.Map `json:"defaults"`
}

// host is the engine-independent part of plugin.Host.
type host interface {
	Name() string
	EffectIDs() []string
	HasEffect(id string) bool
	Defaults(id string) param.Map
	Description(id string) string
	State() plugin.State
	Resize()
	TogglePause() (bool, bool)
	Reset()
}

// Products holds one host per product.
type Products struct {
	Text   *plugin.Host[engine.None]
	Light  *plugin.Host[engine.None]
	Time   *plugin.Host[engine.None]
	QR     *plugin.Host[engine.None]
	Sound  *plugin.Host[engine.Sound]
	Camera *plugin.Host[engine.Camera]
	Draw   *plugin.Host[engine.Draw]

	hosts map[request.Product]host
	log   *zap.SugaredLogger

	mu       sync.RWMutex
	defaults map[request.Product]param.Map
	active   request.Product
}

// New builds the hosts and registers the built-in effects.
func New(opts Options, log *zap.SugaredLogger) (*Products, error) {
	if log == nil {
		log = logger.Logger
	}
	p := &Products{log: log}

	p.Text = plugin.NewHost(plugin.NewRegistry[engine.None](log),
		plugin.HostConfig{Name: string(request.ProductText), Layout: layout.Options{Padding: true}}, log)
	p.Light = plugin.NewHost(plugin.NewRegistry[engine.None](log),
		plugin.HostConfig{Name: string(request.ProductLight)}, log)
	p.Time = plugin.NewHost(plugin.NewRegistry[engine.None](log),
		plugin.HostConfig{Name: string(request.ProductTime)}, log)
	p.QR = plugin.NewHost(plugin.NewRegistry[engine.None](log),
		plugin.HostConfig{Name: string(request.ProductQR), Layout: layout.Options{Padding: true}}, log)
	p.Sound = plugin.NewHost(plugin.NewRegistry[engine.Sound](log),
		plugin.HostConfig{Name: string(request.ProductSound)}, log)
	p.Camera = plugin.NewHost(plugin.NewRegistry[engine.Camera](log),
		plugin.HostConfig{Name: string(request.ProductCamera), PostProcess: camera.Filter}, log)
	p.Draw = plugin.NewHost(plugin.NewRegistry[engine.Draw](log),
		plugin.HostConfig{Name: string(request.ProductDraw)}, log)

	registrations := []struct {
		product request.Product
		err     error
	}{
		{request.ProductText, text.Register(p.Text.Registry())},
		{request.ProductLight, light.Register(p.Light.Registry())},
		{request.ProductTime, clock.Register(p.Time.Registry(), opts.Now)},
		{request.ProductQR, qr.Register(p.QR.Registry(), opts.QR)},
		{request.ProductSound, sound.Register(p.Sound.Registry())},
		{request.ProductCamera, camera.Register(p.Camera.Registry())},
		{request.ProductDraw, draw.Register(p.Draw.Registry())},
	}
	for _, r := range registrations {
		if r.err != nil {
			return nil, errors.Wrapf(r.err, "failed to register %s effects", r.product)
		}
	}

	p.hosts = map[request.Product]host{
		request.ProductText:   p.Text,
		request.ProductLight:  p.Light,
		request.ProductTime:   p.Time,
		request.ProductQR:     p.QR,
		request.ProductSound:  p.Sound,
		request.ProductCamera: p.Camera,
		request.ProductDraw:   p.Draw,
	}
	p.SetDefaults(opts.Defaults)
	return p, nil
}

// EffectKey returns the parameter that selects the effect of a product.
func EffectKey(product request.Product) string {
	switch product {
	case request.ProductCamera, request.ProductSound:
		return "effect"
	case request.ProductTime:
		return "face"
	default:
		return "theme"
	}
}

// SetDefaults replaces the per-product parameters applied under requests.
func (p *Products) SetDefaults(defaults map[request.Product]param.Map) {
	cp := make(map[request.Product]param.Map, len(defaults))
	for k, v := range defaults {
		cp[k] = v.Clone()
	}
	p.mu.Lock()
	p.defaults = cp
	p.mu.Unlock()
}

// Show installs the effect the request selects into container. Any other
// product's active effect is torn down first.
func (p *Products) Show(ctx context.Context, parsed request.Parsed, cfg param.Map, container *surface.Element, engines Engines) (Result, error) {
	h, ok := p.hosts[parsed.Product]
	if !ok {
		return Result{}, errors.NewInvalidRequestError("unknown product %q", parsed.Product)
	}

	p.mu.Lock()
	raw := p.defaults[parsed.Product].Merge(cfg)
	previous := p.active
	p.active = parsed.Product
	p.mu.Unlock()

	if previous != "" && previous != parsed.Product {
		p.hosts[previous].Reset()
	}

	key := EffectKey(parsed.Product)
	id := raw.String(key, plugin.DefaultID)
	log := logger.FromContext(ctx, p.log)

	var err error
	switch parsed.Product {
	case request.ProductText:
		err = p.Text.Switch(ctx, id, container, parsed.Text, raw, engine.None{})
	case request.ProductLight:
		err = p.Light.Switch(ctx, id, container, parsed.Text, raw, engine.None{})
	case request.ProductTime:
		err = p.Time.Switch(ctx, id, container, parsed.Text, raw, engine.None{})
	case request.ProductQR:
		err = p.QR.Switch(ctx, id, container, parsed.Text, raw, engine.None{})
	case request.ProductSound:
		var eng engine.Sound = &engine.Spectrum{}
		if engines.Sound != nil {
			eng = engines.Sound
		}
		err = p.Sound.Switch(ctx, id, container, parsed.Text, raw, eng)
	case request.ProductCamera:
		var eng engine.Camera = engine.IdleCamera{}
		if engines.Camera != nil {
			eng = engines.Camera
		}
		err = p.Camera.Switch(ctx, id, container, parsed.Text, raw, eng)
	case request.ProductDraw:
		eng := engines.Draw
		if eng == nil {
			eng = strokes.Load(parsed.Text, log)
		}
		err = p.Draw.Switch(ctx, id, container, parsed.Text, raw, eng)
	}

	state := h.State()
	result := Result{
		Product:   parsed.Product,
		Requested: id,
		Effect:    state.ID,
		Fallback:  state.ID != "" && state.ID != id,
		Config:    state.Config,
	}
	if err != nil {
		return result, errors.Wrapf(err, "show %s", parsed.Product)
	}

	log.Debugw("Showing effect",
		logger.FieldProduct, parsed.Product,
		logger.FieldEffect, result.Effect,
		logger.FieldFallback, result.Fallback,
	)
	return result, nil
}

// Active returns the product shown last, or "" before the first Show.
func (p *Products) Active() request.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// State returns the active host's state.
func (p *Products) State() plugin.State {
	h := p.activeHost()
	if h == nil {
		return plugin.State{}
	}
	return h.State()
}

// Resize forwards to the active host.
func (p *Products) Resize() {
	if h := p.activeHost(); h != nil {
		h.Resize()
	}
}

// TogglePause forwards to the active host. ok is false when the active
// effect cannot be paused.
func (p *Products) TogglePause() (paused bool, ok bool) {
	h := p.activeHost()
	if h == nil {
		return false, false
	}
	return h.TogglePause()
}

// Close tears down every active effect.
func (p *Products) Close() {
	for _, h := range p.hosts {
		h.Reset()
	}
	p.mu.Lock()
	p.active = ""
	p.mu.Unlock()
}

// Effects lists the registered effects of product.
func (p *Products) Effects(product request.Product) ([]EffectInfo, error) {
	h, ok := p.hosts[product]
	if !ok {
		return nil, errors.NewNotFoundError("product %q", product)
	}
	ids := h.EffectIDs()
	out := make([]EffectInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, EffectInfo{
			ID:          id,
			Description: h.Description(id),
			Defaults:    h.Defaults(id),
		})
	}
	return out, nil
}

// Catalogue lists the registered effects of every product.
func (p *Products) Catalogue() map[request.Product][]EffectInfo {
	out := make(map[request.Product][]EffectInfo, len(p.hosts))
	for _, product := range request.Products {
		effects, _ := p.Effects(product)
		out[product] = effects
	}
	return out
}

// Effect returns one effect's description and defaults.
func (p *Products) Effect(product request.Product, id string) (EffectInfo, error) {
	h, ok := p.hosts[product]
	if !ok {
		return EffectInfo{}, errors.NewNotFoundError("product %q", product)
	}
	if !h.HasEffect(id) {
		return EffectInfo{}, errors.Wrapf(errors.ErrPluginNotFound, "%s/%s", product, id)
	}
	return EffectInfo{ID: id, Description: h.Description(id), Defaults: h.Defaults(id)}, nil
}

func (p *Products) activeHost() host {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.active == "" {
		return nil
	}
	return p.hosts[p.active]
}
