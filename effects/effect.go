// Package effects holds the pieces shared by the built-in effects.
//
// Effects render markup and data-* attributes into their target; the display
// runtime animates them client-side. Each product's effects live in their own
// subpackage with a Register function.
package effects

import (
	"sort"
	"strconv"
	"sync"

	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/plugin"
	"github.com/teranos/marquee/surface"
)

// Base carries the identity every effect shares. Embed it and add Init.
type Base struct {
	Name     string
	Summary  string
	Settings param.Map
}

func (b *Base) ID() string { return b.Name }

// Defaults returns a copy so callers cannot mutate the declared defaults.
func (b *Base) Defaults() param.Map {
	d := b.Settings.Clone()
	if d == nil {
		d = param.Map{}
	}
	return d
}

func (b *Base) Description() string { return b.Summary }

// RegisterAll adds every effect to r, stopping at the first failure.
func RegisterAll[E any](r *plugin.Registry[E], list []plugin.Plugin[E]) error {
	for _, e := range list {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}

// Stage marks target as owned by an effect of product.
func Stage(target *surface.Element, product, id string) {
	target.AddClass("mq-"+product, "mq-"+product+"-"+id)
	target.SetData("effect", id)
}

// Paint applies the foreground and background colors.
func Paint(target *surface.Element, color, bg string) {
	if color != "" {
		target.SetStyle("color", layout.CSSColor(color))
	}
	if bg != "" {
		target.SetStyle("background", layout.CSSColor(bg))
	}
}

// Dataset copies the given keys from cfg into data-* attributes. Absent keys
// are skipped.
func Dataset(target *surface.Element, cfg param.Map, keys ...string) {
	for _, k := range keys {
		if cfg.Has(k) {
			target.SetData(k, cfg.String(k, ""))
		}
	}
}

// Extras copies unrecognized settings into data-* attributes in sorted order.
func Extras(target *surface.Element, extra map[string]any) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := param.Map(extra)
	for _, k := range keys {
		target.SetData(k, m.String(k, ""))
	}
}

// Number formats a float for an attribute value.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Pauser tracks the pause state of an animated effect and mirrors it into the
// target's data-paused attribute.
type Pauser struct {
	mu     sync.Mutex
	paused bool
	target *surface.Element
}

// Attach binds p to a freshly initialized target and resets it to running.
func (p *Pauser) Attach(target *surface.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	p.target = target
	target.SetData("paused", "false")
}

// Detach forgets the target.
func (p *Pauser) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = nil
	p.paused = false
}

func (p *Pauser) TogglePause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = !p.paused
	if p.target != nil {
		p.target.SetData("paused", strconv.FormatBool(p.paused))
	}
	return p.paused
}

func (p *Pauser) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}
