// Package light provides the ambient light effects.
package light

import (
	"math"

	"github.com/teranos/marquee/effects"
	"github.com/teranos/marquee/engine"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/plugin"
	"github.com/teranos/marquee/surface"
)

const product = "light"

type settings struct {
	Color      string         `param:"color"`
	Speed      float64        `param:"speed"`
	Brightness float64        `param:"brightness"`
	Extra      map[string]any `param:",remain"`
}

func decode(cfg param.Map) (settings, error) {
	s := settings{Speed: 1, Brightness: 100}
	if err := param.Decode(cfg, &s); err != nil {
		return s, errors.Wrap(err, "light settings")
	}
	s.Brightness = math.Max(0, math.Min(100, s.Brightness))
	return s, nil
}

func fill(target *surface.Element, id string, s settings) {
	effects.Stage(target, product, id)
	target.SetStyle("background", layout.CSSColor(s.Color))
	if s.Brightness < 100 {
		target.SetStyle("opacity", effects.Number(s.Brightness/100))
	}
	effects.Extras(target, s.Extra)
}

// solid fills the screen with one color.
type solid struct {
	effects.Base
}

func (e *solid) Init(target *surface.Element, _ string, cfg param.Map, _ engine.None) error {
	s, err := decode(cfg)
	if err != nil {
		return err
	}
	fill(target, e.Name, s)
	return nil
}

// pulse breathes the color in and out.
type pulse struct {
	effects.Base
	effects.Pauser
}

func (e *pulse) Init(target *surface.Element, _ string, cfg param.Map, _ engine.None) error {
	s, err := decode(cfg)
	if err != nil {
		return err
	}
	fill(target, e.Name, s)

	speed := s.Speed
	if speed <= 0 {
		speed = 1
	}
	period := math.Round(4/speed*100) / 100
	target.SetStyle("animation-duration", effects.Number(period)+"s")
	target.SetData("period", effects.Number(period))
	e.Attach(target)
	return nil
}

func (e *pulse) Destroy() error {
	e.Detach()
	return nil
}

// Effects returns the built-in light effects.
func Effects() []plugin.Plugin[engine.None] {
	return []plugin.Plugin[engine.None]{
		&solid{Base: effects.Base{
			Name:     plugin.DefaultID,
			Summary:  "Solid color",
			Settings: param.Map{"color": "ffffff", "brightness": 100.0},
		}},
		&pulse{Base: effects.Base{
			Name:     "pulse",
			Summary:  "Slow breathing glow",
			Settings: param.Map{"color": "ff8800", "speed": 1.0},
		}},
	}
}

// Register adds the light effects to r.
func Register(r *plugin.Registry[engine.None]) error {
	return effects.RegisterAll(r, Effects())
}
