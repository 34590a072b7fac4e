// Package draw provides the drawing board effects.
package draw

import (
	"strconv"
	"strings"

	"github.com/teranos/marquee/effects"
	"github.com/teranos/marquee/engine"
	"github.com/teranos/marquee/engine/strokes"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/plugin"
	"github.com/teranos/marquee/surface"
)

const (
	product = "draw"
	// viewBox units per normalized board unit
	resolution = 1000
)

type settings struct {
	Color string         `param:"color"`
	BG    string         `param:"bg"`
	Size  float64        `param:"size"`
	Extra map[string]any `param:",remain"`
}

type board struct {
	effects.Base
	texture string
}

func (e *board) Init(target *surface.Element, content string, cfg param.Map, eng engine.Draw) error {
	s := settings{Size: 4}
	if err := param.Decode(cfg, &s); err != nil {
		return errors.Wrap(err, "draw settings")
	}

	effects.Stage(target, product, e.Name)
	effects.Paint(target, "", s.BG)
	effects.Extras(target, s.Extra)
	if e.texture != "" {
		target.AddClass(e.texture)
	}
	target.SetData("token", content)

	if eng == nil || !eng.IsRunning() {
		target.SetData("state", "idle")
		return nil
	}
	target.SetData("state", "ready")

	canvas := surface.New("svg")
	canvas.AddClass("mq-draw-canvas")
	canvas.SetAttr("xmlns", "http://www.w3.org/2000/svg")
	canvas.SetAttr("viewBox", "0 0 "+strconv.Itoa(resolution)+" "+strconv.Itoa(resolution))
	canvas.SetAttr("preserveAspectRatio", "none")

	for _, st := range eng.Strokes() {
		canvas.Append(polyline(st, s))
	}
	target.Append(canvas)
	return nil
}

func polyline(st strokes.Stroke, s settings) *surface.Element {
	color := st.Color
	if color == "" {
		color = s.Color
	}
	width := st.Width
	if width <= 0 {
		width = s.Size
	}

	points := make([]string, 0, len(st.Points))
	for _, p := range st.Points {
		points = append(points, coord(p.X)+","+coord(p.Y))
	}

	line := surface.New("polyline")
	line.SetAttr("points", strings.Join(points, " "))
	line.SetAttr("fill", "none")
	line.SetAttr("stroke", layout.CSSColor(color))
	line.SetAttr("stroke-width", effects.Number(width))
	line.SetAttr("stroke-linecap", "round")
	line.SetAttr("stroke-linejoin", "round")
	return line
}

func coord(v float64) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return strconv.FormatFloat(v*resolution, 'f', 1, 64)
}

// Effects returns the built-in drawing board effects.
func Effects() []plugin.Plugin[engine.Draw] {
	return []plugin.Plugin[engine.Draw]{
		&board{
			Base: effects.Base{
				Name:     plugin.DefaultID,
				Summary:  "Whiteboard",
				Settings: param.Map{"color": "111111", "bg": "ffffff", "size": 4.0},
			},
		},
		&board{
			Base: effects.Base{
				Name:     "chalk",
				Summary:  "Chalk on a green board",
				Settings: param.Map{"color": "f5f5f0", "bg": "2f4f3a", "size": 6.0},
			},
			texture: "mq-draw-chalk",
		},
	}
}

// Register adds the drawing board effects to r.
func Register(r *plugin.Registry[engine.Draw]) error {
	return effects.RegisterAll(r, Effects())
}
