// Package sound provides the audio visualizer effects.
package sound

import (
	"strconv"
	"strings"

	"github.com/teranos/marquee/effects"
	"github.com/teranos/marquee/engine"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/plugin"
	"github.com/teranos/marquee/surface"
)

const (
	product = "sound"
	maxBars = 256
)

type settings struct {
	Color       string         `param:"color"`
	BG          string         `param:"bg"`
	Bars        int            `param:"bars"`
	Sensitivity float64        `param:"sensitivity"`
	Extra       map[string]any `param:",remain"`
}

func decode(cfg param.Map) (settings, error) {
	s := settings{Bars: 32, Sensitivity: 1}
	if err := param.Decode(cfg, &s); err != nil {
		return s, errors.Wrap(err, "sound settings")
	}
	if s.Bars < 1 {
		s.Bars = 1
	}
	if s.Bars > maxBars {
		s.Bars = maxBars
	}
	if s.Sensitivity <= 0 {
		s.Sensitivity = 1
	}
	return s, nil
}

// levels folds the frequency bins into n levels in [0,1].
func levels(data []uint8, n int, sensitivity float64) []float64 {
	out := make([]float64, n)
	if len(data) == 0 {
		return out
	}
	for i := range out {
		lo := i * len(data) / n
		hi := (i + 1) * len(data) / n
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(data) {
			hi = len(data)
			lo = hi - 1
		}
		sum := 0
		for _, v := range data[lo:hi] {
			sum += int(v)
		}
		level := float64(sum) / float64(hi-lo) / 255 * sensitivity
		if level > 1 {
			level = 1
		}
		out[i] = level
	}
	return out
}

func prepare(target *surface.Element, id string, s settings, eng engine.Sound) []float64 {
	effects.Stage(target, product, id)
	effects.Paint(target, "", s.BG)
	effects.Extras(target, s.Extra)
	target.SetData("bars", strconv.Itoa(s.Bars))

	var data []uint8
	if eng != nil && eng.IsRunning() {
		target.SetData("state", "listening")
		data = eng.FrequencyData()
	} else {
		target.SetData("state", "idle")
	}
	return levels(data, s.Bars, s.Sensitivity)
}

func percent(v float64) string {
	return strconv.FormatFloat(float64(int(v*1000+0.5))/10, 'f', -1, 64) + "%"
}

type bars struct {
	effects.Base
}

func (e *bars) Init(target *surface.Element, _ string, cfg param.Map, eng engine.Sound) error {
	s, err := decode(cfg)
	if err != nil {
		return err
	}
	lv := prepare(target, e.Name, s, eng)

	row := surface.Div("mq-sound-bars")
	for _, l := range lv {
		bar := surface.Div("mq-sound-bar")
		bar.SetStyle("height", percent(l))
		bar.SetStyle("background", layout.CSSColor(s.Color))
		row.Append(bar)
	}
	target.Append(row)
	return nil
}

type wave struct {
	effects.Base
	effects.Pauser
}

func (e *wave) Init(target *surface.Element, _ string, cfg param.Map, eng engine.Sound) error {
	s, err := decode(cfg)
	if err != nil {
		return err
	}
	lv := prepare(target, e.Name, s, eng)

	points := make([]string, 0, len(lv))
	for i, l := range lv {
		x := 0.0
		if len(lv) > 1 {
			x = float64(i) * 100 / float64(len(lv)-1)
		}
		y := 50 - l*50
		points = append(points, effects.Number(float64(int(x*10+0.5))/10)+","+effects.Number(float64(int(y*10+0.5))/10))
	}

	canvas := surface.New("svg")
	canvas.AddClass("mq-sound-wave")
	canvas.SetAttr("xmlns", "http://www.w3.org/2000/svg")
	canvas.SetAttr("viewBox", "0 0 100 100")
	canvas.SetAttr("preserveAspectRatio", "none")
	line := surface.New("polyline")
	line.SetAttr("points", strings.Join(points, " "))
	line.SetAttr("fill", "none")
	line.SetAttr("stroke", layout.CSSColor(s.Color))
	canvas.Append(line)
	target.Append(canvas)

	e.Attach(target)
	return nil
}

func (e *wave) Destroy() error {
	e.Detach()
	return nil
}

// Effects returns the built-in sound visualizers. "bars" is an alias of the
// default.
func Effects() []plugin.Plugin[engine.Sound] {
	barDefaults := param.Map{"color": "00ff88", "bg": "000000", "bars": 32.0, "sensitivity": 1.0}
	return []plugin.Plugin[engine.Sound]{
		&bars{Base: effects.Base{Name: plugin.DefaultID, Summary: "Spectrum bars", Settings: barDefaults}},
		&bars{Base: effects.Base{Name: "bars", Summary: "Spectrum bars", Settings: barDefaults.Clone()}},
		&wave{Base: effects.Base{
			Name:     "wave",
			Summary:  "Spectrum as a single line",
			Settings: param.Map{"color": "33ccff", "bg": "000000", "bars": 64.0, "sensitivity": 1.0},
		}},
	}
}

// Register adds the sound visualizers to r.
func Register(r *plugin.Registry[engine.Sound]) error {
	return effects.RegisterAll(r, Effects())
}
