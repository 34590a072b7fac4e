// Package text provides the text sign effects.
package text

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/teranos/marquee/effects"
	"github.com/teranos/marquee/engine"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/plugin"
	"github.com/teranos/marquee/surface"
)

const product = "text"

type settings struct {
	Color     string         `param:"color"`
	BG        string         `param:"bg"`
	Glow      string         `param:"glow"`
	Font      string         `param:"font"`
	Size      float64        `param:"size"`
	Speed     float64        `param:"speed"`
	Direction string         `param:"direction"`
	Lang      string         `param:"lang"`
	Text      string         `param:"text"`
	Extra     map[string]any `param:",remain"`
}

type renderFunc func(target *surface.Element, content string, s settings)

// sign is a static text effect.
type sign struct {
	effects.Base
	render  renderFunc
	target  *surface.Element
	resizes int
}

func (e *sign) Init(target *surface.Element, content string, cfg param.Map, _ engine.None) error {
	s, err := decode(cfg)
	if err != nil {
		return err
	}
	e.target = target
	e.resizes = 0
	draw(target, e.Name, content, s, e.render)
	return nil
}

// Resize asks the display to refit the text.
func (e *sign) Resize() {
	if e.target == nil {
		return
	}
	e.resizes++
	e.target.SetData("fit", strconv.Itoa(e.resizes))
}

func (e *sign) Destroy() error {
	e.target = nil
	return nil
}

// animated is a text effect with a running animation that can be paused.
type animated struct {
	effects.Base
	effects.Pauser
	render renderFunc
}

func (e *animated) Init(target *surface.Element, content string, cfg param.Map, _ engine.None) error {
	s, err := decode(cfg)
	if err != nil {
		return err
	}
	draw(target, e.Name, content, s, e.render)
	e.Attach(target)
	return nil
}

func (e *animated) Destroy() error {
	e.Detach()
	return nil
}

func decode(cfg param.Map) (settings, error) {
	s := settings{Speed: 1}
	if err := param.Decode(cfg, &s); err != nil {
		return s, errors.Wrap(err, "text settings")
	}
	return s, nil
}

func draw(target *surface.Element, id, content string, s settings, render renderFunc) {
	if content == "" {
		content = s.Text
	}
	effects.Stage(target, product, id)
	effects.Paint(target, s.Color, s.BG)
	if s.Font != "" {
		target.SetStyle("font-family", s.Font)
	}
	if s.Lang != "" {
		target.SetAttr("lang", s.Lang)
	}
	target.SetStyle("font-size", fontSize(content, s.Size))
	if content == "" {
		target.SetData("empty", "true")
	}
	effects.Extras(target, s.Extra)
	render(target, content, s)
}

// fontSize returns the explicit size in vmin, or a size that fits content on
// one line.
func fontSize(content string, size float64) string {
	if size > 0 {
		return effects.Number(size) + "vmin"
	}
	n := utf8.RuneCountInString(content)
	if n == 0 {
		n = 1
	}
	fit := math.Max(4, math.Min(40, 160/float64(n)))
	return effects.Number(math.Round(fit*10)/10) + "vmin"
}

func line(content string) *surface.Element {
	span := surface.New("span")
	span.AddClass("mq-text-line")
	span.Text = content
	return span
}

func renderPlain(target *surface.Element, content string, _ settings) {
	target.Append(line(content))
}

func renderNeon(target *surface.Element, content string, s settings) {
	glow := s.Glow
	if glow == "" {
		glow = s.Color
	}
	c := layout.CSSColor(glow)
	target.SetStyle("text-shadow", "0 0 5px "+c+", 0 0 15px "+c+", 0 0 30px "+c)
	target.SetData("glow", glow)
	target.Append(line(content))
}

var directions = map[string]bool{"left": true, "right": true, "up": true, "down": true}

func renderScroll(target *surface.Element, content string, s settings) {
	dir := s.Direction
	if !directions[dir] {
		dir = "left"
	}
	speed := s.Speed
	if speed <= 0 {
		speed = 1
	}
	// A pass takes longer for longer content and shorter for higher speeds.
	duration := math.Max(2, float64(utf8.RuneCountInString(content)+10)/speed)

	target.SetData("direction", dir)
	target.SetData("speed", effects.Number(speed))
	target.SetData("duration", effects.Number(math.Round(duration*100)/100))

	track := surface.Div("mq-text-track")
	track.SetStyle("animation-duration", effects.Number(math.Round(duration*100)/100)+"s")
	track.Append(line(content))
	target.Append(track)
}

func renderFlip(target *surface.Element, content string, s settings) {
	frames := strings.Split(content, "|")
	interval := s.Speed
	if interval <= 0 {
		interval = 3
	}
	target.SetData("interval", effects.Number(interval))
	target.SetData("frames", strconv.Itoa(len(frames)))
	for i, f := range frames {
		frame := line(strings.TrimSpace(f))
		frame.AddClass("mq-text-frame")
		if i == 0 {
			frame.AddClass("is-active")
		}
		target.Append(frame)
	}
}

// Effects returns the built-in text effects.
func Effects() []plugin.Plugin[engine.None] {
	return []plugin.Plugin[engine.None]{
		&sign{
			Base: effects.Base{
				Name:     plugin.DefaultID,
				Summary:  "Static text fitted to the screen",
				Settings: param.Map{"color": "ffffff", "bg": "000000", "font": "sans-serif"},
			},
			render: renderPlain,
		},
		&sign{
			Base: effects.Base{
				Name:     "neon",
				Summary:  "Glowing neon tube lettering",
				Settings: param.Map{"color": "ff00ff", "bg": "0a0010", "font": "sans-serif"},
			},
			render: renderNeon,
		},
		&animated{
			Base: effects.Base{
				Name:     "scroll",
				Summary:  "Marquee scrolling in a chosen direction",
				Settings: param.Map{"color": "ffffff", "bg": "000000", "speed": 1.0, "direction": "left"},
			},
			render: renderScroll,
		},
		&animated{
			Base: effects.Base{
				Name:     "flip",
				Summary:  "Cycles through |-separated frames",
				Settings: param.Map{"color": "ffffff", "bg": "111111", "speed": 3.0},
			},
			render: renderFlip,
		},
	}
}

// Register adds the text effects to r.
func Register(r *plugin.Registry[engine.None]) error {
	return effects.RegisterAll(r, Effects())
}
