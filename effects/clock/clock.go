// Package clock provides the clock faces.
package clock

import (
	"strconv"
	"time"
	_ "time/tzdata" // zoneinfo for minimal images

	"github.com/teranos/marquee/effects"
	"github.com/teranos/marquee/engine"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/plugin"
	"github.com/teranos/marquee/surface"
)

const product = "time"

type settings struct {
	Color   string         `param:"color"`
	BG      string         `param:"bg"`
	Font    string         `param:"font"`
	TZ      string         `param:"tz"`
	Format  string         `param:"format"`
	Seconds bool           `param:"seconds"`
	Date    string         `param:"date"`
	Extra   map[string]any `param:",remain"`
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

type face struct {
	effects.Base
	now    Clock
	render func(target *surface.Element, t time.Time, s settings)
}

func (e *face) Init(target *surface.Element, _ string, cfg param.Map, _ engine.None) error {
	var s settings
	if err := param.Decode(cfg, &s); err != nil {
		return errors.Wrap(err, "clock settings")
	}

	effects.Stage(target, product, e.Name)
	effects.Paint(target, s.Color, s.BG)
	if s.Font != "" {
		target.SetStyle("font-family", s.Font)
	}
	effects.Extras(target, s.Extra)

	loc := time.UTC
	if s.TZ != "" {
		l, err := time.LoadLocation(s.TZ)
		if err != nil {
			target.SetData("tz-error", s.TZ)
		} else {
			loc = l
		}
	}
	target.SetData("tz", loc.String())
	target.SetData("format", hourFormat(s.Format))

	t := e.now().In(loc)
	target.SetData("epoch", strconv.FormatInt(t.Unix(), 10))
	e.render(target, t, s)
	return nil
}

func hourFormat(f string) string {
	if f == "12" || f == "12h" {
		return "12h"
	}
	return "24h"
}

func digits(t time.Time, s settings) string {
	twelve := hourFormat(s.Format) == "12h"
	f := "15:04"
	if twelve {
		f = "3:04"
	}
	if s.Seconds {
		f += ":05"
	}
	if twelve {
		f += " PM"
	}
	return t.Format(f)
}

func renderDigital(target *surface.Element, t time.Time, s settings) {
	clock := surface.New("time")
	clock.AddClass("mq-time-digits")
	clock.SetAttr("datetime", t.Format(time.RFC3339))
	clock.Text = digits(t, s)
	target.Append(clock)
	appendDate(target, t, s)
}

func renderAnalog(target *surface.Element, t time.Time, s settings) {
	dial := surface.New("svg")
	dial.AddClass("mq-time-dial")
	dial.SetAttr("xmlns", "http://www.w3.org/2000/svg")
	dial.SetAttr("viewBox", "-50 -50 100 100")

	ring := surface.New("circle")
	ring.SetAttr("r", "48")
	ring.SetAttr("fill", "none")
	ring.SetAttr("stroke", strokeColor(s))
	dial.Append(ring)

	h, m, sec := angles(t)
	dial.Append(hand("hour", h, 25, 4, s))
	dial.Append(hand("minute", m, 38, 2.5, s))
	if s.Seconds {
		dial.Append(hand("second", sec, 42, 1, s))
	}
	target.Append(dial)
	appendDate(target, t, s)
}

// angles returns the hour, minute and second hand rotations in degrees.
func angles(t time.Time) (hour, minute, second float64) {
	second = float64(t.Second()) * 6
	minute = float64(t.Minute())*6 + float64(t.Second())*0.1
	hour = float64(t.Hour()%12)*30 + float64(t.Minute())*0.5
	return hour, minute, second
}

func hand(name string, angle, length, width float64, s settings) *surface.Element {
	line := surface.New("line")
	line.AddClass("mq-time-" + name)
	line.SetAttr("x1", "0")
	line.SetAttr("y1", "0")
	line.SetAttr("x2", "0")
	line.SetAttr("y2", effects.Number(-length))
	line.SetAttr("stroke", strokeColor(s))
	line.SetAttr("stroke-width", effects.Number(width))
	line.SetAttr("stroke-linecap", "round")
	line.SetAttr("transform", "rotate("+effects.Number(angle)+")")
	return line
}

func strokeColor(s settings) string {
	if s.Color == "" {
		return "currentColor"
	}
	return layout.CSSColor(s.Color)
}

func appendDate(target *surface.Element, t time.Time, s settings) {
	var text string
	switch s.Date {
	case "", "none", "off":
		return
	case "short":
		text = t.Format("2006-01-02")
	default:
		text = t.Format("Monday, 2 January 2006")
	}
	p := surface.New("p")
	p.AddClass("mq-time-date")
	p.Text = text
	target.Append(p)
}

// Effects returns the built-in clock faces. now may be nil for time.Now.
// "digital" is an alias of the default face.
func Effects(now Clock) []plugin.Plugin[engine.None] {
	if now == nil {
		now = time.Now
	}
	digital := param.Map{"color": "ffffff", "bg": "000000", "format": "24", "seconds": false}
	return []plugin.Plugin[engine.None]{
		&face{Base: effects.Base{Name: plugin.DefaultID, Summary: "Digital clock", Settings: digital}, now: now, render: renderDigital},
		&face{Base: effects.Base{Name: "digital", Summary: "Digital clock", Settings: digital.Clone()}, now: now, render: renderDigital},
		&face{
			Base: effects.Base{
				Name:     "analog",
				Summary:  "Analog dial",
				Settings: param.Map{"color": "ffffff", "bg": "000000", "seconds": true},
			},
			now:    now,
			render: renderAnalog,
		},
	}
}

// Register adds the clock faces to r.
func Register(r *plugin.Registry[engine.None], now Clock) error {
	return effects.RegisterAll(r, Effects(now))
}
