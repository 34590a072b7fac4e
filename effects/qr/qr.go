// Package qr provides the QR code effects.
package qr

import (
	"strconv"

	"github.com/teranos/marquee/effects"
	"github.com/teranos/marquee/engine"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/plugin"
	"github.com/teranos/marquee/surface"
)

const product = "qr"

type settings struct {
	Color string         `param:"color"`
	BG    string         `param:"bg"`
	Fill  string         `param:"fill"`
	Level string         `param:"level"`
	Text  string         `param:"text"`
	Extra map[string]any `param:",remain"`
}

type code struct {
	effects.Base
	encoder *Encoder
	card    bool
}

func (e *code) Init(target *surface.Element, content string, cfg param.Map, _ engine.None) error {
	var s settings
	if err := param.Decode(cfg, &s); err != nil {
		return errors.Wrap(err, "qr settings")
	}

	effects.Stage(target, product, e.Name)
	effects.Paint(target, "", s.BG)
	effects.Extras(target, s.Extra)

	if content == "" {
		target.SetData("empty", "true")
		return nil
	}

	m, err := e.encoder.Encode(content, s.Level)
	if err != nil {
		target.SetData("error", "too-long")
		return err
	}
	target.SetData("modules", strconv.Itoa(m.Size))

	symbol := svg(m, s.Color)
	if !e.card {
		target.Append(symbol)
		return nil
	}

	card := surface.Div("mq-qr-card")
	card.SetStyle("background", layout.CSSColor(cardColor(s)))
	card.Append(symbol)
	caption := s.Text
	if caption == "" {
		caption = content
	}
	label := surface.New("p")
	label.AddClass("mq-qr-caption")
	label.SetStyle("color", layout.CSSColor(s.Color))
	label.Text = caption
	card.Append(label)
	target.Append(card)
	return nil
}

func cardColor(s settings) string {
	if s.Fill != "" {
		return s.Fill
	}
	return "ffffff"
}

func svg(m Matrix, color string) *surface.Element {
	size := strconv.Itoa(m.Size)
	root := surface.New("svg")
	root.AddClass("mq-qr-symbol")
	root.SetAttr("xmlns", "http://www.w3.org/2000/svg")
	root.SetAttr("viewBox", "0 0 "+size+" "+size)
	root.SetAttr("shape-rendering", "crispEdges")

	path := surface.New("path")
	path.SetAttr("d", m.Path)
	path.SetAttr("fill", layout.CSSColor(color))
	return root.Append(path)
}

// Effects returns the built-in QR effects sharing encoder.
func Effects(encoder *Encoder) []plugin.Plugin[engine.None] {
	if encoder == nil {
		encoder = NewEncoder(0)
	}
	return []plugin.Plugin[engine.None]{
		&code{
			Base: effects.Base{
				Name:     plugin.DefaultID,
				Summary:  "Plain QR symbol",
				Settings: param.Map{"color": "000000", "bg": "ffffff", "level": "M"},
			},
			encoder: encoder,
		},
		&code{
			Base: effects.Base{
				Name:     "card",
				Summary:  "QR symbol on a card with a caption",
				Settings: param.Map{"color": "111111", "bg": "1a1a2e", "level": "Q", "padding": 8.0},
			},
			encoder: encoder,
			card:    true,
		},
	}
}

// Register adds the QR effects to r.
func Register(r *plugin.Registry[engine.None], encoder *Encoder) error {
	return effects.RegisterAll(r, Effects(encoder))
}
