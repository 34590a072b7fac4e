// Package layout computes the scale, position, padding and background wrapper
// a host places around every effect before handing it a target element.
package layout

import (
	"math"
	"regexp"
	"strconv"

	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/surface"
)

const (
	MinScale     = 0.1
	MaxScale     = 3
	DefaultScale = 1

	MinPadding = 0
	MaxPadding = 20

	DefaultPosition = "center"
)

// Alignment is the flex alignment pair for a position preset.
type Alignment struct {
	AlignItems     string `json:"align_items"`
	JustifyContent string `json:"justify_content"`
}

var positions = map[string]Alignment{
	"center":       {AlignItems: "center", JustifyContent: "center"},
	"top":          {AlignItems: "flex-start", JustifyContent: "center"},
	"bottom":       {AlignItems: "flex-end", JustifyContent: "center"},
	"top-left":     {AlignItems: "flex-start", JustifyContent: "flex-start"},
	"top-right":    {AlignItems: "flex-start", JustifyContent: "flex-end"},
	"bottom-left":  {AlignItems: "flex-end", JustifyContent: "flex-start"},
	"bottom-right": {AlignItems: "flex-end", JustifyContent: "flex-end"},
}

// Position returns the alignment for a preset name.
func Position(name string) (Alignment, bool) {
	a, ok := positions[name]
	return a, ok
}

// Options describes what a host supports.
type Options struct {
	// Padding enables the padding parameter (qr and text hosts).
	Padding bool
	// DefaultBG is used when neither fill nor bg is configured.
	DefaultBG string
}

// Region is the computed wrapper. When Wrapped is false the effect draws
// straight into the container and the other fields are informational.
type Region struct {
	Wrapped   bool      `json:"wrapped"`
	Scale     float64   `json:"scale"`
	Position  string    `json:"position"`
	Alignment Alignment `json:"alignment"`
	Padding   float64   `json:"padding"`
	Fill      string    `json:"fill,omitempty"`
}

// Compute derives the region for a merged configuration. It is a pure function
// of its inputs.
func Compute(cfg param.Map, opts Options) Region {
	scale := clamp(cfg.Float("scale", DefaultScale), MinScale, MaxScale)

	padding := 0.0
	if opts.Padding {
		padding = clamp(cfg.Float("padding", MinPadding), MinPadding, MaxPadding)
	}

	position := cfg.String("position", DefaultPosition)
	alignment, ok := positions[position]
	if !ok {
		position = DefaultPosition
		alignment = positions[DefaultPosition]
	}

	fill := cfg.String("fill", "")
	if fill == "" {
		fill = cfg.String("bg", "")
	}
	if fill == "" {
		fill = opts.DefaultBG
	}

	return Region{
		Wrapped:   scale != 1 || padding != 0,
		Scale:     scale,
		Position:  position,
		Alignment: alignment,
		Padding:   padding,
		Fill:      fill,
	}
}

// Apply builds the wrapper inside container and returns the element the effect
// should draw into: container itself when the region is not wrapped.
func Apply(container *surface.Element, r Region) *surface.Element {
	if !r.Wrapped {
		return container
	}

	outer := surface.Div("mq-layout")
	outer.SetStyle("display", "flex").
		SetStyle("box-sizing", "border-box").
		SetStyle("width", "100%").
		SetStyle("height", "100%").
		SetStyle("overflow", "hidden").
		SetStyle("align-items", r.Alignment.AlignItems).
		SetStyle("justify-content", r.Alignment.JustifyContent)
	if r.Fill != "" {
		outer.SetStyle("background", CSSColor(r.Fill))
	}
	if r.Padding > 0 {
		outer.SetStyle("padding", percent(r.Padding))
	}
	outer.SetData("position", r.Position)

	inner := surface.Div("mq-layout-inner")
	inner.SetStyle("position", "relative").
		SetStyle("width", percent(r.Scale*100)).
		SetStyle("height", percent(r.Scale*100)).
		SetStyle("flex", "none")
	inner.SetData("scale", formatFloat(r.Scale))

	container.Append(outer.Append(inner))
	return inner
}

var hexColor = regexp.MustCompile(`^(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// CSSColor prefixes bare hex colors with '#'. Named colors and anything else
// pass through untouched.
func CSSColor(v string) string {
	if hexColor.MatchString(v) {
		return "#" + v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func percent(v float64) string {
	return formatFloat(v) + "%"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

// Filter returns the CSS filter for the brightness, contrast and saturate
// parameters, each a percentage defaulting to 100. It returns "" when all
// three are 100.
func Filter(cfg param.Map) string {
	brightness := cfg.Float("brightness", 100)
	contrast := cfg.Float("contrast", 100)
	saturate := cfg.Float("saturate", 100)
	if brightness == 100 && contrast == 100 && saturate == 100 {
		return ""
	}
	return "brightness(" + percent(brightness) + ") contrast(" + percent(contrast) + ") saturate(" + percent(saturate) + ")"
}

// ApplyFilter sets the CSS filter on target when Filter is non-empty.
func ApplyFilter(target *surface.Element, cfg param.Map) {
	if f := Filter(cfg); f != "" {
		target.SetStyle("filter", f)
	}
}
