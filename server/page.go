package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"strconv"

	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/request"
	"github.com/teranos/marquee/surface"
)

//go:embed assets/marquee.css
var styleSheet string

//go:embed assets/marquee.js
var clientScript string

// RootID is the id of the element every display is drawn into.
const RootID = "marquee"

// liveEndpoint is where the page's client opens its session.
const liveEndpoint = "/ws"

// frame is one rendered display: the root container and what Show installed.
// Parsed and Request keep the inputs so a session can redraw the frame.
type frame struct {
	Root    *surface.Element
	Result  display.Result
	Paused  bool
	Parsed  request.Parsed
	Request param.Map
}

// newRoot creates an empty root container.
func newRoot() *surface.Element {
	root := surface.Div()
	root.ID = RootID
	return root
}

// annotate copies the display result onto the root so the client runtime
// can read product, effect and config without parsing the markup.
func annotate(root *surface.Element, res display.Result, paused bool) error {
	cfg := res.Config
	if cfg == nil {
		cfg = param.Map{}
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode display config")
	}
	root.SetData("product", string(res.Product))
	root.SetData("effect", res.Effect)
	root.SetData("fallback", strconv.FormatBool(res.Fallback))
	root.SetData("paused", strconv.FormatBool(paused))
	root.SetData("config", string(data))
	root.SetData("live", liveEndpoint)
	return nil
}

// show draws a request into a fresh root using products.
func show(ctx context.Context, products *display.Products, parsed request.Parsed, cfg param.Map, engines display.Engines) (frame, error) {
	root := newRoot()
	raw := cfg.Clone()
	res, err := products.Show(ctx, parsed, cfg, root, engines)
	if err != nil {
		return frame{}, err
	}
	paused := products.State().Paused
	if err := annotate(root, res, paused); err != nil {
		return frame{}, err
	}
	return frame{Root: root, Result: res, Paused: paused, Parsed: parsed, Request: raw}, nil
}

// writeDocument writes a complete HTML page around root.
func writeDocument(w io.Writer, title, lang string, root *surface.Element) error {
	if lang == "" {
		lang = "en"
	}

	head := surface.New("head").Append(
		surface.New("meta").SetAttr("charset", "utf-8"),
		surface.New("meta").SetAttr("name", "viewport").SetAttr("content", "width=device-width, initial-scale=1"),
		&surface.Element{Tag: "title", Text: title},
		&surface.Element{Tag: "style", Text: styleSheet},
	)
	body := surface.New("body").Append(
		root,
		&surface.Element{Tag: "script", Text: clientScript},
	)
	doc := surface.New("html").SetAttr("lang", lang).Append(head, body)

	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return errors.Wrap(err, "failed to write document")
	}
	return doc.Render(w)
}
