// Package camera provides the camera effects.
package camera

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

const product = "camera"

type settings struct {
	BG     string         `param:"bg"`
	Mirror bool           `param:"mirror"`
	Fit    string         `param:"fit"`
	Extra  map[string]any `param:",remain"`
}

type view struct {
	effects.Base
	style func(video *surface.Element)
}

func (e *view) Init(target *surface.Element, _ string, cfg param.Map, eng engine.Camera) error {
	var s settings
	if err := param.Decode(cfg, &s); err != nil {
		return errors.Wrap(err, "camera settings")
	}

	effects.Stage(target, product, e.Name)
	effects.Paint(target, "", s.BG)
	effects.Extras(target, s.Extra)

	video := surface.New("video")
	video.AddClass("mq-camera-video")
	video.SetAttr("autoplay", "")
	video.SetAttr("muted", "")
	video.SetAttr("playsinline", "")
	fit := s.Fit
	if fit != "contain" {
		fit = "cover"
	}
	video.SetStyle("object-fit", fit)
	if s.Mirror {
		video.SetStyle("transform", "scaleX(-1)")
	}
	if e.style != nil {
		e.style(video)
	}

	if eng != nil && eng.IsRunning() {
		src := eng.Video()
		target.SetData("state", "live")
		if src.DeviceID != "" {
			video.SetData("device", src.DeviceID)
		}
		if src.Width > 0 && src.Height > 0 {
			video.SetAttr("width", strconv.Itoa(src.Width))
			video.SetAttr("height", strconv.Itoa(src.Height))
		}
	} else {
		target.SetData("state", "waiting")
	}

	target.Append(video)
	return nil
}

// Filter is the host post-process step for camera effects.
func Filter(target *surface.Element, cfg param.Map) {
	layout.ApplyFilter(target, cfg)
}

// Effects returns the built-in camera effects.
func Effects() []plugin.Plugin[engine.Camera] {
	return []plugin.Plugin[engine.Camera]{
		&view{Base: effects.Base{
			Name:     plugin.DefaultID,
			Summary:  "Live camera feed",
			Settings: param.Map{"bg": "000000", "mirror": false},
		}},
		&view{Base: effects.Base{
			Name:     "mirror",
			Summary:  "Mirrored feed, like a looking glass",
			Settings: param.Map{"bg": "000000", "mirror": true},
		}},
		&view{
			Base: effects.Base{
				Name:     "mono",
				Summary:  "Black and white feed",
				Settings: param.Map{"bg": "000000", "contrast": 120.0},
			},
			style: func(video *surface.Element) {
				video.SetStyle("filter", "grayscale(100%)")
			},
		},
	}
}

// Register adds the camera effects to r.
func Register(r *plugin.Registry[engine.Camera]) error {
	return effects.RegisterAll(r, Effects())
}
