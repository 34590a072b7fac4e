// Package engine defines the runtime handles products pass to their effects.
//
// Capture itself (camera devices, microphones) happens on the display; the
// server side only sees whether an engine is running and the latest data it
// reported.
package engine

import (
	"sync"

	"github.com/teranos/marquee/engine/strokes"
)

// Handle is implemented by every engine.
type Handle interface {
	IsRunning() bool
}

// VideoSource describes the stream a camera engine feeds its effect.
type VideoSource struct {
	DeviceID string `json:"device_id,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Facing   string `json:"facing,omitempty"`
}

// Camera is the engine handed to camera effects.
type Camera interface {
	Handle
	Video() VideoSource
}

// Sound is the engine handed to sound visualizers.
type Sound interface {
	Handle
	// FrequencyData returns the latest magnitude per frequency bin.
	FrequencyData() []uint8
}

// Draw is the engine handed to drawing board effects.
type Draw interface {
	Handle
	Strokes() []strokes.Stroke
}

// None is the engine of products that have none (text, qr, light, time).
type None struct{}

// IsRunning is always false.
func (None) IsRunning() bool { return false }

// DefaultBins is the number of frequency bins an idle sound engine reports.
const DefaultBins = 128

// IdleCamera is a camera engine with no device attached.
type IdleCamera struct {
	Source VideoSource
}

func (IdleCamera) IsRunning() bool { return false }
func (c IdleCamera) Video() VideoSource { return c.Source }

// Spectrum is a sound engine fed with frequency frames reported by a display.
// The zero value is idle and reports DefaultBins zero bins.
type Spectrum struct {
	mu      sync.RWMutex
	bins    []uint8
	running bool
}

// NewSpectrum returns an idle spectrum with n bins.
func NewSpectrum(n int) *Spectrum {
	if n <= 0 {
		n = DefaultBins
	}
	return &Spectrum{bins: make([]uint8, n)}
}

// Update stores a frame and marks the engine running.
func (s *Spectrum) Update(frame []uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bins = append(s.bins[:0], frame...)
	s.running = true
}

// Stop marks the engine idle and zeroes the bins.
func (s *Spectrum) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bins {
		s.bins[i] = 0
	}
	s.running = false
}

func (s *Spectrum) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// FrequencyData returns a copy of the latest frame.
func (s *Spectrum) FrequencyData() []uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bins == nil {
		return make([]uint8, DefaultBins)
	}
	out := make([]uint8, len(s.bins))
	copy(out, s.bins)
	return out
}

var (
	_ Handle = None{}
	_ Camera = IdleCamera{}
	_ Sound  = (*Spectrum)(nil)
	_ Draw   = (*strokes.Board)(nil)
)
