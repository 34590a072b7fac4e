// Package plugin provides the effect plugin architecture for marquee displays.
//
// Every product (text sign, camera, QR code, drawing board, light, sound
// visualizer, clock) has its own set of interchangeable effects. An effect is a
// Plugin parameterized by the engine handle its product hands it. Effects are
// held by a Registry and driven by a Host, which tracks the single active
// instance and performs the switch lifecycle.
//
// Architecture:
//   - One Host per product, all built from the same generic type
//   - Every effect implements Plugin[E]
//   - Optional behavior (teardown, pause, resize, API version) is declared by
//     implementing the capability interfaces below
package plugin

import (
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/surface"
)

// APIVersion is the plugin API version effects are checked against.
const APIVersion = "1.2.0"

// DefaultID is the effect used when a requested id is not registered.
const DefaultID = "default"

// Plugin defines the interface all effects implement.
type Plugin[E any] interface {
	// ID is the effect identifier, unique within its registry.
	ID() string

	// Defaults returns the effect's declared configuration. Request parameters
	// are merged over it before Init.
	Defaults() param.Map

	// Init starts the effect inside target. The effect owns target until the
	// host switches away from it.
	Init(target *surface.Element, content string, cfg param.Map, engine E) error
}

// Destroyer is an optional interface for effects that hold timers, goroutines
// or other resources. Destroy is called before the host installs the next effect.
type Destroyer interface {
	Destroy() error
}

// Pausable is an optional interface for effects that can freeze their animation.
type Pausable interface {
	// TogglePause flips the paused state and returns the new state.
	TogglePause() bool
	IsPaused() bool
}

// Resizable is an optional interface for effects that react to viewport changes.
type Resizable interface {
	Resize()
}

// Versioned is an optional interface for effects that require a specific
// plugin API. Requires returns a semver constraint such as "^1.0".
type Versioned interface {
	Requires() string
}

// Described is an optional interface for effects that describe themselves in
// listings.
type Described interface {
	Description() string
}

// State is a snapshot of a host's active instance.
type State struct {
	ID     string    `json:"id"`
	Config param.Map `json:"config"`
	Paused bool      `json:"paused"`
}

// Empty reports whether no effect is active.
func (s State) Empty() bool {
	return s.ID == ""
}
