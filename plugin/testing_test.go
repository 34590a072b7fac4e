package plugin

import (
	"sync"

	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/surface"
)

type testEngine struct {
	name string
}

// recorder collects lifecycle events across effects in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

type mockEffect struct {
	id       string
	defaults param.Map
	rec      *recorder
	initErr  error
	panicky  bool

	gotTarget  *surface.Element
	gotContent string
	gotConfig  param.Map
	gotEngine  testEngine
}

func (m *mockEffect) ID() string          { return m.id }
func (m *mockEffect) Defaults() param.Map { return m.defaults }

func (m *mockEffect) Init(target *surface.Element, content string, cfg param.Map, engine testEngine) error {
	m.rec.add("init:" + m.id)
	m.gotTarget = target
	m.gotContent = content
	m.gotConfig = cfg
	m.gotEngine = engine
	if m.panicky {
		panic("init exploded")
	}
	target.Append(surface.Div("effect-" + m.id))
	return m.initErr
}

type destroyingEffect struct {
	mockEffect
	destroyErr   error
	destroyPanic bool
}

func (d *destroyingEffect) Destroy() error {
	d.rec.add("destroy:" + d.id)
	if d.destroyPanic {
		panic("destroy exploded")
	}
	return d.destroyErr
}

type pausingEffect struct {
	mockEffect
	paused  bool
	resizes int
}

func (p *pausingEffect) TogglePause() bool {
	p.paused = !p.paused
	return p.paused
}

func (p *pausingEffect) IsPaused() bool { return p.paused }
func (p *pausingEffect) Resize()        { p.resizes++ }

type versionedEffect struct {
	mockEffect
	requires string
}

func (v *versionedEffect) Requires() string { return v.requires }

var errInitFailed = errors.New("init failed")

var (
	_ Plugin[testEngine] = (*mockEffect)(nil)
	_ Destroyer          = (*destroyingEffect)(nil)
	_ Pausable           = (*pausingEffect)(nil)
	_ Resizable          = (*pausingEffect)(nil)
	_ Versioned          = (*versionedEffect)(nil)
)
