package plugin

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/layout"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/surface"
)

func newTestHost(t *testing.T, cfg HostConfig, effects ...Plugin[testEngine]) *Host[testEngine] {
	log := zaptest.NewLogger(t).Sugar()
	registry := NewRegistry[testEngine](log)
	registry.MustRegister(effects...)
	return NewHost(registry, cfg, log)
}

func newObservedHost(cfg HostConfig, effects ...Plugin[testEngine]) (*Host[testEngine], *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core).Sugar()
	registry := NewRegistry[testEngine](log)
	registry.MustRegister(effects...)
	return NewHost(registry, cfg, log), logs
}

func TestHost_EmptyAtConstruction(t *testing.T) {
	host := newTestHost(t, HostConfig{Name: "text"})

	assert.Nil(t, host.Current())
	assert.Equal(t, "", host.CurrentID())
	assert.Nil(t, host.CurrentConfig())
	assert.True(t, host.State().Empty())
	assert.False(t, host.IsPaused())
	assert.Equal(t, "text", host.Name())
}

func TestHost_SwitchMergesRawOverDefaults(t *testing.T) {
	def := &mockEffect{id: DefaultID, defaults: param.Map{"color": "ffffff", "speed": 1.0}}
	host := newTestHost(t, HostConfig{Name: "text"}, def)
	container := surface.Div()

	err := host.Switch(context.Background(), DefaultID, container, "HELLO", param.Map{"speed": 2.0}, testEngine{name: "none"})
	require.NoError(t, err)

	assert.Equal(t, DefaultID, host.CurrentID())
	assert.Same(t, def, host.Current())
	assert.Equal(t, param.Map{"color": "ffffff", "speed": 2.0}, host.CurrentConfig())
	assert.Equal(t, param.Map{"color": "ffffff", "speed": 2.0}, def.gotConfig)
	assert.Equal(t, "HELLO", def.gotContent)
	assert.Equal(t, "none", def.gotEngine.name)
	assert.Same(t, container, def.gotTarget, "no wrapper at scale 1 without padding")

	assert.Equal(t, param.Map{"color": "ffffff", "speed": 1.0}, def.Defaults(), "defaults must not be mutated by a switch")
}

func TestHost_SwitchFallsBackToDefault(t *testing.T) {
	def := &mockEffect{id: DefaultID, defaults: param.Map{"color": "ffffff"}}
	neon := &mockEffect{id: "neon", defaults: param.Map{"glow": "ff00ff"}}
	host, logs := newObservedHost(HostConfig{}, def, neon)

	err := host.Switch(context.Background(), "nonexistent", surface.Div(), "hi", param.Map{"speed": 3.0}, testEngine{})
	require.NoError(t, err)

	assert.Equal(t, DefaultID, host.CurrentID())
	assert.Equal(t, param.Map{"color": "ffffff", "speed": 3.0}, host.CurrentConfig())
	assert.Nil(t, neon.gotConfig)
	assert.Equal(t, 1, logs.FilterMessage("Effect not registered, using default").Len())
}

func TestHost_SwitchWithoutDefaultLeavesEmpty(t *testing.T) {
	rec := &recorder{}
	neon := &destroyingEffect{mockEffect: mockEffect{id: "neon", rec: rec}}
	host, logs := newObservedHost(HostConfig{}, neon)
	container := surface.Div()

	require.NoError(t, host.Switch(context.Background(), "neon", container, "x", nil, testEngine{}))
	require.Len(t, container.Children(), 1)

	err := host.Switch(context.Background(), "flip", container, "x", nil, testEngine{})
	assert.True(t, errors.Is(err, errors.ErrPluginNotFound))
	assert.True(t, host.State().Empty())
	assert.Nil(t, host.CurrentConfig())
	assert.Empty(t, container.Children(), "container is cleared before resolution")
	assert.Equal(t, []string{"init:neon", "destroy:neon"}, rec.list())
	assert.Equal(t, 1, logs.FilterMessage("No effect to switch to").Len())
}

func TestHost_TeardownBeforeInit(t *testing.T) {
	rec := &recorder{}
	a := &destroyingEffect{mockEffect: mockEffect{id: "a", rec: rec}}
	b := &destroyingEffect{mockEffect: mockEffect{id: "b", rec: rec}}
	host := newTestHost(t, HostConfig{}, a, b)
	container := surface.Div()
	ctx := context.Background()

	require.NoError(t, host.Switch(ctx, "a", container, "", nil, testEngine{}))
	require.NoError(t, host.Switch(ctx, "b", container, "", nil, testEngine{}))
	require.NoError(t, host.Switch(ctx, "a", container, "", nil, testEngine{}))

	assert.Equal(t, []string{"init:a", "destroy:a", "init:b", "destroy:b", "init:a"}, rec.list())
	assert.Equal(t, "a", host.CurrentID())
}

func TestHost_SwitchClearsContainer(t *testing.T) {
	host := newTestHost(t, HostConfig{}, &mockEffect{id: DefaultID})
	container := surface.Div("leftover")
	container.ID = "display"
	container.SetStyle("color", "red")
	container.Append(surface.Div("stale"), surface.Div("stale"))

	require.NoError(t, host.Switch(context.Background(), DefaultID, container, "", nil, testEngine{}))

	assert.Equal(t, "display", container.ID)
	assert.False(t, container.HasClass("leftover"))
	assert.Equal(t, "", container.Style("color"))
	require.Len(t, container.Children(), 1)
	assert.True(t, container.Children()[0].HasClass("effect-default"))
}

func TestHost_SwitchAppliesLayout(t *testing.T) {
	def := &mockEffect{id: DefaultID, defaults: param.Map{"bg": "000000"}}
	host := newTestHost(t, HostConfig{Layout: layout.Options{Padding: true}}, def)
	container := surface.Div()

	raw := param.Map{"scale": 1.5, "position": "bottom-right", "padding": 5.0}
	require.NoError(t, host.Switch(context.Background(), DefaultID, container, "", raw, testEngine{}))

	require.Len(t, container.Children(), 1)
	outer := container.Children()[0]
	assert.Equal(t, "flex-end", outer.Style("align-items"))
	assert.Equal(t, "flex-end", outer.Style("justify-content"))
	assert.Equal(t, "#000000", outer.Style("background"))
	assert.Equal(t, "5%", outer.Style("padding"))

	require.Len(t, outer.Children(), 1)
	assert.Same(t, outer.Children()[0], def.gotTarget)
	assert.Equal(t, "150%", def.gotTarget.Style("width"))
}

func TestHost_InitFailureStillRecordsState(t *testing.T) {
	tests := []struct {
		name    string
		effect  *mockEffect
		message string
	}{
		{"error", &mockEffect{id: "broken", initErr: errInitFailed}, "Effect failed"},
		{"panic", &mockEffect{id: "broken", panicky: true}, "Effect panicked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, logs := newObservedHost(HostConfig{}, tt.effect)

			err := host.Switch(context.Background(), "broken", surface.Div(), "", param.Map{"a": true}, testEngine{})
			require.NoError(t, err)

			assert.Equal(t, "broken", host.CurrentID())
			assert.Equal(t, param.Map{"a": true}, host.CurrentConfig())
			assert.Equal(t, 1, logs.FilterMessage(tt.message).Len())
		})
	}
}

func TestHost_DestroyFailureDoesNotBlockSwitch(t *testing.T) {
	rec := &recorder{}
	a := &destroyingEffect{mockEffect: mockEffect{id: "a", rec: rec}, destroyPanic: true}
	b := &destroyingEffect{mockEffect: mockEffect{id: "b", rec: rec}, destroyErr: errors.New("leak")}
	c := &mockEffect{id: "c", rec: rec}
	host, logs := newObservedHost(HostConfig{}, a, b, c)
	ctx := context.Background()
	container := surface.Div()

	require.NoError(t, host.Switch(ctx, "a", container, "", nil, testEngine{}))
	require.NoError(t, host.Switch(ctx, "b", container, "", nil, testEngine{}))
	require.NoError(t, host.Switch(ctx, "c", container, "", nil, testEngine{}))

	assert.Equal(t, []string{"init:a", "destroy:a", "init:b", "destroy:b", "init:c"}, rec.list())
	assert.Equal(t, 1, logs.FilterMessage("Effect panicked").Len())
	assert.Equal(t, 1, logs.FilterMessage("Effect failed").Len())
	assert.Equal(t, "c", host.CurrentID())
}

func TestHost_PostProcess(t *testing.T) {
	var got param.Map
	var gotTarget *surface.Element
	cfg := HostConfig{
		Name: "camera",
		PostProcess: func(target *surface.Element, cfg param.Map) {
			gotTarget = target
			got = cfg
			layout.ApplyFilter(target, cfg)
		},
	}
	host := newTestHost(t, cfg, &mockEffect{id: DefaultID, defaults: param.Map{"brightness": 100.0}})
	container := surface.Div()

	require.NoError(t, host.Switch(context.Background(), "mirror", container, "", param.Map{"contrast": 120.0}, testEngine{}))

	assert.Same(t, container, gotTarget)
	assert.Equal(t, param.Map{"brightness": 100.0, "contrast": 120.0}, got)
	assert.Equal(t, "brightness(100%) contrast(120%) saturate(100%)", container.Style("filter"))
}

func TestHost_CurrentConfigIsCopy(t *testing.T) {
	host := newTestHost(t, HostConfig{}, &mockEffect{id: DefaultID})
	require.NoError(t, host.Switch(context.Background(), DefaultID, surface.Div(), "", param.Map{"speed": 2.0}, testEngine{}))

	cfg := host.CurrentConfig()
	cfg["speed"] = 9.0
	assert.Equal(t, 2.0, host.CurrentConfig()["speed"])

	state := host.State()
	state.Config["speed"] = 7.0
	assert.Equal(t, 2.0, host.CurrentConfig()["speed"])
}

func TestHost_PauseAndResize(t *testing.T) {
	pausing := &pausingEffect{mockEffect: mockEffect{id: "pulse"}}
	host := newTestHost(t, HostConfig{}, pausing, &mockEffect{id: DefaultID})
	ctx := context.Background()

	_, ok := host.TogglePause()
	assert.False(t, ok, "empty host has nothing to pause")
	host.Resize()

	require.NoError(t, host.Switch(ctx, "pulse", surface.Div(), "", nil, testEngine{}))

	paused, ok := host.TogglePause()
	assert.True(t, ok)
	assert.True(t, paused)
	assert.True(t, host.IsPaused())
	assert.True(t, host.State().Paused)

	paused, _ = host.TogglePause()
	assert.False(t, paused)

	host.Resize()
	host.Resize()
	assert.Equal(t, 2, pausing.resizes)

	require.NoError(t, host.Switch(ctx, DefaultID, surface.Div(), "", nil, testEngine{}))
	_, ok = host.TogglePause()
	assert.False(t, ok)
	host.Resize()
	assert.Equal(t, 2, pausing.resizes)
}

func TestHost_Reset(t *testing.T) {
	rec := &recorder{}
	host := newTestHost(t, HostConfig{}, &destroyingEffect{mockEffect: mockEffect{id: DefaultID, rec: rec}})

	require.NoError(t, host.Switch(context.Background(), DefaultID, surface.Div(), "", nil, testEngine{}))
	host.Reset()
	host.Reset()

	assert.True(t, host.State().Empty())
	assert.Equal(t, []string{"init:default", "destroy:default"}, rec.list())
}

func TestHost_Accessors(t *testing.T) {
	host := newTestHost(t, HostConfig{},
		&mockEffect{id: "neon", defaults: param.Map{"glow": "ff00ff"}},
		&mockEffect{id: DefaultID},
	)

	assert.Equal(t, []string{"default", "neon"}, host.EffectIDs())
	assert.True(t, host.HasEffect("neon"))
	assert.False(t, host.HasEffect("flip"))
	assert.Equal(t, param.Map{"glow": "ff00ff"}, host.Defaults("neon"))
	assert.Nil(t, host.Defaults("flip"))

	require.NoError(t, host.Register(&mockEffect{id: "flip"}))
	assert.True(t, host.HasEffect("flip"))
}

func TestHost_ConcurrentSwitches(t *testing.T) {
	rec := &recorder{}
	a := &destroyingEffect{mockEffect: mockEffect{id: "a", rec: rec}}
	b := &destroyingEffect{mockEffect: mockEffect{id: "b", rec: rec}}
	host := newTestHost(t, HostConfig{}, a, b)
	container := surface.Div()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := "a"
		if i%2 == 1 {
			id = "b"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = host.Switch(context.Background(), id, container, "", nil, testEngine{})
			_ = host.CurrentConfig()
		}()
	}
	wg.Wait()

	events := rec.list()
	require.Len(t, events, 39)
	for i := 0; i < len(events)-1; i += 2 {
		assert.Contains(t, events[i], "init:")
		assert.Contains(t, events[i+1], "destroy:")
	}
	assert.Len(t, container.Children(), 1)
}
