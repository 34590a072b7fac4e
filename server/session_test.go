package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/presets"
	"github.com/teranos/marquee/request"
)

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := read(t, conn)
	require.Equal(t, MsgHello, hello.Type)
	require.NotEmpty(t, hello.Session)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Outbound
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg Inbound) Outbound {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
	return read(t, conn)
}

func TestSession_Navigate(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dial(t, s)

	out := roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/text/Hi%20there?t=neon"})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.Equal(t, "text", string(out.Product))
	assert.Equal(t, "neon", out.Effect)
	assert.False(t, out.Fallback)
	assert.Contains(t, out.HTML, "Hi there")
	assert.Contains(t, out.HTML, `id="marquee"`)
	assert.Equal(t, "ff00ff", out.Config["color"])

	assert.Len(t, s.Sessions(), 1)

	out = roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "http://screen.local/light?c=00ff00"})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.Equal(t, "light", string(out.Product))
	assert.Equal(t, "00ff00", out.Config["color"])
}

func TestSession_PauseAndResize(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dial(t, s)

	out := roundTrip(t, conn, Inbound{Type: MsgPause})
	assert.Equal(t, MsgError, out.Type, "nothing shown yet")

	out = roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/text/news?t=scroll"})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.False(t, out.Paused)

	out = roundTrip(t, conn, Inbound{Type: MsgPause})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.True(t, out.Paused)
	assert.Contains(t, out.HTML, `data-paused="true"`)

	out = roundTrip(t, conn, Inbound{Type: MsgPause})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.False(t, out.Paused)

	out = roundTrip(t, conn, Inbound{Type: MsgResize})
	assert.Equal(t, MsgRender, out.Type, out.Error)

	out = roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/text/still"})
	require.Equal(t, MsgRender, out.Type)
	out = roundTrip(t, conn, Inbound{Type: MsgPause})
	assert.Equal(t, MsgError, out.Type)
	assert.Contains(t, out.Error, "cannot pause")
}

func TestSession_Preset(t *testing.T) {
	cfg := testConfig(t)
	s := newTestServer(t, cfg)
	s.Presets().Replace(map[string]presets.Preset{
		"menu": {Path: "/text/Menu", Query: "t=flip"},
	})
	conn := dial(t, s)

	out := roundTrip(t, conn, Inbound{Type: MsgPreset, Name: "menu", Query: "c=ffcc00"})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.Equal(t, "flip", out.Effect)
	assert.Equal(t, "ffcc00", out.Config["color"])

	out = roundTrip(t, conn, Inbound{Type: MsgPreset, Name: "nope"})
	assert.Equal(t, MsgError, out.Type)
}

func TestSession_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dial(t, s)

	out := roundTrip(t, conn, Inbound{Type: "dance"})
	assert.Equal(t, MsgError, out.Type)
	assert.Contains(t, out.Error, "unknown message type")

	out = roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/text/%zz"})
	assert.Equal(t, MsgError, out.Type)
	assert.Contains(t, out.Error, "decode")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	out = read(t, conn)
	assert.Equal(t, MsgError, out.Type)
	assert.Contains(t, out.Error, "invalid message")
}

func TestSession_RateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.MaxMessagesPerSecond = 0.01
	cfg.Session.Burst = 2
	s := newTestServer(t, cfg)
	conn := dial(t, s)

	for i := 0; i < 2; i++ {
		out := roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/light"})
		require.Equal(t, MsgRender, out.Type)
	}
	out := roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/light"})
	assert.Equal(t, MsgError, out.Type)
	assert.Contains(t, out.Error, "rate limit")
}

func TestSession_ReceivesReloadedDefaults(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dial(t, s)

	cfg := testConfig(t)
	cfg.Display.Defaults = map[string]map[string]any{"light": {"c": "123456"}}
	require.NoError(t, s.ApplyConfig(cfg))

	out := roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/light"})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.Equal(t, "123456", out.Config["color"])
}

func TestSession_ClosedOnServerClose(t *testing.T) {
	s, err := New(testConfig(t), nil)
	require.NoError(t, err)
	conn := dial(t, s)

	s.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return len(s.Sessions()) == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestSession_SpectrumDrivesSound(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dial(t, s)

	out := roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/sound?bars=4"})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.Contains(t, out.HTML, `data-state="idle"`)

	out = roundTrip(t, conn, Inbound{Type: MsgSpectrum, Bins: []int{255, 300, 255, 255}})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.Equal(t, "sound", string(out.Product))
	assert.Contains(t, out.HTML, `data-state="listening"`)
	assert.Contains(t, out.HTML, "height: 100%")

	out = roundTrip(t, conn, Inbound{Type: MsgSpectrum})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.Contains(t, out.HTML, `data-state="idle"`)
}

func TestSession_SpectrumIgnoredOutsideSound(t *testing.T) {
	s := newTestServer(t, nil)
	conn := dial(t, s)

	out := roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/text/hi"})
	require.Equal(t, MsgRender, out.Type, out.Error)

	require.NoError(t, conn.WriteJSON(Inbound{Type: MsgSpectrum, Bins: []int{10, 20}}))

	// The spectrum frame gets no reply, so the next message answers navigate.
	out = roundTrip(t, conn, Inbound{Type: MsgNavigate, URL: "/light"})
	require.Equal(t, MsgRender, out.Type, out.Error)
	assert.Equal(t, "light", string(out.Product))
}

func TestServer_RegisterInstallsCurrentDefaults(t *testing.T) {
	s := newTestServer(t, nil)

	// Products built before a reload still carry the old defaults.
	products, err := s.newProducts()
	require.NoError(t, err)
	t.Cleanup(products.Close)

	cfg := testConfig(t)
	cfg.Display.Defaults = map[string]map[string]any{"light": {"c": "abcdef"}}
	require.NoError(t, s.ApplyConfig(cfg))

	sess := &Session{id: "late", server: s, products: products}
	s.register(sess)
	t.Cleanup(func() { s.unregister(sess) })

	parsed, raw, err := request.ParseURL("/light")
	require.NoError(t, err)
	f, err := show(context.Background(), products, parsed, raw, display.Engines{})
	require.NoError(t, err)
	assert.Equal(t, "abcdef", f.Result.Config["color"])
}
