package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/marquee/config"
	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/presets"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 14, 30, 15, 0, time.UTC) }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.LoadWithViper(v)
	require.NoError(t, err)
	cfg.Display.PresetsDir = t.TempDir()
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t)
	}
	s, err := New(cfg, zaptest.NewLogger(t).Sugar(), WithClock(fixedNow))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Burst = 0
	_, err := New(cfg, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)

	_, err = New(nil, nil)
	assert.Error(t, err)
}

func TestHandleDisplay(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/text/Hello%20World?t=neon&c=ff0000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Hello World")
	assert.Contains(t, body, `id="marquee"`)
	assert.Contains(t, body, `data-product="text"`)
	assert.Contains(t, body, `data-effect="neon"`)
	assert.Contains(t, body, `data-fallback="false"`)
	assert.Contains(t, body, `data-live="/ws"`)
}

func TestHandleDisplay_LegacyPathIsText(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/Good%20Morning")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Good Morning")
	assert.Contains(t, rec.Body.String(), `data-product="text"`)
}

func TestHandleDisplay_UnknownEffectFallsBack(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/text/hi?t=sparkle")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-effect="default"`)
	assert.Contains(t, rec.Body.String(), `data-fallback="true"`)
}

func TestHandleDisplay_EscapesContent(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/text/%3Cscript%3Ealert(1)%3C%2Fscript%3E")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;alert(1)")
}

func TestHandleDisplay_MalformedQuery(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/text/hi?c=%zz")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "data-error")
	assert.NotContains(t, rec.Body.String(), "data-live")
}

func TestHandleDisplay_EveryProduct(t *testing.T) {
	s := newTestServer(t, nil)

	for _, target := range []string{"/light", "/sound", "/time?face=analog", "/camera?e=mirror", "/qr/https%3A%2F%2Fexample.com", "/draw", "/"} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, s, target)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestHandlePreset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Presets = map[string]presets.Preset{
		"lobby": {Path: "/text/Welcome", Query: "t=neon&c=ff00ff", Description: "Lobby banner"},
	}
	s := newTestServer(t, cfg)

	rec := get(t, s, "/p/lobby?t=scroll")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
	assert.Contains(t, rec.Body.String(), `data-effect="scroll"`, "request query overrides the preset")

	rec = get(t, s, "/p/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s, "/api/presets")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []presets.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "lobby", list[0].Name)
}

func TestHandleEffects(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/api/effects")
	require.Equal(t, http.StatusOK, rec.Code)
	var all map[string][]display.EffectInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 7)
	assert.NotEmpty(t, all["text"])

	rec = get(t, s, "/api/effects/text")
	require.Equal(t, http.StatusOK, rec.Code)
	var text []display.EffectInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &text))
	ids := make([]string, 0, len(text))
	for _, e := range text {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, "neon")

	rec = get(t, s, "/api/effects/text/neon")
	require.Equal(t, http.StatusOK, rec.Code)
	var neon display.EffectInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &neon))
	assert.Equal(t, "ff00ff", neon.Defaults["color"])

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/effects/tv").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/effects/text/sparkle").Code)
}

func TestHandleParse(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/api/parse?url="+"%2Fqr%2Fhello%3Ft%3Dcard%26sz%3D2")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ParseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "qr", string(resp.Parsed.Product))
	assert.Equal(t, "hello", resp.Parsed.Text)
	assert.Equal(t, "card", resp.Config["theme"])
	assert.Equal(t, 2.0, resp.Config["size"])
	assert.Nil(t, resp.Result)

	rec = get(t, s, "/api/parse?resolve=true&url="+"%2Fqr%2Fhello%3Ft%3Dcard")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = ParseResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, "card", resp.Result.Effect)
	assert.Equal(t, "Q", resp.Result.Config["level"], "effect defaults merged under the request")

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/parse").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/parse?url=%2Ftext%2F%25zz").Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, 0.0, health["sessions"])
}

func TestApplyConfig_UpdatesDefaults(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Contains(t, get(t, s, "/text/hi").Body.String(), `data-effect="default"`)

	cfg := testConfig(t)
	cfg.Display.Defaults = map[string]map[string]any{"text": {"t": "neon"}}
	require.NoError(t, s.ApplyConfig(cfg))

	assert.Contains(t, get(t, s, "/text/hi").Body.String(), `data-effect="neon"`)
	assert.Contains(t, get(t, s, "/text/hi?t=flip").Body.String(), `data-effect="flip"`, "request wins over configured defaults")
}

func TestCORS(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.AllowedOrigins = []string{"http://signage.local"}
	s := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/effects", nil)
	req.Header.Set("Origin", "http://signage.local:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://signage.local:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/effects", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFavicon(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s, "/favicon.ico")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Empty(t, body)
}
