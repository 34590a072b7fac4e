package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/request"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExpand(t *testing.T) {
	c := NewCatalogue(map[string]Preset{
		"lobby": {Path: "/text/WELCOME", Query: "t=neon&c=ff00ff"},
	})

	parsed, cfg, err := c.Expand("lobby", "")
	require.NoError(t, err)
	assert.Equal(t, request.Parsed{Product: request.ProductText, Text: "WELCOME"}, parsed)
	assert.Equal(t, "neon", cfg["theme"])
	assert.Equal(t, "ff00ff", cfg["color"])

	_, cfg, err = c.Expand("lobby", "c=00ff00&speed=3")
	require.NoError(t, err)
	assert.Equal(t, "00ff00", cfg["color"], "request parameters override the preset")
	assert.Equal(t, 3.0, cfg["speed"])
	assert.Equal(t, "neon", cfg["theme"])
}

func TestExpandErrors(t *testing.T) {
	c := NewCatalogue(map[string]Preset{
		"broken": {Path: "/text/%zz"},
		"ok":     {Path: "/time"},
	})

	_, _, err := c.Expand("missing", "")
	assert.True(t, errors.IsNotFoundError(err))

	_, _, err = c.Expand("broken", "")
	assert.True(t, errors.Is(err, errors.ErrMalformedRequest))

	_, _, err = c.Expand("ok", "c=%zz")
	assert.True(t, errors.Is(err, errors.ErrMalformedRequest))
}

func TestReplaceAndList(t *testing.T) {
	c := NewCatalogue(nil)
	assert.Empty(t, c.Names())

	c.Replace(map[string]Preset{
		"b": {Path: "/light"},
		"a": {Path: "/time", Description: "Clock"},
	})
	assert.Equal(t, []string{"a", "b"}, c.Names())

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "Clock", list[0].Description)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, CatalogueFile), `
[presets.lobby]
path = "/text/WELCOME"
query = "t=neon"

[presets.clock]
path = "/time"
`)
	writeFile(t, filepath.Join(dir, "presets", "menu.toml"), `
path = "/qr/https://example.com/menu"
description = "Menu QR"
`)
	writeFile(t, filepath.Join(dir, "presets", "clock.toml"), `
name = "clock"
path = "/time"
query = "face=analog"
`)
	writeFile(t, filepath.Join(dir, "presets", "README.md"), "not a preset")

	found, err := Discover(dir)
	require.NoError(t, err)

	assert.Len(t, found, 3)
	assert.Equal(t, "/text/WELCOME", found["lobby"].Path)
	assert.Equal(t, "Menu QR", found["menu"].Description)
	assert.Equal(t, "face=analog", found["clock"].Query, "individual files override the catalogue")
}

func TestDiscoverMissingDir(t *testing.T) {
	found, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDiscoverInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, CatalogueFile), "[presets.lobby\npath=")

	_, err := Discover(dir)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	merged := Merge(
		map[string]Preset{"a": {Path: "/time"}, "b": {Path: "/light"}},
		map[string]Preset{"a": {Path: "/sound"}},
	)
	assert.Equal(t, "/sound", merged["a"].Path)
	assert.Equal(t, "b", merged["b"].Name)
}
