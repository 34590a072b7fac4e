// Package config loads marquee configuration from marquee.toml files and
// MARQUEE_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/presets"
	"github.com/teranos/marquee/request"
)

// Config represents the marquee configuration
type Config struct {
	Server  ServerConfig              `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Display DisplayConfig             `mapstructure:"display" toml:"display" json:"display" yaml:"display"`
	Presets map[string]presets.Preset `mapstructure:"presets" toml:"presets" json:"presets" yaml:"presets"`
	Cache   CacheConfig               `mapstructure:"cache" toml:"cache" json:"cache" yaml:"cache"`
	Session SessionConfig             `mapstructure:"session" toml:"session" json:"session" yaml:"session"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr                   string   `mapstructure:"addr" toml:"addr" json:"addr" yaml:"addr"`
	AllowedOrigins         []string `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	ReadTimeoutSeconds     int      `mapstructure:"read_timeout_seconds" toml:"read_timeout_seconds" json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds" json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// DisplayConfig configures what displays show by default
type DisplayConfig struct {
	// Title is the document title of rendered pages
	Title string `mapstructure:"title" toml:"title" json:"title" yaml:"title"`
	// Defaults holds per-product parameters applied under every request,
	// e.g. [display.defaults.text] theme = "neon"
	Defaults map[string]map[string]any `mapstructure:"defaults" toml:"defaults" json:"defaults" yaml:"defaults"`
	// PresetsDir is searched for marquee.presets.toml and presets/*.toml.
	// Empty means the user config directory.
	PresetsDir string `mapstructure:"presets_dir" toml:"presets_dir" json:"presets_dir" yaml:"presets_dir"`
}

// CacheConfig configures in-memory caches
type CacheConfig struct {
	QRTTLSeconds int `mapstructure:"qr_ttl_seconds" toml:"qr_ttl_seconds" json:"qr_ttl_seconds" yaml:"qr_ttl_seconds"` // 0 = never expire
}

// SessionConfig configures live display sessions over websocket
type SessionConfig struct {
	MaxMessagesPerSecond float64 `mapstructure:"max_messages_per_second" toml:"max_messages_per_second" json:"max_messages_per_second" yaml:"max_messages_per_second"`
	Burst                int     `mapstructure:"burst" toml:"burst" json:"burst" yaml:"burst"`
	PingIntervalSeconds  int     `mapstructure:"ping_interval_seconds" toml:"ping_interval_seconds" json:"ping_interval_seconds" yaml:"ping_interval_seconds"`
	PongTimeoutSeconds   int     `mapstructure:"pong_timeout_seconds" toml:"pong_timeout_seconds" json:"pong_timeout_seconds" yaml:"pong_timeout_seconds"`
	MaxMessageBytes      int64   `mapstructure:"max_message_bytes" toml:"max_message_bytes" json:"max_message_bytes" yaml:"max_message_bytes"`
}

// Server defaults
const (
	DefaultAddr                   = ":8787"
	DefaultReadTimeoutSeconds     = 15
	DefaultShutdownTimeoutSeconds = 10
)

// ProductDefaults converts [display.defaults] into per-product parameter maps.
// Keys go through alias resolution and values through the same coercion as
// query parameters, so "c" = "ff0000" and color = "ff0000" are equivalent.
// Unknown products are skipped.
func (c *Config) ProductDefaults() map[request.Product]param.Map {
	out := make(map[request.Product]param.Map, len(c.Display.Defaults))
	for name, values := range c.Display.Defaults {
		product := request.Product(strings.ToLower(name))
		if !product.Valid() {
			continue
		}
		m := make(param.Map, len(values))
		for k, v := range values {
			key := request.CanonicalKey(strings.ToLower(k))
			m[key] = coerceValue(key, v)
		}
		out[product] = m
	}
	return out
}

func coerceValue(key string, v any) any {
	switch t := v.(type) {
	case string:
		return request.Coerce(t, key)
	case bool:
		if request.IsStringKey(key) {
			return request.Coerce(boolString(t), key)
		}
		return t
	case int:
		return number(key, float64(t))
	case int64:
		return number(key, float64(t))
	case float64:
		return number(key, t)
	default:
		return request.Coerce(fmt.Sprint(v), key)
	}
}

func number(key string, f float64) any {
	if request.IsStringKey(key) {
		return param.Map{key: f}.String(key, "")
	}
	return f
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
