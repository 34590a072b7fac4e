package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.read_timeout_seconds", DefaultReadTimeoutSeconds)
	v.SetDefault("server.shutdown_timeout_seconds", DefaultShutdownTimeoutSeconds)

	// Display defaults
	v.SetDefault("display.title", "marquee")
	v.SetDefault("display.presets_dir", "")

	// Cache defaults
	v.SetDefault("cache.qr_ttl_seconds", 3600) // QR symbols are pure functions of their payload

	// Live session defaults
	v.SetDefault("session.max_messages_per_second", 5.0)
	v.SetDefault("session.burst", 10)
	v.SetDefault("session.ping_interval_seconds", 54) // must be shorter than the pong timeout
	v.SetDefault("session.pong_timeout_seconds", 60)
	v.SetDefault("session.max_message_bytes", 64*1024)
}
