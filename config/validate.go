package config

import (
	"net"
	"strings"

	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/request"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "server.addr %q", c.Server.Addr),
			"use host:port or :port, e.g. \":8787\"")
	}
	if c.Server.ReadTimeoutSeconds < 0 {
		return errors.Newf("server.read_timeout_seconds must be >= 0, got %d", c.Server.ReadTimeoutSeconds)
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		return errors.Newf("server.shutdown_timeout_seconds must be >= 0, got %d", c.Server.ShutdownTimeoutSeconds)
	}

	// Unknown products would be silently ignored at render time
	for name := range c.Display.Defaults {
		if !request.Product(strings.ToLower(name)).Valid() {
			return errors.WithHintf(
				errors.Newf("display.defaults.%s: unknown product", name),
				"known products: %s", strings.Join(productNames(), ", "))
		}
	}

	for name, p := range c.Presets {
		if p.Path == "" {
			return errors.Newf("presets.%s.path cannot be empty", name)
		}
	}

	// 0 = never expire
	if c.Cache.QRTTLSeconds < 0 {
		return errors.Newf("cache.qr_ttl_seconds must be >= 0, got %d", c.Cache.QRTTLSeconds)
	}

	if c.Session.MaxMessagesPerSecond <= 0 {
		return errors.Newf("session.max_messages_per_second must be > 0, got %g", c.Session.MaxMessagesPerSecond)
	}
	if c.Session.Burst < 1 {
		return errors.Newf("session.burst must be >= 1, got %d", c.Session.Burst)
	}
	if c.Session.PongTimeoutSeconds <= 0 {
		return errors.Newf("session.pong_timeout_seconds must be > 0, got %d", c.Session.PongTimeoutSeconds)
	}
	if c.Session.PingIntervalSeconds <= 0 || c.Session.PingIntervalSeconds >= c.Session.PongTimeoutSeconds {
		return errors.Newf("session.ping_interval_seconds must be in (0, %d), got %d",
			c.Session.PongTimeoutSeconds, c.Session.PingIntervalSeconds)
	}
	if c.Session.MaxMessageBytes <= 0 {
		return errors.Newf("session.max_message_bytes must be > 0, got %d", c.Session.MaxMessageBytes)
	}

	return nil
}

func productNames() []string {
	names := make([]string, 0, len(request.Products))
	for _, p := range request.Products {
		names = append(names, string(p))
	}
	return names
}
