package config

import (
	"encoding/json"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/teranos/marquee/errors"
	"gopkg.in/yaml.v3"
)

// Formats accepted by Marshal
var Formats = []string{"toml", "json", "yaml"}

// Marshal renders cfg as toml, json or yaml
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config as JSON")
		}
		return append(data, '\n'), nil

	case "yaml", "yml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config as YAML")
		}
		return data, nil

	case "toml", "":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config as TOML")
		}
		return append([]byte("# marquee configuration\n\n"), data...), nil

	default:
		return nil, errors.WithHintf(
			errors.Newf("unknown format %q", format),
			"use one of: %s", strings.Join(Formats, ", "))
	}
}
