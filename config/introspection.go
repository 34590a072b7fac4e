package config

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/marquee/marquee.toml
	SourceUser        ConfigSource = "user"        // ~/.marquee/marquee.toml
	SourceProject     ConfigSource = "project"     // nearest marquee.toml above the working directory
	SourceFlag        ConfigSource = "flag"        // --config
	SourceEnvironment ConfigSource = "environment" // MARQUEE_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource `json:"source"`
	Path   string       `json:"path,omitempty"` // file path or env var name
}

// SettingInfo is one effective setting with its origin
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      any          `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// Introspection describes the active configuration
type Introspection struct {
	ConfigFile string        `json:"config_file"`
	Settings   []SettingInfo `json:"settings"`
}

// Introspect returns every effective setting and where it came from
func Introspect() (*Introspection, error) {
	v, err := GetViper()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	tracked := make(map[string]SourceInfo, len(sources))
	for k, s := range sources {
		tracked[k] = s
	}
	mu.Unlock()

	out := &Introspection{ConfigFile: v.ConfigFileUsed()}
	flattenSettings(v.AllSettings(), "", out, tracked)
	return out, nil
}

func flattenSettings(settings map[string]any, prefix string, out *Introspection, tracked map[string]SourceInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			flattenSettings(nested, full, out, tracked)
			continue
		}

		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := tracked[full]; ok {
			info = si
		}
		if env := EnvKey(full); os.Getenv(env) != "" {
			info = SourceInfo{Source: SourceEnvironment, Path: env}
		}

		out.Settings = append(out.Settings, SettingInfo{
			Key:        full,
			Value:      value,
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
}

// EnvKey returns the environment variable that overrides a dotted key
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
