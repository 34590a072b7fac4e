package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/teranos/marquee/errors"
)

// File names and locations searched by Load
const (
	FileName   = "marquee.toml"
	EnvPrefix  = "MARQUEE"
	SystemPath = "/etc/marquee/marquee.toml"
	UserDir    = ".marquee"
)

// DefaultDirPermissions for the user config directory
const DefaultDirPermissions = 0o755

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// explicitFile replaces the file cascade when set via UseFile
	explicitFile string

	// sources records which file set each flattened key during the last load
	sources map[string]SourceInfo
)

// Load reads the marquee configuration using Viper.
// Precedence (lowest to highest): defaults < system < user < project < MARQUEE_* env.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v, err := initViper()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() (*viper.Viper, error) {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
// Environment variables are not consulted.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// UseFile makes Load read only the given file (plus env vars) instead of
// the system/user/project cascade. An empty path restores the cascade.
func UseFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	explicitFile = path
	globalConfig = nil
	viperInstance = nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	sources = nil
}

// Files returns the config files Load would read, lowest precedence first.
// Files that do not exist are omitted.
func Files() []string {
	mu.Lock()
	defer mu.Unlock()

	var out []string
	for _, f := range candidateFiles() {
		if _, err := os.Stat(f.Path); err == nil {
			out = append(out, f.Path)
		}
	}
	return out
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold mu.
func initViper() (*viper.Viper, error) {
	if viperInstance != nil {
		return viperInstance, nil
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := mergeConfigFiles(v); err != nil {
		return nil, err
	}

	viperInstance = v
	return v, nil
}

type candidate struct {
	Source ConfigSource
	Path   string
}

func candidateFiles() []candidate {
	if explicitFile != "" {
		return []candidate{{Source: SourceFlag, Path: explicitFile}}
	}

	files := []candidate{{Source: SourceSystem, Path: SystemPath}}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, candidate{Source: SourceUser, Path: filepath.Join(home, UserDir, FileName)})
	}
	if project := findProjectConfig(); project != "" {
		files = append(files, candidate{Source: SourceProject, Path: project})
	}
	return files
}

// findProjectConfig walks up from the working directory looking for marquee.toml.
// Returns an empty string when none is found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges the candidate files in precedence order.
// MergeConfigMap keeps values in viper's config layer, so env vars still win.
func mergeConfigFiles(v *viper.Viper) error {
	sources = make(map[string]SourceInfo)

	for _, c := range candidateFiles() {
		if _, err := os.Stat(c.Path); err != nil {
			if c.Source == SourceFlag {
				return errors.Wrapf(err, "config file %s", c.Path)
			}
			continue
		}

		tmp := viper.New()
		tmp.SetConfigFile(c.Path)
		tmp.SetConfigType("toml")
		if err := tmp.ReadInConfig(); err != nil {
			return errors.WithHint(
				errors.Wrapf(err, "failed to read config file %s", c.Path),
				"run 'marquee config validate' after fixing the file")
		}

		settings := tmp.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			return errors.Wrapf(err, "failed to merge config file %s", c.Path)
		}
		markSettingsFromSource(settings, "", SourceInfo{Source: c.Source, Path: c.Path})

		v.SetConfigFile(c.Path) // highest-precedence file wins ConfigFileUsed
	}
	return nil
}

// markSettingsFromSource records src for every leaf key in settings
func markSettingsFromSource(settings map[string]any, prefix string, src SourceInfo) {
	for key, value := range settings {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			markSettingsFromSource(nested, full, src)
			continue
		}
		sources[full] = src
	}
}
