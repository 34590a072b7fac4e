// Package presets resolves named display shortcuts such as /p/lobby.
//
// A preset is a stored request: a path and a query string. Presets come from
// the [presets] table of marquee.toml, from a catalogue file
// (marquee.presets.toml) and from individual files in a presets/ directory.
package presets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/request"
)

// CatalogueFile is the catalogue file name looked up in a config directory.
const CatalogueFile = "marquee.presets.toml"

// Preset is a named request.
type Preset struct {
	Name        string `toml:"name" mapstructure:"name" json:"name"`
	Path        string `toml:"path" mapstructure:"path" json:"path"`
	Query       string `toml:"query" mapstructure:"query" json:"query,omitempty"`
	Description string `toml:"description" mapstructure:"description" json:"description,omitempty"`
}

// Catalogue is a concurrency-safe set of presets.
type Catalogue struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewCatalogue creates a catalogue holding presets.
func NewCatalogue(presets map[string]Preset) *Catalogue {
	c := &Catalogue{}
	c.Replace(presets)
	return c
}

// Replace swaps the whole catalogue. Keys name presets whose Name is empty.
func (c *Catalogue) Replace(presets map[string]Preset) {
	next := make(map[string]Preset, len(presets))
	for name, p := range presets {
		if p.Name == "" {
			p.Name = name
		}
		next[p.Name] = p
	}
	c.mu.Lock()
	c.presets = next
	c.mu.Unlock()
}

// Get returns a preset by name.
func (c *Catalogue) Get(name string) (Preset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.presets[name]
	return p, ok
}

// Names returns the preset names in sorted order.
func (c *Catalogue) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.presets))
	for name := range c.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns every preset sorted by name.
func (c *Catalogue) List() []Preset {
	names := c.Names()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Preset, 0, len(names))
	for _, name := range names {
		if p, ok := c.presets[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Expand resolves a preset into a parsed request. Parameters in rawQuery
// override the preset's own.
func (c *Catalogue) Expand(name, rawQuery string) (request.Parsed, param.Map, error) {
	p, ok := c.Get(name)
	if !ok {
		return request.Parsed{}, nil, errors.NewNotFoundError("preset %q", name)
	}
	parsed, base, err := request.Parse(p.Path, p.Query)
	if err != nil {
		return request.Parsed{}, nil, errors.Wrapf(err, "preset %s", name)
	}
	over, err := request.ParseQuery(rawQuery)
	if err != nil {
		return request.Parsed{}, nil, err
	}
	return parsed, base.Merge(over), nil
}

// Discover reads the catalogue file and presets/*.toml under dir. Missing
// files are not an error; a file that fails to parse is.
func Discover(dir string) (map[string]Preset, error) {
	found := make(map[string]Preset)

	catalogue := filepath.Join(dir, CatalogueFile)
	if data, err := os.ReadFile(catalogue); err == nil {
		var file struct {
			Presets map[string]Preset `toml:"presets"`
		}
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", catalogue)
		}
		for name, p := range file.Presets {
			if p.Name == "" {
				p.Name = name
			}
			found[p.Name] = p
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to read %s", catalogue)
	}

	presetsDir := filepath.Join(dir, "presets")
	entries, err := os.ReadDir(presetsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return found, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", presetsDir)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		file := filepath.Join(presetsDir, entry.Name())
		var p Preset
		if _, err := toml.DecodeFile(file, &p); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", file)
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(entry.Name(), ".toml")
		}
		found[p.Name] = p
	}
	return found, nil
}

// Merge combines preset sets; later sets win on name collisions.
func Merge(sets ...map[string]Preset) map[string]Preset {
	out := make(map[string]Preset)
	for _, set := range sets {
		for name, p := range set {
			if p.Name == "" {
				p.Name = name
			}
			out[p.Name] = p
		}
	}
	return out
}
