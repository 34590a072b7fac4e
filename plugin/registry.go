package plugin

import (
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/param"
)

// Registry holds the effects of one product by id
type Registry[E any] struct {
	mu      sync.RWMutex
	plugins map[string]Plugin[E]
	version string // plugin API version
	log     *zap.SugaredLogger
}

// NewRegistry creates an empty registry checked against APIVersion
func NewRegistry[E any](log *zap.SugaredLogger) *Registry[E] {
	return NewRegistryWithVersion[E](APIVersion, log)
}

// NewRegistryWithVersion creates an empty registry checked against apiVersion
func NewRegistryWithVersion[E any](apiVersion string, log *zap.SugaredLogger) *Registry[E] {
	if log == nil {
		log = logger.Logger
	}
	return &Registry[E]{
		plugins: make(map[string]Plugin[E]),
		version: apiVersion,
		log:     log,
	}
}

// Register adds an effect.
// An effect without an id is rejected with ErrMissingID. Registering an id
// that already exists replaces the previous effect.
func (r *Registry[E]) Register(p Plugin[E]) error {
	if p == nil || p.ID() == "" {
		r.log.Errorw("Rejected effect without id")
		return errors.WithStack(errors.ErrMissingID)
	}
	id := p.ID()

	if v, ok := p.(Versioned); ok {
		if err := r.validateVersion(v.Requires()); err != nil {
			r.log.Errorw("Rejected incompatible effect",
				logger.FieldEffect, id,
				logger.FieldError, err,
			)
			return errors.Wrapf(err, "register %s", id)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[id]; exists {
		r.log.Debugw("Replacing registered effect", logger.FieldEffect, id)
	}
	r.plugins[id] = p
	return nil
}

// MustRegister registers every effect and panics on the first failure.
// Intended for built-in effects wired at startup.
func (r *Registry[E]) MustRegister(plugins ...Plugin[E]) {
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// Get retrieves an effect by id
func (r *Registry[E]) Get(id string) (Plugin[E], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// Resolve returns the effect for id, falling back to DefaultID.
// fallback reports whether the default was used.
func (r *Registry[E]) Resolve(id string) (p Plugin[E], fallback bool, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.plugins[id]; ok {
		return p, false, nil
	}
	if p, ok := r.plugins[DefaultID]; ok {
		return p, true, nil
	}
	return nil, false, errors.Wrapf(errors.ErrPluginNotFound, "resolve %q", id)
}

// List returns all registered ids in sorted order
func (r *Registry[E]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether id is registered
func (r *Registry[E]) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Defaults returns a copy of the declared defaults of id, or nil if unknown
func (r *Registry[E]) Defaults(id string) param.Map {
	p, ok := r.Get(id)
	if !ok {
		return nil
	}
	d := p.Defaults().Clone()
	if d == nil {
		d = param.Map{}
	}
	return d
}

// Description returns the summary of a Described effect, or ""
func (r *Registry[E]) Description(id string) string {
	p, ok := r.Get(id)
	if !ok {
		return ""
	}
	if d, ok := p.(Described); ok {
		return d.Description()
	}
	return ""
}

// Len returns the number of registered effects
func (r *Registry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// validateVersion checks an effect's constraint against the registry API version
func (r *Registry[E]) validateVersion(constraint string) error {
	if constraint == "" {
		return nil
	}

	apiVer, err := semver.NewVersion(r.version)
	if err != nil {
		return errors.Wrapf(err, "invalid plugin API version %s", r.version)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "invalid version constraint %s", constraint), errors.ErrIncompatible)
	}

	if !c.Check(apiVer) {
		return errors.Wrapf(errors.ErrIncompatible, "requires plugin API %s, running %s", constraint, r.version)
	}
	return nil
}
