package score

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Names of the models the services look up.
const (
	UnsafeZoneModel = "unsafe-zone"
	SosRiskModel    = "sos-risk"
)

// ErrUnknownModel is returned by Get for names that were never registered.
var ErrUnknownModel = errors.New("unknown model")

// Factory constructs a scorer on first use.
type Factory func() (Scorer, error)

// ModelInfo describes a registered model.
type ModelInfo struct {
	Name      string `json:"name"`
	ClassName string `json:"className"`
	Loaded    bool   `json:"loaded"`
}

type entry struct {
	factory   Factory
	scorer    Scorer
	err       error
	className string
	once      sync.Once
	loaded    atomic.Bool
}

// Registry hands out lazily constructed scorers.
// Each factory runs at most once, even under concurrent first use.
type Registry struct {
	entries map[string]*entry
	mu      sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// DefaultRegistry registers the built-in placeholder models.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(UnsafeZoneModel, "LogisticModel", func() (Scorer, error) {
		return NewLogisticModel(), nil
	})
	r.Register(SosRiskModel, "ForestModel", func() (Scorer, error) {
		return NewForestModel(), nil
	})
	return r
}

// Register adds or replaces a named factory. Replacing an entry discards any
// scorer it had already built.
func (r *Registry) Register(name, className string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = &entry{factory: f, className: className}
}

// Get returns the scorer registered under name, building it on first call.
// A factory error is remembered and returned on every later call.
func (r *Registry) Get(name string) (Scorer, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}

	e.once.Do(func() {
		e.scorer, e.err = e.factory()
		if e.err == nil && e.scorer == nil {
			e.err = fmt.Errorf("model %s: factory returned nil scorer", name)
		}
		e.loaded.Store(e.err == nil)

		if e.err != nil {
			log.Error().Err(e.err).Str("model", name).Msg("Failed to initialize scorer")
			return
		}
		log.Debug().Str("model", name).Str("class", e.className).Msg("Scorer initialized")
	})

	return e.scorer, e.err
}

// List returns the registered models sorted by name.
func (r *Registry) List() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModelInfo, 0, len(r.entries))
	for name, e := range r.entries {
		out = append(out, ModelInfo{Name: name, ClassName: e.className, Loaded: e.loaded.Load()})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out
}
