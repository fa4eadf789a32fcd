package indicator

import (
	"regexp"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Registry holds indicator specs and resolves their computation order.
// Registration happens once at process or worker start; lookups afterwards
// are read-only, so a single registry may be shared across workers.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
	// order records registration sequence for deterministic tie-breaking.
	order []string
}

// NewRegistry creates an empty indicator registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]Spec),
		order: nil,
	}
}

// Register adds a spec to the registry. The spec name must be unique, match
// the lowercase_underscore convention, and carry a valid semantic version.
func (r *Registry) Register(spec Spec) error {
	if !nameRe.MatchString(spec.Name) {
		return errors.Newf(errors.ErrCodeInvalidIndicatorName,
			"indicator name %q must be lowercase letters, digits and underscores", spec.Name)
	}

	if spec.Compute == nil {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %q has no compute function", spec.Name)
	}

	if len(spec.Provides) == 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "indicator %q provides no columns", spec.Name)
	}

	if _, err := semver.NewVersion(spec.Version); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "indicator %q has invalid version %q", spec.Name, spec.Version)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[spec.Name]; exists {
		return errors.Newf(errors.ErrCodeDuplicateIndicator, "indicator %q already registered", spec.Name)
	}

	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)

	return nil
}

// Get retrieves a spec by name.
func (r *Registry) Get(name string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, exists := r.specs[name]
	if !exists {
		return Spec{}, errors.Newf(errors.ErrCodeUnknownIndicator, "indicator %q not registered", name)
	}

	return spec, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.specs[name]

	return exists
}

// List returns all registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)

	return names
}

// ResolveOrder returns a topological execution order covering the requested
// indicators and all their transitive dependencies. Dependencies on core
// dataset columns are always satisfied and do not appear in the output.
// Ties between independent indicators break by registration order, so the
// result is stable across runs.
func (r *Registry) ResolveOrder(requested []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Collect the transitive closure of the requested names.
	closure := make(map[string]bool)

	var visit func(name string) error

	visit = func(name string) error {
		if closure[name] {
			return nil
		}

		spec, exists := r.specs[name]
		if !exists {
			return errors.Newf(errors.ErrCodeUnknownIndicator, "indicator %q not registered", name)
		}

		closure[name] = true

		for _, dep := range spec.Requires {
			if types.IsCoreColumn(dep) {
				continue
			}

			if err := visit(dep); err != nil {
				return err
			}
		}

		return nil
	}

	for _, name := range requested {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	// Kahn's algorithm over the closure. Each round picks every node whose
	// dependencies are satisfied, scanning in registration order for
	// deterministic tie-breaking.
	indegree := make(map[string]int, len(closure))

	for name := range closure {
		count := 0

		for _, dep := range r.specs[name].Requires {
			if closure[dep] {
				count++
			}
		}

		indegree[name] = count
	}

	resolved := make([]string, 0, len(closure))
	done := make(map[string]bool, len(closure))

	for len(resolved) < len(closure) {
		progressed := false

		for _, name := range r.order {
			if !closure[name] || done[name] || indegree[name] != 0 {
				continue
			}

			resolved = append(resolved, name)
			done[name] = true
			progressed = true

			for other := range closure {
				if done[other] {
					continue
				}

				for _, dep := range r.specs[other].Requires {
					if dep == name {
						indegree[other]--
					}
				}
			}
		}

		if !progressed {
			return nil, errors.Newf(errors.ErrCodeDependencyCycle,
				"indicator requirement graph contains a cycle among %d unresolved indicators", len(closure)-len(resolved))
		}
	}

	return resolved, nil
}
