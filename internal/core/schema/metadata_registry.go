// Package schema provides model metadata, naming strategies and the schema
// file loader.
package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// MetadataRegistry stores model metadata for use by the compiler and the
// write path. It is safe for concurrent use.
type MetadataRegistry struct {
	mu     sync.RWMutex
	models map[string]*domain.Model
}

// NewMetadataRegistry creates an empty registry.
func NewMetadataRegistry() *MetadataRegistry {
	return &MetadataRegistry{
		models: make(map[string]*domain.Model),
	}
}

// Register adds or replaces models in the registry.
func (r *MetadataRegistry) Register(models ...*domain.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range models {
		if m == nil || m.Name == "" {
			return fmt.Errorf("model name cannot be empty")
		}
		r.models[m.Name] = m
	}
	return nil
}

// GetModel retrieves a model by name. Models can also be found by the last
// segment of a namespaced name.
func (r *MetadataRegistry) GetModel(name string) (*domain.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if model, ok := r.models[name]; ok {
		return model, nil
	}

	var found *domain.Model
	for _, m := range r.models {
		if domain.ShortName(m.Name) != name {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("model %s is ambiguous", name)
		}
		found = m
	}
	if found == nil {
		return nil, fmt.Errorf("model %s not found", name)
	}
	return found, nil
}

// GetProperty retrieves a property from a model.
func (r *MetadataRegistry) GetProperty(modelName, propertyName string) (*domain.Property, error) {
	model, err := r.GetModel(modelName)
	if err != nil {
		return nil, err
	}

	if p := model.Property(propertyName); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("property %s not found in model %s", propertyName, model.Name)
}

// Models returns all registered models sorted by name.
func (r *MetadataRegistry) Models() []*domain.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
