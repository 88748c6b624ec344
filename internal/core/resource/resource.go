// Package resource defines how the adapter reads and writes caller domain
// objects.
package resource

import (
	"fmt"
	"sort"
	"sync"

	"github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// Attribute is a property with a pending value.
type Attribute struct {
	Property *domain.Property
	Value    any
}

// Resource is a domain object managed by the adapter.
type Resource interface {
	// Model returns the model the resource belongs to.
	Model() *domain.Model

	// DirtyAttributes returns the attributes changed since the resource was
	// loaded or created, in property declaration order.
	DirtyAttributes() []Attribute

	// Set assigns a property value.
	Set(prop *domain.Property, value any)

	// Get returns a property value.
	Get(prop *domain.Property) any

	// AddFieldError attaches a field-level error.
	AddFieldError(field, message string)

	// FieldErrors returns every attached error keyed by field.
	FieldErrors() map[string][]string
}

// IdentityMap finds an already loaded resource by key.
type IdentityMap interface {
	Lookup(model *domain.Model, key any) (Resource, bool)
}

// Record is a map-backed Resource with dirty tracking.
type Record struct {
	mu     sync.RWMutex
	model  *domain.Model
	values map[*domain.Property]any
	dirty  map[*domain.Property]bool
	errors map[string][]string
}

// NewRecord creates an empty record of model.
func NewRecord(model *domain.Model) *Record {
	return &Record{
		model:  model,
		values: make(map[*domain.Property]any),
		dirty:  make(map[*domain.Property]bool),
		errors: make(map[string][]string),
	}
}

// NewRecordFrom creates a record with values assigned by property name.
// Unknown names are ignored.
func NewRecordFrom(model *domain.Model, values map[string]any) *Record {
	r := NewRecord(model)
	for name, v := range values {
		if p := model.Property(name); p != nil {
			r.Set(p, v)
		}
	}
	return r
}

// Model implements Resource.
func (r *Record) Model() *domain.Model {
	return r.model
}

// DirtyAttributes implements Resource.
func (r *Record) DirtyAttributes() []Attribute {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var attrs []Attribute
	for _, p := range r.model.Properties {
		if r.dirty[p] {
			attrs = append(attrs, Attribute{Property: p, Value: r.values[p]})
		}
	}
	return attrs
}

// Set implements Resource.
func (r *Record) Set(prop *domain.Property, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[prop] = value
	r.dirty[prop] = true
}

// Get implements Resource.
func (r *Record) Get(prop *domain.Property) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[prop]
}

// Clean marks every attribute as persisted.
func (r *Record) Clean() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = make(map[*domain.Property]bool)
}

// AddFieldError implements Resource.
func (r *Record) AddFieldError(field, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[field] = append(r.errors[field], message)
}

// FieldErrors implements Resource.
func (r *Record) FieldErrors() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.errors))
	for k, v := range r.errors {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Valid reports whether no field error is attached.
func (r *Record) Valid() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.errors) == 0
}

// Values returns the property values keyed by property name.
func (r *Record) Values() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any, len(r.values))
	for p, v := range r.values {
		out[p.Name] = v
	}
	return out
}

// ErrorFields returns the names of fields carrying errors, sorted.
func (r *Record) ErrorFields() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make([]string, 0, len(r.errors))
	for f := range r.errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

type identityKey struct {
	model string
	key   string
}

// MemoryIdentityMap is an in-process IdentityMap keyed by model name and the
// resource's key value.
type MemoryIdentityMap struct {
	mu        sync.RWMutex
	resources map[identityKey]Resource
}

// NewMemoryIdentityMap creates an empty identity map.
func NewMemoryIdentityMap() *MemoryIdentityMap {
	return &MemoryIdentityMap{resources: make(map[identityKey]Resource)}
}

// Put registers resources under their current key value. Resources without a
// key property or key value are skipped.
func (m *MemoryIdentityMap) Put(resources ...Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, res := range resources {
		model := res.Model()
		keyProp := model.KeyProperty()
		if keyProp == nil {
			continue
		}
		key := domain.NormalizeID(keyProp, res.Get(keyProp))
		if key == nil {
			continue
		}
		m.resources[identityKey{model: model.Name, key: fmt.Sprint(key)}] = res
	}
}

// Load returns the resource registered for the key in values, or registers a
// clean record built from values. A resource already in the map is returned
// unchanged so callers keep one instance per remote record.
func (m *MemoryIdentityMap) Load(model *domain.Model, values map[*domain.Property]any) Resource {
	keyProp := model.KeyProperty()
	var key any
	if keyProp != nil {
		key = domain.NormalizeID(keyProp, values[keyProp])
	}

	build := func() Resource {
		r := NewRecord(model)
		for p, v := range values {
			r.Set(p, v)
		}
		r.Clean()
		return r
	}
	if key == nil {
		return build()
	}

	id := identityKey{model: model.Name, key: fmt.Sprint(key)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if res, ok := m.resources[id]; ok {
		return res
	}
	res := build()
	m.resources[id] = res
	return res
}

// Lookup implements IdentityMap.
func (m *MemoryIdentityMap) Lookup(model *domain.Model, key any) (Resource, bool) {
	if keyProp := model.KeyProperty(); keyProp != nil {
		key = domain.NormalizeID(keyProp, key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.resources[identityKey{model: model.Name, key: fmt.Sprint(key)}]
	return res, ok
}

// Len returns the number of registered resources.
func (m *MemoryIdentityMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.resources)
}

var (
	_ Resource    = (*Record)(nil)
	_ IdentityMap = (*MemoryIdentityMap)(nil)
)
