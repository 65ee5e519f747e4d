package domain

import (
	"fmt"
	"strings"
)

// FieldType is the search-engine type of a document field.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldKeyword FieldType = "keyword"
	FieldInteger FieldType = "integer"
	FieldFloat   FieldType = "float"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
)

// IsValid reports whether t is a known field type.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldText, FieldKeyword, FieldInteger, FieldFloat, FieldDate, FieldBoolean:
		return true
	}
	return false
}

// FieldDefinition describes one projected field of a model.
type FieldDefinition struct {
	Name string
	Type FieldType
}

// ModelDefinition describes a store table and how it maps into an index.
type ModelDefinition struct {
	// Name is the model name used by --objects, matched case-insensitively.
	Name string

	// Table is the store table holding the records.
	Table string

	// PrimaryKey is the column used as document ID and for key windows.
	PrimaryKey string

	// Index is the owning index name.
	Index string

	// Fields are projected into documents. Empty means every column.
	Fields []FieldDefinition
}

// IndexDefinition describes a search-engine index.
type IndexDefinition struct {
	Name     string
	App      string
	Shards   int
	Replicas int
	Models   []ModelDefinition
}

// Fields returns the union of field definitions across the index's models,
// first definition wins.
func (d IndexDefinition) Fields() []FieldDefinition {
	seen := make(map[string]bool)
	var fields []FieldDefinition
	for _, m := range d.Models {
		for _, f := range m.Fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			fields = append(fields, f)
		}
	}
	return fields
}

// Registry is the registration table of indices and models, built once
// at startup and queried by plain lookups afterwards.
type Registry struct {
	indices []IndexDefinition
	byIndex map[string]int
	byModel map[string]ModelDefinition
	models  []ModelDefinition
}

// NewRegistry validates the definitions and builds lookup tables.
// Model names must be unique case-insensitively, index names exactly.
func NewRegistry(indices []IndexDefinition) (*Registry, error) {
	r := &Registry{
		byIndex: make(map[string]int, len(indices)),
		byModel: make(map[string]ModelDefinition),
	}
	for _, idx := range indices {
		if idx.Name == "" {
			return nil, fmt.Errorf("%w: index without a name", ErrInvalidInput)
		}
		if _, dup := r.byIndex[idx.Name]; dup {
			return nil, fmt.Errorf("%w: index %q registered twice", ErrAlreadyExists, idx.Name)
		}
		if len(idx.Models) == 0 {
			return nil, fmt.Errorf("%w: index %q has no models", ErrInvalidInput, idx.Name)
		}
		models := make([]ModelDefinition, len(idx.Models))
		for i, m := range idx.Models {
			if m.Name == "" || m.Table == "" {
				return nil, fmt.Errorf("%w: model in index %q needs a name and a table", ErrInvalidInput, idx.Name)
			}
			key := strings.ToLower(m.Name)
			if _, dup := r.byModel[key]; dup {
				return nil, fmt.Errorf("%w: model %q registered twice", ErrAlreadyExists, m.Name)
			}
			for _, f := range m.Fields {
				if !f.Type.IsValid() {
					return nil, fmt.Errorf("%w: field %s.%s has unknown type %q", ErrInvalidInput, m.Name, f.Name, f.Type)
				}
			}
			if m.PrimaryKey == "" {
				m.PrimaryKey = "id"
			}
			m.Index = idx.Name
			models[i] = m
			r.byModel[key] = m
			r.models = append(r.models, m)
		}
		idx.Models = models
		r.byIndex[idx.Name] = len(r.indices)
		r.indices = append(r.indices, idx)
	}
	return r, nil
}

// Indices returns all indices in registration order.
func (r *Registry) Indices() []IndexDefinition {
	out := make([]IndexDefinition, len(r.indices))
	copy(out, r.indices)
	return out
}

// Models returns all models in registration order.
func (r *Registry) Models() []ModelDefinition {
	out := make([]ModelDefinition, len(r.models))
	copy(out, r.models)
	return out
}

// Index returns the index with the exact name.
func (r *Registry) Index(name string) (IndexDefinition, bool) {
	i, ok := r.byIndex[name]
	if !ok {
		return IndexDefinition{}, false
	}
	return r.indices[i], true
}

// Model returns the model matching name case-insensitively.
func (r *Registry) Model(name string) (ModelDefinition, bool) {
	m, ok := r.byModel[strings.ToLower(name)]
	return m, ok
}

// IndexNames returns index names in registration order.
func (r *Registry) IndexNames() []string {
	names := make([]string, len(r.indices))
	for i, idx := range r.indices {
		names[i] = idx.Name
	}
	return names
}

// ModelNames returns lower-cased model names in registration order.
func (r *Registry) ModelNames() []string {
	names := make([]string, len(r.models))
	for i, m := range r.models {
		names[i] = strings.ToLower(m.Name)
	}
	return names
}
