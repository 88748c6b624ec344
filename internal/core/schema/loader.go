package schema

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

type fileSchema struct {
	Models []fileModel `yaml:"models"`
}

type fileModel struct {
	Name       string         `yaml:"name"`
	Storage    string         `yaml:"storage"`
	Properties []fileProperty `yaml:"properties"`
}

type fileProperty struct {
	Name       string `yaml:"name"`
	Field      string `yaml:"field"`
	Type       string `yaml:"type"`
	Key        bool   `yaml:"key"`
	Serial     bool   `yaml:"serial"`
	ExternalID bool   `yaml:"external_id"`
	Required   bool   `yaml:"required"`
	Unique     bool   `yaml:"unique"`
}

var knownTypes = map[domain.PropertyType]bool{
	domain.TypeString:   true,
	domain.TypeInteger:  true,
	domain.TypeFloat:    true,
	domain.TypeBoolean:  true,
	domain.TypeDate:     true,
	domain.TypeDateTime: true,
	domain.TypeID:       true,
}

// LoadFile reads a YAML schema file into a new registry.
func LoadFile(fs afero.Fs, path string) (*MetadataRegistry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}

	models, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}

	registry := NewMetadataRegistry()
	if err := registry.Register(models...); err != nil {
		return nil, err
	}
	return registry, nil
}

// Parse decodes YAML schema content into models.
func Parse(data []byte) ([]*domain.Model, error) {
	var raw fileSchema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	seen := make(map[string]bool)
	models := make([]*domain.Model, 0, len(raw.Models))
	for _, fm := range raw.Models {
		if fm.Name == "" {
			return nil, fmt.Errorf("model name cannot be empty")
		}
		if seen[fm.Name] {
			return nil, fmt.Errorf("duplicate model %s", fm.Name)
		}
		seen[fm.Name] = true

		model := &domain.Model{Name: fm.Name, StorageName: fm.Storage}
		props := make(map[string]bool)
		for _, fp := range fm.Properties {
			if fp.Name == "" {
				return nil, fmt.Errorf("model %s: property name cannot be empty", fm.Name)
			}
			if props[fp.Name] {
				return nil, fmt.Errorf("model %s: duplicate property %s", fm.Name, fp.Name)
			}
			props[fp.Name] = true

			typ := domain.PropertyType(fp.Type)
			if typ == "" {
				typ = domain.TypeString
			}
			if !knownTypes[typ] {
				return nil, fmt.Errorf("model %s: property %s has unknown type %q", fm.Name, fp.Name, fp.Type)
			}

			model.Properties = append(model.Properties, &domain.Property{
				Name:       fp.Name,
				Field:      fp.Field,
				Type:       typ,
				Key:        fp.Key,
				Serial:     fp.Serial,
				ExternalID: fp.ExternalID,
				Required:   fp.Required,
				Unique:     fp.Unique,
			})
		}
		models = append(models, model)
	}
	return models, nil
}
