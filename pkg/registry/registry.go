// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "uni-directory/internal/common/errors"
	"uni-directory/internal/common/validation"
)

// Collection names the registry knows about.
const (
	CollectionProgrammes   = "programmes"
	CollectionUniversities = "universities"
)

var schema = validation.MustCompile("filter-registry", registrySchema)

// Default returns the built-in registry.
func Default() *FilterRegistry {
	return &FilterRegistry{
		Version:     "1.0.0",
		LastUpdated: "2024-01-01T00:00:00Z",
		Fields: []FilterField{
			{
				Key:             "university",
				DisplayName:     "University",
				Collection:      CollectionProgrammes,
				Source:          SourceCollection,
				AllLabel:        "All Universities",
				ValueCollection: CollectionUniversities,
			},
			{
				Key:         "award_level",
				DisplayName: "Award Level",
				Collection:  CollectionProgrammes,
				Source:      SourceStatic,
				AllLabel:    "All Levels",
				Values:      []string{"Bachelor", "Diploma", "Certificate", "Masters", "Postgraduate Diploma", "Doctorate"},
			},
			{
				Key:         "study_mode",
				DisplayName: "Study Mode",
				Collection:  CollectionProgrammes,
				Source:      SourceStatic,
				AllLabel:    "All Modes",
				Values:      []string{"Full Time", "Part Time", "Online", "Distance Learning"},
			},
			{
				Key:         "head_office",
				DisplayName: "Region",
				Collection:  CollectionUniversities,
				Source:      SourceDerived,
				AllLabel:    "All Regions",
			},
			{
				Key:         "university_type",
				DisplayName: "Type",
				Collection:  CollectionUniversities,
				Source:      SourceDerived,
				AllLabel:    "All Types",
			},
		},
	}
}

// LoadRegistry reads and validates a registry file.
func LoadRegistry(path string) (*FilterRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadOrDefault loads path when set and falls back to Default otherwise.
func LoadOrDefault(path string) (*FilterRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadRegistry(path)
}

// Parse decodes and validates a registry document.
func Parse(data []byte) (*FilterRegistry, error) {
	result, err := schema.ValidateBytes(data)
	if err != nil {
		return nil, apperrors.NewRegistryInvalidError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewRegistryInvalidError(result.Summary())
	}
	var reg FilterRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, apperrors.NewRegistryInvalidError(err.Error())
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks the rules the schema cannot express.
func (r *FilterRegistry) Validate() error {
	result, err := schema.ValidateValue(r)
	if err != nil {
		return apperrors.NewRegistryInvalidError(err.Error())
	}
	if !result.Valid {
		return apperrors.NewRegistryInvalidError(result.Summary())
	}

	seen := make(map[string]bool)
	for _, f := range r.Fields {
		id := f.Collection + "/" + f.Key
		if seen[id] {
			return apperrors.NewRegistryInvalidError(fmt.Sprintf("duplicate field %s", id))
		}
		seen[id] = true

		switch f.Source {
		case SourceStatic:
			if len(f.Values) == 0 {
				return apperrors.NewRegistryInvalidError(fmt.Sprintf("static field %s has no values", id))
			}
		case SourceCollection:
			if f.ValueCollection == "" {
				return apperrors.NewRegistryInvalidError(fmt.Sprintf("field %s needs a valueCollection", id))
			}
		}
	}
	return nil
}

// Field looks up a field of a collection.
func (r *FilterRegistry) Field(collection, key string) (FilterField, bool) {
	for _, f := range r.Fields {
		if f.Collection == collection && f.Key == key {
			return f, true
		}
	}
	return FilterField{}, false
}

// Keys lists the filter keys of a collection in registry order.
func (r *FilterRegistry) Keys(collection string) []string {
	var keys []string
	for _, f := range r.Fields {
		if f.Collection == collection {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Values returns the static values of a field, nil for dynamic fields.
func (r *FilterRegistry) Values(collection, key string) []string {
	f, ok := r.Field(collection, key)
	if !ok || f.Source != SourceStatic {
		return nil
	}
	out := make([]string, len(f.Values))
	copy(out, f.Values)
	return out
}

// AddField appends a field. It fails on a duplicate.
func (r *FilterRegistry) AddField(f FilterField) error {
	if _, exists := r.Field(f.Collection, f.Key); exists {
		return fmt.Errorf("field %s/%s already exists", f.Collection, f.Key)
	}
	r.Fields = append(r.Fields, f)
	r.touch()
	return nil
}

// SetValues replaces the values of a static field.
func (r *FilterRegistry) SetValues(collection, key string, values []string) error {
	for i := range r.Fields {
		if r.Fields[i].Collection == collection && r.Fields[i].Key == key {
			if r.Fields[i].Source != SourceStatic {
				return fmt.Errorf("field %s/%s is not static", collection, key)
			}
			r.Fields[i].Values = values
			r.touch()
			return nil
		}
	}
	return fmt.Errorf("field %s/%s not found", collection, key)
}

// Save validates r and writes it as indented JSON.
func (r *FilterRegistry) Save(path string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func (r *FilterRegistry) touch() {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}
