package models

import (
	"time"
)

// SchemaDefinition is the aggregate root: a versioned definition of a
// call record's field structure and derived relationships.
type SchemaDefinition struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"` // semantic major.minor.patch

	// BusinessContext is free text used only as LLM prompt context.
	BusinessContext string `json:"business_context"`

	Fields        []Field        `json:"fields"`
	Relationships []Relationship `json:"relationships,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FieldByID returns the field with the given id, or nil.
func (s *SchemaDefinition) FieldByID(id string) *Field {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

// HasField reports whether a field with the given id exists.
func (s *SchemaDefinition) HasField(id string) bool {
	return s.FieldByID(id) != nil
}

// FieldsByRole returns all fields tagged with the given semantic role.
func (s *SchemaDefinition) FieldsByRole(role SemanticRole) []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.SemanticRole == role {
			out = append(out, f)
		}
	}
	return out
}

// ComputedRelationships returns the relationships that produce values
// during row mapping.
func (s *SchemaDefinition) ComputedRelationships() []Relationship {
	var out []Relationship
	for _, r := range s.Relationships {
		if r.IsComputed() {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of the schema definition.
func (s *SchemaDefinition) Clone() *SchemaDefinition {
	cp := *s
	cp.Fields = make([]Field, len(s.Fields))
	copy(cp.Fields, s.Fields)
	for i := range cp.Fields {
		if len(s.Fields[i].SelectOptions) > 0 {
			cp.Fields[i].SelectOptions = append([]string(nil), s.Fields[i].SelectOptions...)
		}
		if len(s.Fields[i].SourceColumns) > 0 {
			cp.Fields[i].SourceColumns = append([]string(nil), s.Fields[i].SourceColumns...)
		}
		if s.Fields[i].DependsOn != nil {
			dep := *s.Fields[i].DependsOn
			cp.Fields[i].DependsOn = &dep
		}
	}
	cp.Relationships = make([]Relationship, len(s.Relationships))
	copy(cp.Relationships, s.Relationships)
	for i := range cp.Relationships {
		if len(s.Relationships[i].InvolvedFields) > 0 {
			cp.Relationships[i].InvolvedFields = append([]string(nil), s.Relationships[i].InvolvedFields...)
		}
	}
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}
