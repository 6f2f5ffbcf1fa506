package services

import (
	"fmt"

	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

// ValidationResult accumulates every problem found in a schema so a
// caller can surface them all at once. Errors make the schema unusable;
// warnings never block.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// SchemaValidator checks structural invariants over a schema definition.
// Validation is a pure structural inspection: no I/O, deterministic for
// the same input. It runs before every persistence-affecting store
// operation and before accepting an import.
type SchemaValidator interface {
	// Validate checks the full schema.
	Validate(schema *models.SchemaDefinition) *ValidationResult

	// ValidateSemanticRoles checks only the role-cardinality invariant,
	// for authoring flows that hold a field list but no full schema yet.
	ValidateSemanticRoles(fields []models.Field) *ValidationResult
}

type schemaValidator struct{}

// NewSchemaValidator creates a validator.
func NewSchemaValidator() SchemaValidator {
	return &schemaValidator{}
}

var _ SchemaValidator = (*schemaValidator)(nil)

// Validate checks identity fields, field structure, role cardinality,
// uniqueness, and relationship referential integrity.
func (v *schemaValidator) Validate(schema *models.SchemaDefinition) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if schema.ID == "" {
		result.addError("schema is missing an id")
	}
	if schema.Name == "" {
		result.addError("schema is missing a name")
	}
	if schema.Version == "" {
		result.addError("schema is missing a version")
	}
	if schema.BusinessContext == "" {
		result.addError("schema is missing a business context description")
	}

	if len(schema.Fields) == 0 {
		result.addError("schema has no fields defined")
		return result
	}

	v.checkFields(schema.Fields, result)
	v.checkRoles(schema.Fields, result)
	v.checkRelationships(schema, result)

	return result
}

func (v *schemaValidator) checkFields(fields []models.Field, result *ValidationResult) {
	seenIDs := make(map[string]bool, len(fields))
	seenNames := make(map[string]bool, len(fields))

	for _, f := range fields {
		label := f.ID
		if label == "" {
			label = f.Name
		}

		if f.ID == "" {
			result.addError("field %q is missing an id", f.Name)
		} else if seenIDs[f.ID] {
			result.addError("duplicate field id %q", f.ID)
		}
		seenIDs[f.ID] = true

		if f.Name == "" {
			result.addError("field %q is missing a name", label)
		} else if seenNames[f.Name] {
			result.addError("duplicate field name %q", f.Name)
		}
		seenNames[f.Name] = true

		if f.DisplayName == "" {
			result.addError("field %q is missing a display name", label)
		}

		if f.Type == models.FieldTypeSelect && len(f.SelectOptions) == 0 {
			result.addWarning("select field %q has no options defined", label)
		}

		if (f.SemanticRole == models.RoleParticipant1 || f.SemanticRole == models.RoleParticipant2) && f.ParticipantLabel == "" {
			result.addWarning("participant field %q has no participant label", label)
		}
	}
}

func (v *schemaValidator) checkRoles(fields []models.Field, result *ValidationResult) {
	var p1, p2, classification int
	for _, f := range fields {
		switch f.SemanticRole {
		case models.RoleParticipant1:
			p1++
		case models.RoleParticipant2:
			p2++
		case models.RoleClassification:
			classification++
		}
	}

	if p1 != 1 {
		result.addError("schema must have exactly one participant_1 field, found %d", p1)
	}
	if p2 != 1 {
		result.addError("schema must have exactly one participant_2 field, found %d", p2)
	}
	if classification == 0 {
		result.addError("schema must have at least one classification field")
	}
}

func (v *schemaValidator) checkRelationships(schema *models.SchemaDefinition, result *ValidationResult) {
	for _, rel := range schema.Relationships {
		for _, fieldID := range rel.InvolvedFields {
			if !schema.HasField(fieldID) {
				result.addError("relationship %q references non-existent field %q", rel.ID, fieldID)
			}
		}

		// A complex relationship without a formula is flagged but
		// allowed; the row mapper simply skips it.
		if rel.Type == models.RelationshipComplex && rel.Formula == "" {
			result.addWarning("complex relationship %q has no formula", rel.ID)
		}
	}
}

// ValidateSemanticRoles checks only role cardinality over a field list.
func (v *schemaValidator) ValidateSemanticRoles(fields []models.Field) *ValidationResult {
	result := &ValidationResult{Valid: true}
	v.checkRoles(fields, result)
	return result
}
