package models

// FieldType is the declared data type of a schema field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDate    FieldType = "date"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeSelect  FieldType = "select"
)

// ValidFieldTypes contains all valid field type values.
var ValidFieldTypes = []FieldType{
	FieldTypeString,
	FieldTypeNumber,
	FieldTypeDate,
	FieldTypeBoolean,
	FieldTypeSelect,
}

// IsValidFieldType checks if the given type is valid.
func IsValidFieldType(t FieldType) bool {
	for _, v := range ValidFieldTypes {
		if v == t {
			return true
		}
	}
	return false
}

// SemanticRole is the structural purpose a field plays within a schema.
// Role cardinality is the schema's core invariant: exactly one
// participant_1, exactly one participant_2, at least one classification.
type SemanticRole string

const (
	RoleParticipant1   SemanticRole = "participant_1"
	RoleParticipant2   SemanticRole = "participant_2"
	RoleClassification SemanticRole = "classification"
	RoleMetric         SemanticRole = "metric"
	RoleDimension      SemanticRole = "dimension"
	RoleIdentifier     SemanticRole = "identifier"
	RoleTimestamp      SemanticRole = "timestamp"
	RoleFreeform       SemanticRole = "freeform"
)

// ValidSemanticRoles contains all valid semantic role values.
var ValidSemanticRoles = []SemanticRole{
	RoleParticipant1,
	RoleParticipant2,
	RoleClassification,
	RoleMetric,
	RoleDimension,
	RoleIdentifier,
	RoleTimestamp,
	RoleFreeform,
}

// IsValidSemanticRole checks if the given role is valid.
func IsValidSemanticRole(r SemanticRole) bool {
	for _, v := range ValidSemanticRoles {
		if v == r {
			return true
		}
	}
	return false
}

// CardinalityHint is an advisory estimate of distinct-value volume.
// Never validated against actual data.
type CardinalityHint string

const (
	CardinalityLow    CardinalityHint = "low"
	CardinalityMedium CardinalityHint = "medium"
	CardinalityHigh   CardinalityHint = "high"
)

// DependencyBehavior declares how a field dependency is interpreted by
// the presentation layer.
type DependencyBehavior string

const (
	DependencyShow    DependencyBehavior = "show"
	DependencyRequire DependencyBehavior = "require"
)

// FieldDependency declares that a field is conditionally visible or
// required based on another field's value. The engine exposes the rule
// but does not enforce it; interpretation belongs to the UI.
type FieldDependency struct {
	FieldID  string `json:"field_id"`
	Operator string `json:"operator"` // "equals", "not_equals", "contains"
	Value    any    `json:"value"`
}

// Field is one column definition in a schema. A field has no identity
// outside its owning SchemaDefinition.
type Field struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"` // property key in external rows; may differ from ID
	DisplayName string       `json:"display_name"`
	Type        FieldType    `json:"type"`
	SemanticRole SemanticRole `json:"semantic_role"`

	// Capability flags for downstream consumers. They never affect
	// validity, only table rendering, prompt construction, and
	// analytics eligibility.
	Required        bool `json:"required"`
	ShowInTable     bool `json:"show_in_table"`
	UseInPrompt     bool `json:"use_in_prompt"`
	EnableAnalytics bool `json:"enable_analytics"`

	// SelectOptions must be non-empty when Type is select; ignored
	// otherwise.
	SelectOptions []string `json:"select_options,omitempty"`

	CardinalityHint CardinalityHint `json:"cardinality_hint,omitempty"`

	// ParticipantLabel is the human label for participant roles
	// (e.g., "Agent", "Customer").
	ParticipantLabel string `json:"participant_label,omitempty"`

	// SourceColumns lists candidate column keys for import mapping,
	// tried in order. When empty the mapper falls back to ID then Name.
	SourceColumns []string `json:"source_columns,omitempty"`

	DependsOn         *FieldDependency   `json:"depends_on,omitempty"`
	DependsOnBehavior DependencyBehavior `json:"depends_on_behavior,omitempty"`

	// DefaultValue is substituted when a raw value is missing during
	// mapping, before the type-appropriate zero value.
	DefaultValue any `json:"default_value,omitempty"`
}
