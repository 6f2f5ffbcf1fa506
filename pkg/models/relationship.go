package models

// RelationshipType distinguishes descriptive correlations from computed
// derived fields.
type RelationshipType string

const (
	// RelationshipSimple is a descriptive correlation with no computed value.
	RelationshipSimple RelationshipType = "simple"
	// RelationshipComplex carries a formula and produces a computed value.
	RelationshipComplex RelationshipType = "complex"
)

// RelationshipOutputType hints how a computed value should be displayed.
type RelationshipOutputType string

const (
	OutputNumber   RelationshipOutputType = "number"
	OutputCurrency RelationshipOutputType = "currency"
	OutputPercent  RelationshipOutputType = "percent"
)

// Relationship is a derived/related-field declaration. Complex
// relationships are recomputed every time a record is mapped; they hold
// no persisted state and are pure functions of the record's field values.
// Computed outputs are written to the metadata record under the
// relationship's ID.
type Relationship struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Type        RelationshipType `json:"type"`

	// InvolvedFields lists field ids referenced by this relationship.
	// Every entry must reference an existing field in the owning schema.
	InvolvedFields []string `json:"involved_fields"`

	// Formula is the expression evaluated against the metadata record.
	// Required in practice for complex relationships; its absence is a
	// validator warning, not an error.
	Formula string `json:"formula,omitempty"`

	DisplayName     string                 `json:"display_name,omitempty"`
	DisplayInTable  bool                   `json:"display_in_table"`
	EnableAnalytics bool                   `json:"enable_analytics"`
	OutputType      RelationshipOutputType `json:"output_type,omitempty"`
}

// IsComputed reports whether this relationship produces a computed value.
func (r *Relationship) IsComputed() bool {
	return r.Type == RelationshipComplex && r.Formula != ""
}
