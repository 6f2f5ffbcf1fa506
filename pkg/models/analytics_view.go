package models

import "time"

// AnalyticsView is a saved analytics definition over a schema's fields.
// Views reference fields by id, so a schema version bump must remap them
// through the migration planner before they remain usable.
type AnalyticsView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SchemaID string `json:"schema_id"`

	// FieldIDs are the schema field ids this view aggregates over.
	FieldIDs []string `json:"field_ids"`

	// Formula is an optional ad-hoc analytics expression evaluated per
	// record, same language as relationship formulas.
	Formula string `json:"formula,omitempty"`

	DisplayType RelationshipOutputType `json:"display_type,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
