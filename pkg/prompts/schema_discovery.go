// Package prompts builds the LLM prompts used by schema discovery and
// relationship inference. Builders are pure string construction; the
// services own parsing and validation of the responses.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SampleContext carries the sample rows shown to the model during
// discovery, already truncated by the caller.
type SampleContext struct {
	Rows []map[string]any
}

// FieldDiscoverySystemMessage is the system message for field discovery.
func FieldDiscoverySystemMessage() string {
	return strings.TrimSpace(`
You are a data analyst configuring a call-center quality-assurance system.
Given sample call records and a business description, you identify the
fields a call record schema needs. Respond with JSON only, no prose.`)
}

// BuildFieldDiscoveryPrompt creates the prompt asking the model to
// propose schema fields for the sampled rows.
func BuildFieldDiscoveryPrompt(samples SampleContext, businessContext string) string {
	var b strings.Builder

	b.WriteString("Business context:\n")
	if businessContext == "" {
		b.WriteString("(none provided)\n")
	} else {
		b.WriteString(businessContext + "\n")
	}

	b.WriteString("\nSample call records:\n")
	for i, row := range samples.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, data)
	}

	b.WriteString(`
Propose the schema fields for these records. Requirements:
- exactly one field with semantic_role "participant_1" (the first speaker, e.g. the agent)
- exactly one field with semantic_role "participant_2" (the second speaker, e.g. the customer)
- at least one field with semantic_role "classification" (a categorical axis such as call outcome)
- other roles available: "metric", "dimension", "identifier", "timestamp", "freeform"
- field types available: "string", "number", "date", "boolean", "select"
- "select" fields must list their options

Respond with a JSON array of field objects:
[
  {
    "id": "snake_or_kebab_identifier",
    "name": "source column name",
    "display_name": "Human Label",
    "type": "string",
    "semantic_role": "participant_1",
    "participant_label": "Agent",
    "select_options": [],
    "required": true
  }
]`)

	return b.String()
}

// RelationshipFieldContext describes one schema field for relationship
// inference.
type RelationshipFieldContext struct {
	ID          string
	DisplayName string
	Type        string
	Role        string
}

// RelationshipInferenceSystemMessage is the system message for
// relationship inference.
func RelationshipInferenceSystemMessage() string {
	return strings.TrimSpace(`
You are a data analyst configuring derived fields for a call-center
quality-assurance system. You propose relationships between schema
fields, including computed formulas. Respond with JSON only, no prose.`)
}

// BuildRelationshipInferencePrompt creates the prompt asking the model
// to propose relationships over the schema's fields.
func BuildRelationshipInferencePrompt(fields []RelationshipFieldContext, samples SampleContext) string {
	var b strings.Builder

	b.WriteString("Schema fields:\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s (%s, type %s, role %s)\n", f.ID, f.DisplayName, f.Type, f.Role)
	}

	if len(samples.Rows) > 0 {
		b.WriteString("\nSample records:\n")
		for i, row := range samples.Rows {
			data, err := json.Marshal(row)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, data)
		}
	}

	b.WriteString(`
Propose relationships between these fields. Rules:
- "simple" relationships describe a correlation and have no formula
- "complex" relationships compute a value with a formula
- formulas may reference exactly two names: "metadata" (field values,
  e.g. metadata.amount) and "math" (math.abs, math.round, math.min, ...)
- involved_fields must only contain field ids listed above

Respond with a JSON array of relationship objects:
[
  {
    "id": "risk_score",
    "description": "why this relationship matters",
    "type": "complex",
    "involved_fields": ["amount", "days_overdue"],
    "formula": "metadata.amount * metadata.days_overdue / 100",
    "display_name": "Risk Score",
    "output_type": "number"
  }
]`)

	return b.String()
}
