// Package templates ships ready-made industry schemas so a fresh
// deployment has something to start from without running discovery.
package templates

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template is one industry starter schema.
type Template struct {
	Key         string `yaml:"key"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	Schema templateSchema `yaml:"schema"`
}

type templateSchema struct {
	Name            string                `yaml:"name"`
	BusinessContext string                `yaml:"business_context"`
	Fields          []templateField       `yaml:"fields"`
	Relationships   []templateRelationship `yaml:"relationships"`
}

type templateField struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	DisplayName      string   `yaml:"display_name"`
	Type             string   `yaml:"type"`
	SemanticRole     string   `yaml:"semantic_role"`
	Required         bool     `yaml:"required"`
	ShowInTable      bool     `yaml:"show_in_table"`
	UseInPrompt      bool     `yaml:"use_in_prompt"`
	EnableAnalytics  bool     `yaml:"enable_analytics"`
	SelectOptions    []string `yaml:"select_options"`
	ParticipantLabel string   `yaml:"participant_label"`
	SourceColumns    []string `yaml:"source_columns"`
}

type templateRelationship struct {
	ID             string   `yaml:"id"`
	Description    string   `yaml:"description"`
	Type           string   `yaml:"type"`
	InvolvedFields []string `yaml:"involved_fields"`
	Formula        string   `yaml:"formula"`
	DisplayName    string   `yaml:"display_name"`
	OutputType     string   `yaml:"output_type"`
}

// Catalog holds the parsed built-in templates in file order.
type Catalog struct {
	templates []Template
}

// Load parses the embedded template catalog.
func Load() (*Catalog, error) {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(templatesYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse built-in templates: %w", err)
	}
	if len(doc.Templates) == 0 {
		return nil, fmt.Errorf("built-in template catalog is empty")
	}
	return &Catalog{templates: doc.Templates}, nil
}

// List returns every template in catalog order.
func (c *Catalog) List() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Get returns the template with the given key.
func (c *Catalog) Get(key string) (Template, error) {
	for _, t := range c.templates {
		if t.Key == key {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("unknown template %q", key)
}

// Instantiate converts a template into an unsaved schema definition.
// The caller owns id generation and persistence through the schema store.
func (c *Catalog) Instantiate(key string) (*models.SchemaDefinition, error) {
	t, err := c.Get(key)
	if err != nil {
		return nil, err
	}

	schema := &models.SchemaDefinition{
		ID:              t.Key,
		Name:            t.Schema.Name,
		Version:         "1.0.0",
		BusinessContext: t.Schema.BusinessContext,
	}

	schema.Fields = make([]models.Field, 0, len(t.Schema.Fields))
	for _, f := range t.Schema.Fields {
		schema.Fields = append(schema.Fields, models.Field{
			ID:               f.ID,
			Name:             f.Name,
			DisplayName:      f.DisplayName,
			Type:             models.FieldType(strings.ToLower(f.Type)),
			SemanticRole:     models.SemanticRole(strings.ToLower(f.SemanticRole)),
			Required:         f.Required,
			ShowInTable:      f.ShowInTable,
			UseInPrompt:      f.UseInPrompt,
			EnableAnalytics:  f.EnableAnalytics,
			SelectOptions:    f.SelectOptions,
			ParticipantLabel: f.ParticipantLabel,
			SourceColumns:    f.SourceColumns,
		})
	}

	schema.Relationships = make([]models.Relationship, 0, len(t.Schema.Relationships))
	for _, r := range t.Schema.Relationships {
		rel := models.Relationship{
			ID:             r.ID,
			Description:    r.Description,
			Type:           models.RelationshipType(strings.ToLower(r.Type)),
			InvolvedFields: r.InvolvedFields,
			Formula:        r.Formula,
			DisplayName:    r.DisplayName,
			OutputType:     models.RelationshipOutputType(strings.ToLower(r.OutputType)),
		}
		if rel.IsComputed() {
			rel.DisplayInTable = true
			rel.EnableAnalytics = true
		}
		schema.Relationships = append(schema.Relationships, rel)
	}

	return schema, nil
}
