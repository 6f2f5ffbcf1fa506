package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/jsonutil"
	"github.com/amantaras/call-center-performance-sub001/pkg/llm"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
	"github.com/amantaras/call-center-performance-sub001/pkg/prompts"
)

// maxDiscoverySamples caps how many rows are shown to the model.
const maxDiscoverySamples = 5

// discoveryTemperature keeps field proposals close to deterministic.
const discoveryTemperature = 0.1

// SchemaDiscoveryService proposes schema fields from sample rows using
// an LLM, then normalizes and validates the proposal before returning it.
type SchemaDiscoveryService interface {
	// DiscoverFields asks the model to propose fields for the sampled
	// rows. The returned fields satisfy the role-cardinality invariant
	// or an error is returned.
	DiscoverFields(ctx context.Context, samples []map[string]any, businessContext string) ([]models.Field, error)

	// DiscoverSchema runs field discovery and wraps the result in an
	// unsaved schema definition.
	DiscoverSchema(ctx context.Context, name, businessContext string, samples []map[string]any) (*models.SchemaDefinition, error)
}

type schemaDiscoveryService struct {
	client    llm.LLMClient
	validator SchemaValidator
	logger    *zap.Logger
}

// NewSchemaDiscoveryService creates a schema discovery service.
func NewSchemaDiscoveryService(client llm.LLMClient, validator SchemaValidator, logger *zap.Logger) SchemaDiscoveryService {
	return &schemaDiscoveryService{
		client:    client,
		validator: validator,
		logger:    logger.Named("schema-discovery"),
	}
}

var _ SchemaDiscoveryService = (*schemaDiscoveryService)(nil)

// discoveredField is the wire shape of one proposed field. Loose value
// types absorb models that return numbers or booleans where strings are
// expected.
type discoveredField struct {
	ID               json.RawMessage `json:"id"`
	Name             json.RawMessage `json:"name"`
	DisplayName      json.RawMessage `json:"display_name"`
	Type             string          `json:"type"`
	SemanticRole     string          `json:"semantic_role"`
	ParticipantLabel json.RawMessage `json:"participant_label"`
	SelectOptions    []string        `json:"select_options"`
	Required         bool            `json:"required"`
}

// DiscoverFields proposes, normalizes, and validates schema fields.
func (s *schemaDiscoveryService) DiscoverFields(ctx context.Context, samples []map[string]any, businessContext string) ([]models.Field, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("at least one sample row is required")
	}
	if len(samples) > maxDiscoverySamples {
		samples = samples[:maxDiscoverySamples]
	}

	prompt := prompts.BuildFieldDiscoveryPrompt(prompts.SampleContext{Rows: samples}, businessContext)

	s.logger.Debug("running field discovery",
		zap.Int("sample_rows", len(samples)),
		zap.String("model", s.client.GetModel()))

	response, err := s.client.GenerateResponse(ctx, prompt, prompts.FieldDiscoverySystemMessage(), discoveryTemperature)
	if err != nil {
		return nil, fmt.Errorf("field discovery request: %w", err)
	}

	proposed, err := llm.ParseJSONResponse[[]discoveredField](response)
	if err != nil {
		return nil, fmt.Errorf("parse field discovery response: %w", err)
	}
	if len(proposed) == 0 {
		return nil, fmt.Errorf("model proposed no fields")
	}

	fields := make([]models.Field, 0, len(proposed))
	for _, p := range proposed {
		field, err := s.normalizeField(p)
		if err != nil {
			s.logger.Warn("dropping malformed proposed field", zap.Error(err))
			continue
		}
		fields = append(fields, field)
	}

	if result := s.validator.ValidateSemanticRoles(fields); !result.Valid {
		return nil, fmt.Errorf("discovered fields failed role validation: %s", strings.Join(result.Errors, "; "))
	}

	s.logger.Info("field discovery completed", zap.Int("fields", len(fields)))
	return fields, nil
}

// normalizeField converts one proposed field to the model type,
// repairing recoverable gaps and rejecting unusable ones.
func (s *schemaDiscoveryService) normalizeField(p discoveredField) (models.Field, error) {
	id := slugify(jsonutil.FlexibleStringValue(p.ID))
	name := strings.TrimSpace(jsonutil.FlexibleStringValue(p.Name))
	if id == "" && name != "" {
		id = slugify(name)
	}
	if id == "" {
		return models.Field{}, fmt.Errorf("proposed field has no usable id or name")
	}
	if name == "" {
		name = id
	}

	ftype := models.FieldType(strings.ToLower(strings.TrimSpace(p.Type)))
	if !models.IsValidFieldType(ftype) {
		return models.Field{}, fmt.Errorf("field %q has unknown type %q", id, p.Type)
	}

	role := models.SemanticRole(strings.ToLower(strings.TrimSpace(p.SemanticRole)))
	if !models.IsValidSemanticRole(role) {
		role = models.RoleFreeform
	}

	display := strings.TrimSpace(jsonutil.FlexibleStringValue(p.DisplayName))
	if display == "" {
		display = titleFromID(id)
	}

	field := models.Field{
		ID:            id,
		Name:          name,
		DisplayName:   display,
		Type:          ftype,
		SemanticRole:  role,
		Required:      p.Required,
		ShowInTable:   true,
		UseInPrompt:   true,
		SelectOptions: p.SelectOptions,
	}

	if role == models.RoleParticipant1 || role == models.RoleParticipant2 {
		field.ParticipantLabel = strings.TrimSpace(jsonutil.FlexibleStringValue(p.ParticipantLabel))
		if field.ParticipantLabel == "" {
			// Column names are often plural ("agents"); labels name one
			// speaker.
			field.ParticipantLabel = inflection.Singular(display)
		}
	}
	if role == models.RoleMetric {
		field.EnableAnalytics = true
	}

	return field, nil
}

// DiscoverSchema wraps field discovery in an unsaved schema definition.
func (s *schemaDiscoveryService) DiscoverSchema(ctx context.Context, name, businessContext string, samples []map[string]any) (*models.SchemaDefinition, error) {
	if name == "" {
		return nil, fmt.Errorf("schema name is required")
	}

	fields, err := s.DiscoverFields(ctx, samples, businessContext)
	if err != nil {
		return nil, err
	}

	return &models.SchemaDefinition{
		ID:              slugify(name),
		Name:            name,
		Version:         "1.0.0",
		BusinessContext: businessContext,
		Fields:          fields,
	}, nil
}

var fieldIDInvalidChars = regexp.MustCompile(`[^a-z0-9_-]`)

// slugify normalizes a proposed identifier: lowercase, spaces to
// underscores, everything else outside [a-z0-9_-] stripped.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return fieldIDInvalidChars.ReplaceAllString(s, "")
}

// titleFromID turns a snake_case or kebab-case id into a display label.
func titleFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
