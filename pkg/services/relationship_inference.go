package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/formula"
	"github.com/amantaras/call-center-performance-sub001/pkg/llm"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
	"github.com/amantaras/call-center-performance-sub001/pkg/prompts"
)

const inferenceTemperature = 0.2

// RelationshipInferenceService proposes relationships over a schema's
// fields using an LLM. Proposals that reference unknown fields or carry
// formulas that fail to compile against a representative record are
// dropped rather than surfaced as errors.
type RelationshipInferenceService interface {
	InferRelationships(ctx context.Context, schema *models.SchemaDefinition, samples []map[string]any) ([]models.Relationship, error)
}

type relationshipInferenceService struct {
	client    llm.LLMClient
	evaluator formula.Evaluator
	logger    *zap.Logger
}

// NewRelationshipInferenceService creates a relationship inference service.
func NewRelationshipInferenceService(client llm.LLMClient, evaluator formula.Evaluator, logger *zap.Logger) RelationshipInferenceService {
	return &relationshipInferenceService{
		client:    client,
		evaluator: evaluator,
		logger:    logger.Named("relationship-inference"),
	}
}

var _ RelationshipInferenceService = (*relationshipInferenceService)(nil)

// proposedRelationship is the wire shape of one proposed relationship.
type proposedRelationship struct {
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	Type           string   `json:"type"`
	InvolvedFields []string `json:"involved_fields"`
	Formula        string   `json:"formula"`
	DisplayName    string   `json:"display_name"`
	OutputType     string   `json:"output_type"`
}

// InferRelationships proposes and filters relationships for the schema.
func (s *relationshipInferenceService) InferRelationships(ctx context.Context, schema *models.SchemaDefinition, samples []map[string]any) ([]models.Relationship, error) {
	if schema == nil || len(schema.Fields) == 0 {
		return nil, fmt.Errorf("schema with fields is required")
	}
	if len(samples) > maxDiscoverySamples {
		samples = samples[:maxDiscoverySamples]
	}

	fieldCtx := make([]prompts.RelationshipFieldContext, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		fieldCtx = append(fieldCtx, prompts.RelationshipFieldContext{
			ID:          f.ID,
			DisplayName: f.DisplayName,
			Type:        string(f.Type),
			Role:        string(f.SemanticRole),
		})
	}

	prompt := prompts.BuildRelationshipInferencePrompt(fieldCtx, prompts.SampleContext{Rows: samples})

	s.logger.Debug("running relationship inference",
		zap.String("schema_id", schema.ID),
		zap.Int("fields", len(schema.Fields)),
		zap.String("model", s.client.GetModel()))

	response, err := s.client.GenerateResponse(ctx, prompt, prompts.RelationshipInferenceSystemMessage(), inferenceTemperature)
	if err != nil {
		return nil, fmt.Errorf("relationship inference request: %w", err)
	}

	proposed, err := llm.ParseJSONResponse[[]proposedRelationship](response)
	if err != nil {
		return nil, fmt.Errorf("parse relationship inference response: %w", err)
	}

	relationships := make([]models.Relationship, 0, len(proposed))
	seen := make(map[string]bool, len(proposed))
	for _, p := range proposed {
		rel, ok := s.normalizeRelationship(schema, p, seen)
		if !ok {
			continue
		}
		seen[rel.ID] = true
		relationships = append(relationships, rel)
	}

	s.logger.Info("relationship inference completed",
		zap.Int("proposed", len(proposed)),
		zap.Int("accepted", len(relationships)))
	return relationships, nil
}

// normalizeRelationship converts and vets one proposal. Returns false
// when the proposal cannot be used.
func (s *relationshipInferenceService) normalizeRelationship(schema *models.SchemaDefinition, p proposedRelationship, seen map[string]bool) (models.Relationship, bool) {
	id := slugify(p.ID)
	if id == "" || seen[id] {
		s.logger.Warn("dropping relationship with missing or duplicate id", zap.String("id", p.ID))
		return models.Relationship{}, false
	}

	for _, fieldID := range p.InvolvedFields {
		if !schema.HasField(fieldID) {
			s.logger.Warn("dropping relationship referencing unknown field",
				zap.String("relationship_id", id),
				zap.String("field_id", fieldID))
			return models.Relationship{}, false
		}
	}

	relType := models.RelationshipType(strings.ToLower(strings.TrimSpace(p.Type)))
	if relType != models.RelationshipSimple && relType != models.RelationshipComplex {
		relType = models.RelationshipSimple
	}

	rel := models.Relationship{
		ID:             id,
		Description:    strings.TrimSpace(p.Description),
		Type:           relType,
		InvolvedFields: p.InvolvedFields,
		DisplayName:    strings.TrimSpace(p.DisplayName),
	}
	if rel.DisplayName == "" {
		rel.DisplayName = titleFromID(id)
	}

	if relType == models.RelationshipComplex {
		rel.Formula = strings.TrimSpace(p.Formula)
		if rel.Formula == "" {
			s.logger.Warn("dropping complex relationship without formula", zap.String("relationship_id", id))
			return models.Relationship{}, false
		}
		if err := s.vetFormula(schema, rel.Formula); err != nil {
			s.logger.Warn("dropping relationship with unusable formula",
				zap.String("relationship_id", id),
				zap.Error(err))
			return models.Relationship{}, false
		}

		rel.DisplayInTable = true
		rel.EnableAnalytics = true
		rel.OutputType = models.RelationshipOutputType(strings.ToLower(strings.TrimSpace(p.OutputType)))
		switch rel.OutputType {
		case models.OutputNumber, models.OutputCurrency, models.OutputPercent:
		default:
			rel.OutputType = models.OutputNumber
		}
	}

	return rel, true
}

// vetFormula evaluates the formula against a record built from the
// schema's zero values. A formula that cannot run on an empty record
// will not run on real ones either.
func (s *relationshipInferenceService) vetFormula(schema *models.SchemaDefinition, source string) error {
	record := make(models.Record, len(schema.Fields))
	for _, f := range schema.Fields {
		switch f.Type {
		case models.FieldTypeNumber:
			record[f.ID] = models.Number(0)
		case models.FieldTypeBoolean:
			record[f.ID] = models.Boolean(false)
		default:
			record[f.ID] = models.String("")
		}
	}
	_, err := s.evaluator.Evaluate(source, record)
	return err
}
