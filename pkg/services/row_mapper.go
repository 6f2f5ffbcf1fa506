package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/formula"
	"github.com/amantaras/call-center-performance-sub001/pkg/logging"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

// DefaultDetectThreshold is the minimum match score a candidate schema
// needs before DetectSchema will pick it.
const DefaultDetectThreshold = 80

// inferSampleCap bounds how many sample values type inference looks at.
const inferSampleCap = 20

// inferAgreement is the fraction of samples that must parse cleanly as a
// type before the column is inferred as that type.
const inferAgreement = 0.8

// RowMappingResult is the outcome of a row-level mapping check.
type RowMappingResult struct {
	Valid         bool     `json:"valid"`
	MissingFields []string `json:"missing_fields"`
}

// RowMapper translates external raw records (spreadsheet rows, import
// payloads) into schema-conformant metadata records. Mapping is total:
// it never fails for any well-formed schema and any row, including an
// empty one — every coercion has a deterministic fallback.
type RowMapper interface {
	// MapRow maps a raw row onto the schema's fields and evaluates
	// computed relationships against the result. The returned record is
	// keyed by field id (relationship outputs by relationship id).
	MapRow(row map[string]any, schema *models.SchemaDefinition) models.Record

	// MatchScore returns the percentage (0-100) of schema fields
	// resolvable from the row.
	MatchScore(row map[string]any, schema *models.SchemaDefinition) int

	// DetectSchema picks the highest-scoring candidate at or above
	// minScore, or nil. Ties favor the first candidate in input order.
	DetectSchema(row map[string]any, candidates []*models.SchemaDefinition, minScore int) *models.SchemaDefinition

	// ValidateRowMapping confirms both participant fields and at least
	// one classification field resolve to non-empty values.
	ValidateRowMapping(row map[string]any, schema *models.SchemaDefinition) *RowMappingResult

	// InferColumnType infers a field type from sampled values by
	// majority vote, checking number, then date, then boolean, falling
	// back to string.
	InferColumnType(samples []any) models.FieldType
}

type rowMapper struct {
	evaluator formula.Evaluator
	logger    *zap.Logger
	now       func() time.Time
}

// NewRowMapper creates a row mapper that uses the given evaluator for
// computed relationships.
func NewRowMapper(evaluator formula.Evaluator, logger *zap.Logger) RowMapper {
	return &rowMapper{
		evaluator: evaluator,
		logger:    logger.Named("row-mapper"),
		now:       time.Now,
	}
}

var _ RowMapper = (*rowMapper)(nil)

// MapRow maps every declared field, then evaluates computed
// relationships against the just-built record. A failing formula leaves
// its output key absent; it never fails the mapping.
func (m *rowMapper) MapRow(row map[string]any, schema *models.SchemaDefinition) models.Record {
	record := make(models.Record, len(schema.Fields)+len(schema.Relationships))

	for _, field := range schema.Fields {
		raw, found := m.resolveRaw(row, &field)
		if !found && field.DefaultValue != nil {
			raw, found = field.DefaultValue, true
		}
		if !found {
			record[field.ID] = m.zeroValue(field.Type)
			continue
		}
		record[field.ID] = m.coerce(raw, field.Type)
	}

	for _, rel := range schema.ComputedRelationships() {
		val, err := m.evaluator.Evaluate(rel.Formula, record)
		if err != nil {
			m.logger.Debug("relationship formula failed, skipping output",
				zap.String("relationship_id", rel.ID),
				zap.String("formula", logging.SanitizeFormula(rel.Formula)),
				zap.String("error", err.Error()))
			continue
		}
		record[rel.ID] = val
	}

	return record
}

// resolveRaw finds a raw value for a field. Candidate keys are tried in
// order (the field's declared source columns, falling back to its id and
// name), with an exact match preferred over a case-insensitive,
// whitespace-trimmed one. Blank values count as missing.
func (m *rowMapper) resolveRaw(row map[string]any, field *models.Field) (any, bool) {
	candidates := field.SourceColumns
	if len(candidates) == 0 {
		candidates = []string{field.ID, field.Name}
	}

	for _, key := range candidates {
		if key == "" {
			continue
		}
		if raw, ok := row[key]; ok && !isBlank(raw) {
			return raw, true
		}
	}

	// Case-insensitive fallback. Row keys are visited in sorted order
	// so the same row always resolves the same way.
	rowKeys := make([]string, 0, len(row))
	for k := range row {
		rowKeys = append(rowKeys, k)
	}
	sort.Strings(rowKeys)

	for _, key := range candidates {
		folded := strings.ToLower(strings.TrimSpace(key))
		if folded == "" {
			continue
		}
		for _, rk := range rowKeys {
			if strings.ToLower(strings.TrimSpace(rk)) == folded {
				if raw := row[rk]; !isBlank(raw) {
					return raw, true
				}
			}
		}
	}

	return nil, false
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// coerce applies the type coercion rules. Coercion never fails: every
// rule has a deterministic fallback value.
func (m *rowMapper) coerce(raw any, fieldType models.FieldType) models.Value {
	switch fieldType {
	case models.FieldTypeNumber:
		return models.Number(coerceNumber(raw))
	case models.FieldTypeBoolean:
		return models.Boolean(coerceBool(raw))
	case models.FieldTypeDate:
		if t, ok := parseDate(raw); ok {
			return models.Date(t)
		}
		// Unparsable dates substitute "now" rather than failing.
		return models.Date(m.now())
	default: // string, select, text
		return models.String(strings.TrimSpace(stringify(raw)))
	}
}

func (m *rowMapper) zeroValue(fieldType models.FieldType) models.Value {
	switch fieldType {
	case models.FieldTypeNumber:
		return models.Number(0)
	case models.FieldTypeBoolean:
		return models.Boolean(false)
	case models.FieldTypeDate:
		return models.Date(m.now())
	default:
		return models.String("")
	}
}

func coerceNumber(raw any) float64 {
	switch x := raw.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	}

	s := strings.TrimSpace(stringify(raw))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func coerceBool(raw any) bool {
	if b, ok := raw.(bool); ok {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(stringify(raw))) {
	case "true", "1", "yes":
		return true
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

func parseDate(raw any) (time.Time, bool) {
	if t, ok := raw.(time.Time); ok {
		return t, true
	}
	s := strings.TrimSpace(stringify(raw))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringify(raw any) string {
	switch x := raw.(type) {
	case string:
		return x
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// MatchScore returns the percentage of schema fields resolvable from the
// row, used to rank candidate schemas against an unknown row shape.
func (m *rowMapper) MatchScore(row map[string]any, schema *models.SchemaDefinition) int {
	if len(schema.Fields) == 0 {
		return 0
	}
	resolved := 0
	for _, field := range schema.Fields {
		if _, found := m.resolveRaw(row, &field); found {
			resolved++
		}
	}
	return int(math.Round(float64(resolved) / float64(len(schema.Fields)) * 100))
}

// DetectSchema picks the highest-scoring candidate at or above minScore.
// A strict comparison keeps the first candidate on ties, which makes the
// choice deterministic for an otherwise unspecified ordering.
func (m *rowMapper) DetectSchema(row map[string]any, candidates []*models.SchemaDefinition, minScore int) *models.SchemaDefinition {
	if minScore <= 0 {
		minScore = DefaultDetectThreshold
	}

	var best *models.SchemaDefinition
	bestScore := -1
	for _, candidate := range candidates {
		score := m.MatchScore(row, candidate)
		if score >= minScore && score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	if best != nil {
		m.logger.Debug("detected schema for row",
			zap.String("schema_id", best.ID),
			zap.Int("score", bestScore))
	}
	return best
}

// ValidateRowMapping is the row-level counterpart of schema validation:
// it confirms the row carries both participants and at least one
// classification value.
func (m *rowMapper) ValidateRowMapping(row map[string]any, schema *models.SchemaDefinition) *RowMappingResult {
	result := &RowMappingResult{Valid: true}

	classificationResolved := false
	classificationSeen := false

	for _, field := range schema.Fields {
		switch field.SemanticRole {
		case models.RoleParticipant1, models.RoleParticipant2:
			if _, found := m.resolveRaw(row, &field); !found {
				result.Valid = false
				result.MissingFields = append(result.MissingFields, field.DisplayName)
			}
		case models.RoleClassification:
			classificationSeen = true
			if _, found := m.resolveRaw(row, &field); found {
				classificationResolved = true
			}
		}
	}

	if classificationSeen && !classificationResolved {
		result.Valid = false
		result.MissingFields = append(result.MissingFields, "classification")
	}

	return result
}

// InferColumnType majority-votes a type over a bounded sample. A column
// is inferred as a type only if at least 80% of sampled values parse
// cleanly as that type, checked in the order number, date, boolean.
func (m *rowMapper) InferColumnType(samples []any) models.FieldType {
	var usable []any
	for _, s := range samples {
		if !isBlank(s) {
			usable = append(usable, s)
		}
		if len(usable) == inferSampleCap {
			break
		}
	}
	if len(usable) == 0 {
		return models.FieldTypeString
	}

	var numbers, dates, booleans int
	for _, s := range usable {
		if parsesAsNumber(s) {
			numbers++
		}
		if _, ok := parseDate(s); ok {
			dates++
		}
		if parsesAsBool(s) {
			booleans++
		}
	}

	threshold := int(math.Ceil(inferAgreement * float64(len(usable))))
	switch {
	case numbers >= threshold:
		return models.FieldTypeNumber
	case dates >= threshold:
		return models.FieldTypeDate
	case booleans >= threshold:
		return models.FieldTypeBoolean
	default:
		return models.FieldTypeString
	}
}

func parsesAsNumber(raw any) bool {
	switch raw.(type) {
	case float64, float32, int, int64:
		return true
	}
	s := strings.TrimSpace(stringify(raw))
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func parsesAsBool(raw any) bool {
	if _, ok := raw.(bool); ok {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(stringify(raw))) {
	case "true", "false", "1", "0", "yes", "no":
		return true
	}
	return false
}
