package services

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/models"
	"github.com/amantaras/call-center-performance-sub001/pkg/repositories"
)

// MigrationResult reports the outcome of migrating dependent artifacts
// between schema versions. Success is true only when zero errors
// occurred; partial migration keeps both the migrated subset and the
// error list populated so callers can decide whether partial is
// acceptable.
type MigrationResult struct {
	Success       bool                    `json:"success"`
	MigratedItems []*models.AnalyticsView `json:"migrated_items"`
	Errors        []string                `json:"errors"`
}

// MigrationPlanner reconciles field-id references in derived artifacts
// when a schema is versioned. An item whose references cannot all be
// mapped is dropped and reported, never silently kept stale, and never
// aborts migration of the remaining items.
type MigrationPlanner interface {
	// MigrateRelated rewrites analytics views from the old schema to
	// the new one using the given old-id to new-id mapping.
	MigrateRelated(fromSchemaID, toSchemaID string, fieldMapping map[string]string) (*MigrationResult, error)

	// SuggestFieldMapping proposes an old-id to new-id mapping between
	// two schema versions: identical ids map to themselves, and
	// remaining fields pair up by case-insensitive name. Unmatched
	// fields are omitted.
	SuggestFieldMapping(from, to *models.SchemaDefinition) map[string]string
}

type migrationPlanner struct {
	views  repositories.AnalyticsViewRepository
	logger *zap.Logger
}

// NewMigrationPlanner creates a migration planner.
func NewMigrationPlanner(views repositories.AnalyticsViewRepository, logger *zap.Logger) MigrationPlanner {
	return &migrationPlanner{
		views:  views,
		logger: logger.Named("migration-planner"),
	}
}

var _ MigrationPlanner = (*migrationPlanner)(nil)

func (p *migrationPlanner) MigrateRelated(fromSchemaID, toSchemaID string, fieldMapping map[string]string) (*MigrationResult, error) {
	all, err := p.views.LoadAll()
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{Success: true}
	var kept []*models.AnalyticsView

	for _, view := range all {
		if view.SchemaID != fromSchemaID {
			kept = append(kept, view)
			continue
		}

		migrated, missing := p.migrateView(view, toSchemaID, fieldMapping)
		if missing != "" {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf(
				"analytics view %q references field %q which has no mapping to the new schema version; the view was dropped",
				view.Name, missing))
			continue
		}
		kept = append(kept, migrated)
		result.MigratedItems = append(result.MigratedItems, migrated)
	}

	if err := p.views.SaveAll(kept); err != nil {
		return nil, err
	}

	p.logger.Info("migrated dependent analytics views",
		zap.String("from_schema", fromSchemaID),
		zap.String("to_schema", toSchemaID),
		zap.Int("migrated", len(result.MigratedItems)),
		zap.Int("dropped", len(result.Errors)))
	return result, nil
}

// migrateView rewrites one view's references. It returns the first
// unmapped field id, or "" when every reference mapped.
func (p *migrationPlanner) migrateView(view *models.AnalyticsView, toSchemaID string, fieldMapping map[string]string) (*models.AnalyticsView, string) {
	mapped := make([]string, len(view.FieldIDs))
	for i, oldID := range view.FieldIDs {
		newID, ok := fieldMapping[oldID]
		if !ok {
			return nil, oldID
		}
		mapped[i] = newID
	}

	cp := *view
	cp.SchemaID = toSchemaID
	cp.FieldIDs = mapped
	cp.Formula = rewriteFormulaReferences(view.Formula, fieldMapping)
	return &cp, ""
}

// rewriteFormulaReferences renames metadata.<oldID> lookups in an ad-hoc
// view formula to the mapped ids. Ids not present in the formula are
// left alone; this is a textual rename, not a re-validation.
func rewriteFormulaReferences(formulaSrc string, fieldMapping map[string]string) string {
	if formulaSrc == "" {
		return formulaSrc
	}
	out := formulaSrc
	for oldID, newID := range fieldMapping {
		if oldID == newID {
			continue
		}
		pattern := regexp.MustCompile(`\bmetadata\.` + regexp.QuoteMeta(oldID) + `\b`)
		out = pattern.ReplaceAllString(out, "metadata."+newID)
	}
	return out
}

func (p *migrationPlanner) SuggestFieldMapping(from, to *models.SchemaDefinition) map[string]string {
	mapping := make(map[string]string)

	byName := make(map[string]string, len(to.Fields))
	for _, f := range to.Fields {
		byName[strings.ToLower(f.Name)] = f.ID
	}

	for _, f := range from.Fields {
		if to.HasField(f.ID) {
			mapping[f.ID] = f.ID
			continue
		}
		if newID, ok := byName[strings.ToLower(f.Name)]; ok {
			mapping[f.ID] = newID
		}
	}
	return mapping
}
