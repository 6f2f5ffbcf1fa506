package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/apperrors"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
	"github.com/amantaras/call-center-performance-sub001/pkg/repositories"
)

// VersionBump selects which component of a semantic version to increment.
type VersionBump string

const (
	BumpMajor VersionBump = "major"
	BumpMinor VersionBump = "minor"
	BumpPatch VersionBump = "patch"
)

// SchemaModifications are merged over a source schema when creating a
// new version. Nil slices and pointers keep the source values.
type SchemaModifications struct {
	Name            *string
	BusinessContext *string
	Fields          []models.Field
	Relationships   []models.Relationship
}

// SchemaStore owns the canonical schema collection and the single
// active-schema pointer. Every persistence-affecting operation validates
// first and returns displayable errors; nothing here panics or throws.
type SchemaStore interface {
	List() ([]*models.SchemaDefinition, error)
	Get(id string) (*models.SchemaDefinition, error)

	// Create validates and appends a schema. The first schema ever
	// created automatically becomes active.
	Create(schema *models.SchemaDefinition) error

	// Update validates and replaces a schema in place, stamping
	// UpdatedAt. In-place edits never bump the version.
	Update(schema *models.SchemaDefinition) error

	// Delete removes a schema. It is refused while dependent call
	// records exist; record integrity takes priority over cleanup.
	// Deleting the active schema promotes the first remaining one.
	Delete(id string, dependentRecordCount int) error

	// CreateVersion derives a new schema from sourceID: bumped version,
	// fresh id, fresh CreatedAt, modifications merged over the source.
	// The result goes through the normal Create path and is therefore
	// independently validated.
	CreateVersion(sourceID string, mods *SchemaModifications, bump VersionBump) (*models.SchemaDefinition, error)

	GetActive() (*models.SchemaDefinition, error)
	SetActive(id string) error

	// Export serializes one schema to pretty-printed JSON.
	Export(id string) (string, error)

	// Import deserializes, validates, and creates a schema. An id
	// collision is resolved by regenerating the id from the incoming
	// name instead of failing.
	Import(payload string) (*models.SchemaDefinition, error)

	IsNameUnique(name, excludeID string) (bool, error)
	IsIDUnique(id string) (bool, error)

	// GenerateID derives a unique slug id from a display name.
	GenerateID(name string) (string, error)
}

type schemaStore struct {
	repo      repositories.SchemaRepository
	validator SchemaValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewSchemaStore creates a schema store service.
func NewSchemaStore(repo repositories.SchemaRepository, validator SchemaValidator, logger *zap.Logger) SchemaStore {
	return &schemaStore{
		repo:      repo,
		validator: validator,
		logger:    logger.Named("schema-store"),
		now:       time.Now,
	}
}

var _ SchemaStore = (*schemaStore)(nil)

func (s *schemaStore) List() ([]*models.SchemaDefinition, error) {
	return s.repo.LoadAll()
}

func (s *schemaStore) Get(id string) (*models.SchemaDefinition, error) {
	schemas, err := s.repo.LoadAll()
	if err != nil {
		return nil, err
	}
	for _, schema := range schemas {
		if schema.ID == id {
			return schema, nil
		}
	}
	return nil, fmt.Errorf("schema %q: %w", id, apperrors.ErrNotFound)
}

func (s *schemaStore) Create(schema *models.SchemaDefinition) error {
	if result := s.validator.Validate(schema); !result.Valid {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidSchema, strings.Join(result.Errors, "; "))
	}

	schemas, err := s.repo.LoadAll()
	if err != nil {
		return err
	}
	for _, existing := range schemas {
		if existing.ID == schema.ID {
			return fmt.Errorf("schema id %q already exists: %w", schema.ID, apperrors.ErrDuplicateID)
		}
	}

	if schema.CreatedAt.IsZero() {
		schema.CreatedAt = s.now()
	}

	firstEver := len(schemas) == 0
	schemas = append(schemas, schema)
	if err := s.repo.SaveAll(schemas); err != nil {
		return err
	}

	if firstEver {
		if err := s.repo.SetActiveSchemaID(schema.ID); err != nil {
			return err
		}
		s.logger.Info("first schema created, marked active", zap.String("schema_id", schema.ID))
	}

	s.logger.Info("schema created",
		zap.String("schema_id", schema.ID),
		zap.String("version", schema.Version))
	return nil
}

func (s *schemaStore) Update(schema *models.SchemaDefinition) error {
	if result := s.validator.Validate(schema); !result.Valid {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidSchema, strings.Join(result.Errors, "; "))
	}

	schemas, err := s.repo.LoadAll()
	if err != nil {
		return err
	}

	for i, existing := range schemas {
		if existing.ID == schema.ID {
			now := s.now()
			schema.UpdatedAt = &now
			schemas[i] = schema
			if err := s.repo.SaveAll(schemas); err != nil {
				return err
			}
			s.logger.Info("schema updated", zap.String("schema_id", schema.ID))
			return nil
		}
	}
	return fmt.Errorf("schema %q: %w", schema.ID, apperrors.ErrNotFound)
}

func (s *schemaStore) Delete(id string, dependentRecordCount int) error {
	if dependentRecordCount > 0 {
		return fmt.Errorf(
			"cannot delete schema %q: %d call records still use it; delete or reassign those records first: %w",
			id, dependentRecordCount, apperrors.ErrSchemaInUse)
	}

	schemas, err := s.repo.LoadAll()
	if err != nil {
		return err
	}

	idx := -1
	for i, schema := range schemas {
		if schema.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("schema %q: %w", id, apperrors.ErrNotFound)
	}

	schemas = append(schemas[:idx], schemas[idx+1:]...)
	if err := s.repo.SaveAll(schemas); err != nil {
		return err
	}

	activeID, err := s.repo.ActiveSchemaID()
	if err != nil {
		return err
	}
	if activeID == id {
		next := ""
		if len(schemas) > 0 {
			next = schemas[0].ID
		}
		if err := s.repo.SetActiveSchemaID(next); err != nil {
			return err
		}
	}

	s.logger.Info("schema deleted", zap.String("schema_id", id))
	return nil
}

func (s *schemaStore) CreateVersion(sourceID string, mods *SchemaModifications, bump VersionBump) (*models.SchemaDefinition, error) {
	source, err := s.Get(sourceID)
	if err != nil {
		return nil, err
	}

	next := source.Clone()
	next.Version = IncrementVersion(source.Version, bump)
	next.CreatedAt = s.now()
	next.UpdatedAt = nil

	if mods != nil {
		if mods.Name != nil {
			next.Name = *mods.Name
		}
		if mods.BusinessContext != nil {
			next.BusinessContext = *mods.BusinessContext
		}
		if mods.Fields != nil {
			next.Fields = mods.Fields
		}
		if mods.Relationships != nil {
			next.Relationships = mods.Relationships
		}
	}

	newID, err := s.GenerateID(next.Name)
	if err != nil {
		return nil, err
	}
	next.ID = newID

	if err := s.Create(next); err != nil {
		return nil, err
	}

	s.logger.Info("schema version created",
		zap.String("source_id", sourceID),
		zap.String("new_id", next.ID),
		zap.String("version", next.Version))
	return next, nil
}

func (s *schemaStore) GetActive() (*models.SchemaDefinition, error) {
	activeID, err := s.repo.ActiveSchemaID()
	if err != nil {
		return nil, err
	}
	if activeID == "" {
		return nil, apperrors.ErrNoActiveSchema
	}
	return s.Get(activeID)
}

func (s *schemaStore) SetActive(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.repo.SetActiveSchemaID(id)
}

func (s *schemaStore) Export(id string) (string, error) {
	schema, err := s.Get(id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode schema %q: %w", id, err)
	}
	return string(data), nil
}

func (s *schemaStore) Import(payload string) (*models.SchemaDefinition, error) {
	var schema models.SchemaDefinition
	if err := json.Unmarshal([]byte(payload), &schema); err != nil {
		return nil, fmt.Errorf("schema import payload is not valid JSON: %v", err)
	}

	if result := s.validator.Validate(&schema); !result.Valid {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidSchema, strings.Join(result.Errors, "; "))
	}

	unique, err := s.IsIDUnique(schema.ID)
	if err != nil {
		return nil, err
	}
	if !unique {
		newID, err := s.GenerateID(schema.Name)
		if err != nil {
			return nil, err
		}
		s.logger.Info("imported schema id collides, regenerated",
			zap.String("incoming_id", schema.ID),
			zap.String("new_id", newID))
		schema.ID = newID
	}

	schema.CreatedAt = s.now()
	schema.UpdatedAt = nil

	if err := s.Create(&schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

func (s *schemaStore) IsNameUnique(name, excludeID string) (bool, error) {
	schemas, err := s.repo.LoadAll()
	if err != nil {
		return false, err
	}
	for _, schema := range schemas {
		if schema.ID != excludeID && strings.EqualFold(schema.Name, name) {
			return false, nil
		}
	}
	return true, nil
}

func (s *schemaStore) IsIDUnique(id string) (bool, error) {
	schemas, err := s.repo.LoadAll()
	if err != nil {
		return false, err
	}
	for _, schema := range schemas {
		if schema.ID == id {
			return false, nil
		}
	}
	return true, nil
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)
	slugHyphenRuns   = regexp.MustCompile(`-{2,}`)
)

// GenerateID derives a slug from the name (lowercase, spaces to hyphens,
// other characters stripped) and disambiguates with a numeric suffix
// until it is unique in the store.
func (s *schemaStore) GenerateID(name string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugHyphenRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "schema"
	}

	candidate := slug
	for n := 2; ; n++ {
		unique, err := s.IsIDUnique(candidate)
		if err != nil {
			return "", err
		}
		if unique {
			return candidate, nil
		}
		candidate = slug + "-" + strconv.Itoa(n)
	}
}

// IncrementVersion bumps a semantic version string, resetting all
// lower-order components to zero. An unparsable version resets to
// "1.0.0". An unrecognized bump defaults to minor.
func IncrementVersion(version string, bump VersionBump) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "1.0.0"
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	patch, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "1.0.0"
	}

	switch bump {
	case BumpMajor:
		return fmt.Sprintf("%d.0.0", major+1)
	case BumpPatch:
		return fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
	default: // minor is the default bump
		return fmt.Sprintf("%d.%d.0", major, minor+1)
	}
}
