// Package repositories persists engine state as named JSON blobs. Each
// repository reads and writes whole collections so no reader ever
// observes a half-written state.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/amantaras/call-center-performance-sub001/pkg/blobstore"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

const (
	schemasBlob      = "schemas"
	activeSchemaBlob = "active_schema"
)

// SchemaRepository provides access to the persisted schema collection
// and the active-schema pointer.
type SchemaRepository interface {
	// LoadAll returns the full schema collection in store order.
	// An empty store yields an empty slice.
	LoadAll() ([]*models.SchemaDefinition, error)

	// SaveAll atomically replaces the whole collection.
	SaveAll(schemas []*models.SchemaDefinition) error

	// ActiveSchemaID returns the active schema id, or "" if none is set.
	ActiveSchemaID() (string, error)

	// SetActiveSchemaID updates the pointer; "" clears it.
	SetActiveSchemaID(id string) error
}

type blobSchemaRepository struct {
	store blobstore.Store
}

// NewSchemaRepository creates a repository backed by the given store.
func NewSchemaRepository(store blobstore.Store) SchemaRepository {
	return &blobSchemaRepository{store: store}
}

var _ SchemaRepository = (*blobSchemaRepository)(nil)

func (r *blobSchemaRepository) LoadAll() ([]*models.SchemaDefinition, error) {
	data, err := r.store.Load(schemasBlob)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return []*models.SchemaDefinition{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schema collection: %w", err)
	}

	var schemas []*models.SchemaDefinition
	if err := json.Unmarshal(data, &schemas); err != nil {
		return nil, fmt.Errorf("decode schema collection: %w", err)
	}
	return schemas, nil
}

func (r *blobSchemaRepository) SaveAll(schemas []*models.SchemaDefinition) error {
	if schemas == nil {
		schemas = []*models.SchemaDefinition{}
	}
	data, err := json.MarshalIndent(schemas, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema collection: %w", err)
	}
	if err := r.store.Save(schemasBlob, data); err != nil {
		return fmt.Errorf("save schema collection: %w", err)
	}
	return nil
}

func (r *blobSchemaRepository) ActiveSchemaID() (string, error) {
	data, err := r.store.Load(activeSchemaBlob)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load active schema pointer: %w", err)
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		// Tolerate a bare (unquoted) id written by older builds.
		id = strings.TrimSpace(string(data))
	}
	return id, nil
}

func (r *blobSchemaRepository) SetActiveSchemaID(id string) error {
	if id == "" {
		if err := r.store.Delete(activeSchemaBlob); err != nil {
			return fmt.Errorf("clear active schema pointer: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode active schema pointer: %w", err)
	}
	if err := r.store.Save(activeSchemaBlob, data); err != nil {
		return fmt.Errorf("save active schema pointer: %w", err)
	}
	return nil
}
