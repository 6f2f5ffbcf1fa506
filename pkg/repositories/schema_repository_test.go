package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amantaras/call-center-performance-sub001/pkg/blobstore"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

func TestSchemaRepositoryEmptyStore(t *testing.T) {
	repo := NewSchemaRepository(blobstore.NewMemoryStore())

	schemas, err := repo.LoadAll()
	require.NoError(t, err)
	assert.NotNil(t, schemas)
	assert.Empty(t, schemas)

	id, err := repo.ActiveSchemaID()
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestSchemaRepositoryRoundTrip(t *testing.T) {
	repo := NewSchemaRepository(blobstore.NewMemoryStore())

	in := []*models.SchemaDefinition{
		{
			ID: "s1", Name: "First", Version: "1.0.0", BusinessContext: "ctx",
			Fields: []models.Field{
				{ID: "agent", Name: "agent", DisplayName: "Agent", Type: models.FieldTypeString, SemanticRole: models.RoleParticipant1},
			},
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{ID: "s2", Name: "Second", Version: "2.1.0"},
	}
	require.NoError(t, repo.SaveAll(in))

	out, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "s1", out[0].ID, "store order preserved")
	assert.Equal(t, in[0].CreatedAt, out[0].CreatedAt)
	assert.Equal(t, models.RoleParticipant1, out[0].Fields[0].SemanticRole)
}

func TestSchemaRepositoryActivePointer(t *testing.T) {
	repo := NewSchemaRepository(blobstore.NewMemoryStore())

	require.NoError(t, repo.SetActiveSchemaID("s1"))
	id, err := repo.ActiveSchemaID()
	require.NoError(t, err)
	assert.Equal(t, "s1", id)

	// "" clears the pointer.
	require.NoError(t, repo.SetActiveSchemaID(""))
	id, err = repo.ActiveSchemaID()
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestSchemaRepositoryToleratesBarePointer(t *testing.T) {
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Save("active_schema", []byte("s1\n")))

	repo := NewSchemaRepository(store)
	id, err := repo.ActiveSchemaID()
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
}

func TestSchemaRepositoryNilSaveWritesEmptyCollection(t *testing.T) {
	store := blobstore.NewMemoryStore()
	repo := NewSchemaRepository(store)

	require.NoError(t, repo.SaveAll(nil))
	data, err := store.Load("schemas")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestSchemaRepositoryCorruptBlob(t *testing.T) {
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Save("schemas", []byte("{broken")))

	_, err := NewSchemaRepository(store).LoadAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode schema collection")
}
