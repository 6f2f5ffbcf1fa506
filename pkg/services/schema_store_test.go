package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/apperrors"
	"github.com/amantaras/call-center-performance-sub001/pkg/blobstore"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
	"github.com/amantaras/call-center-performance-sub001/pkg/repositories"
)

func newTestStore(t *testing.T) SchemaStore {
	t.Helper()
	repo := repositories.NewSchemaRepository(blobstore.NewMemoryStore())
	return NewSchemaStore(repo, NewSchemaValidator(), zap.NewNop())
}

func TestCreateFirstSchemaBecomesActive(t *testing.T) {
	store := newTestStore(t)

	schema := validSchema()
	require.NoError(t, store.Create(schema))

	active, err := store.GetActive()
	require.NoError(t, err)
	assert.Equal(t, schema.ID, active.ID)
	assert.False(t, active.CreatedAt.IsZero())

	// A second schema does not steal the pointer.
	second := validSchema()
	second.ID = "second"
	second.Name = "Second"
	require.NoError(t, store.Create(second))

	active, err = store.GetActive()
	require.NoError(t, err)
	assert.Equal(t, schema.ID, active.ID)
}

func TestCreateRejectsInvalidAndDuplicate(t *testing.T) {
	store := newTestStore(t)

	bad := validSchema()
	bad.Fields = nil
	err := store.Create(bad)
	require.ErrorIs(t, err, apperrors.ErrInvalidSchema)

	require.NoError(t, store.Create(validSchema()))
	err = store.Create(validSchema())
	require.ErrorIs(t, err, apperrors.ErrDuplicateID)
}

func TestUpdateStampsUpdatedAtAndKeepsVersion(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Create(validSchema()))

	edited := validSchema()
	edited.BusinessContext = "Revised context"
	require.NoError(t, store.Update(edited))

	got, err := store.Get(edited.ID)
	require.NoError(t, err)
	assert.Equal(t, "Revised context", got.BusinessContext)
	assert.Equal(t, "1.0.0", got.Version)
	require.NotNil(t, got.UpdatedAt)

	missing := validSchema()
	missing.ID = "nope"
	require.ErrorIs(t, store.Update(missing), apperrors.ErrNotFound)
}

func TestDeleteRefusedWhileRecordsDepend(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Create(validSchema()))

	err := store.Delete("debt-collection", 7)
	require.ErrorIs(t, err, apperrors.ErrSchemaInUse)
	assert.Contains(t, err.Error(), "7 call records")

	// Still there.
	_, err = store.Get("debt-collection")
	require.NoError(t, err)
}

func TestDeleteActivePromotesNextSchema(t *testing.T) {
	store := newTestStore(t)

	first := validSchema()
	require.NoError(t, store.Create(first))
	second := validSchema()
	second.ID = "second"
	second.Name = "Second"
	require.NoError(t, store.Create(second))

	require.NoError(t, store.Delete(first.ID, 0))

	active, err := store.GetActive()
	require.NoError(t, err)
	assert.Equal(t, "second", active.ID)

	// Deleting the last schema clears the pointer.
	require.NoError(t, store.Delete("second", 0))
	_, err = store.GetActive()
	require.ErrorIs(t, err, apperrors.ErrNoActiveSchema)
}

func TestSetActiveRequiresExistingSchema(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Create(validSchema()))

	require.ErrorIs(t, store.SetActive("ghost"), apperrors.ErrNotFound)
	require.NoError(t, store.SetActive("debt-collection"))
}

func TestCreateVersionMinorBump(t *testing.T) {
	store := newTestStore(t)
	source := validSchema()
	require.NoError(t, store.Create(source))

	name := "Debt Collection v2"
	next, err := store.CreateVersion(source.ID, &SchemaModifications{Name: &name}, BumpMinor)
	require.NoError(t, err)

	assert.Equal(t, "1.1.0", next.Version)
	assert.Equal(t, "debt-collection-v2", next.ID)
	assert.Equal(t, name, next.Name)
	assert.Nil(t, next.UpdatedAt)
	assert.False(t, next.CreatedAt.IsZero())

	// Source untouched.
	got, err := store.Get(source.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", got.Version)
	assert.Equal(t, "Debt Collection", got.Name)

	// Both versions now coexist in the store.
	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateVersionMergesModifications(t *testing.T) {
	store := newTestStore(t)
	source := validSchema()
	require.NoError(t, store.Create(source))

	fields := append(validSchema().Fields, models.Field{
		ID: "days_overdue", Name: "days_overdue", DisplayName: "Days Overdue",
		Type: models.FieldTypeNumber, SemanticRole: models.RoleMetric,
	})
	next, err := store.CreateVersion(source.ID, &SchemaModifications{Fields: fields}, BumpMajor)
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", next.Version)
	assert.Len(t, next.Fields, 5)
	assert.True(t, next.HasField("days_overdue"))
}

func TestCreateVersionValidatesResult(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Create(validSchema()))

	// Dropping the classification field must fail the derived version.
	fields := validSchema().Fields[:2]
	_, err := store.CreateVersion("debt-collection", &SchemaModifications{Fields: fields}, BumpMinor)
	require.ErrorIs(t, err, apperrors.ErrInvalidSchema)
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Create(validSchema()))

	payload, err := store.Export("debt-collection")
	require.NoError(t, err)

	// Importing into the same store collides on id; a fresh one is
	// generated from the name.
	imported, err := store.Import(payload)
	require.NoError(t, err)
	assert.Equal(t, "debt-collection-2", imported.ID)

	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImportRejectsGarbageAndInvalid(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Import("{not json")
	require.Error(t, err)

	_, err = store.Import(`{"id":"x","name":"X","version":"1.0.0"}`)
	require.ErrorIs(t, err, apperrors.ErrInvalidSchema)
}

func TestIsNameUnique(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Create(validSchema()))

	unique, err := store.IsNameUnique("debt collection", "")
	require.NoError(t, err)
	assert.False(t, unique, "name comparison is case-insensitive")

	unique, err = store.IsNameUnique("Debt Collection", "debt-collection")
	require.NoError(t, err)
	assert.True(t, unique, "excluded id does not count against itself")
}

func TestGenerateID(t *testing.T) {
	store := newTestStore(t)

	id, err := store.GenerateID("  Telecom Support -- EMEA!  ")
	require.NoError(t, err)
	assert.Equal(t, "telecom-support-emea", id)

	id, err = store.GenerateID("!!!")
	require.NoError(t, err)
	assert.Equal(t, "schema", id)

	require.NoError(t, store.Create(validSchema()))
	id, err = store.GenerateID("Debt Collection")
	require.NoError(t, err)
	assert.Equal(t, "debt-collection-2", id)
}

func TestIncrementVersion(t *testing.T) {
	tests := []struct {
		version string
		bump    VersionBump
		want    string
	}{
		{"1.2.3", BumpMajor, "2.0.0"},
		{"1.2.3", BumpMinor, "1.3.0"},
		{"1.2.3", BumpPatch, "1.2.4"},
		{"1.2.3", "", "1.3.0"},       // unknown bump defaults to minor
		{"garbage", BumpMinor, "1.0.0"},
		{"1.2", BumpPatch, "1.0.0"},
		{"1.x.0", BumpMajor, "1.0.0"},
	}

	for _, tt := range tests {
		got := IncrementVersion(tt.version, tt.bump)
		assert.Equal(t, tt.want, got, "IncrementVersion(%q, %q)", tt.version, tt.bump)
	}
}
