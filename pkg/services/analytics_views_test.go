package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/apperrors"
	"github.com/amantaras/call-center-performance-sub001/pkg/blobstore"
	"github.com/amantaras/call-center-performance-sub001/pkg/formula"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
	"github.com/amantaras/call-center-performance-sub001/pkg/repositories"
)

func newViewService(t *testing.T) (AnalyticsViewService, SchemaStore) {
	t.Helper()
	store := blobstore.NewMemoryStore()
	schemas := NewSchemaStore(repositories.NewSchemaRepository(store), NewSchemaValidator(), zap.NewNop())
	views := repositories.NewAnalyticsViewRepository(store)
	evaluator := formula.NewEvaluator(250*time.Millisecond, zap.NewNop())
	return NewAnalyticsViewService(views, schemas, evaluator, zap.NewNop()), schemas
}

func TestSaveViewGeneratesIDAndPersists(t *testing.T) {
	svc, schemas := newViewService(t)
	require.NoError(t, schemas.Create(validSchema()))

	view := &models.AnalyticsView{
		Name:     "Collected by Agent",
		SchemaID: "debt-collection",
		FieldIDs: []string{"agent", "amount"},
		Formula:  "metadata.amount * 2",
	}
	require.NoError(t, svc.Save(view))
	assert.NotEmpty(t, view.ID)
	assert.False(t, view.CreatedAt.IsZero())

	all, err := svc.List()
	require.NoError(t, err)
	require.Len(t, all, 1)

	bySchema, err := svc.ListBySchema("debt-collection")
	require.NoError(t, err)
	require.Len(t, bySchema, 1)
}

func TestSaveViewUpdatesInPlace(t *testing.T) {
	svc, schemas := newViewService(t)
	require.NoError(t, schemas.Create(validSchema()))

	view := &models.AnalyticsView{Name: "v", SchemaID: "debt-collection", FieldIDs: []string{"amount"}}
	require.NoError(t, svc.Save(view))

	view.Name = "renamed"
	require.NoError(t, svc.Save(view))
	require.NotNil(t, view.UpdatedAt)

	all, err := svc.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "renamed", all[0].Name)

	ghost := &models.AnalyticsView{ID: "no-such", Name: "x", SchemaID: "debt-collection"}
	require.ErrorIs(t, svc.Save(ghost), apperrors.ErrNotFound)
}

func TestSaveViewValidatesReferences(t *testing.T) {
	svc, schemas := newViewService(t)
	schema := validSchema()
	schema.Relationships = []models.Relationship{
		{ID: "r1", Type: models.RelationshipComplex, InvolvedFields: []string{"amount"}, Formula: "metadata.amount"},
	}
	require.NoError(t, schemas.Create(schema))

	// Unknown target schema.
	err := svc.Save(&models.AnalyticsView{Name: "v", SchemaID: "ghost"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	// Unknown field id.
	err = svc.Save(&models.AnalyticsView{Name: "v", SchemaID: "debt-collection", FieldIDs: []string{"ghost"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ghost"`)

	// Relationship ids are valid references.
	err = svc.Save(&models.AnalyticsView{Name: "v", SchemaID: "debt-collection", FieldIDs: []string{"r1"}})
	require.NoError(t, err)

	// Formulas may build on relationship outputs.
	err = svc.Save(&models.AnalyticsView{Name: "v2", SchemaID: "debt-collection", Formula: "metadata.r1 + metadata.amount"})
	require.NoError(t, err)

	// A formula outside the sandbox is refused at save time.
	err = svc.Save(&models.AnalyticsView{Name: "v3", SchemaID: "debt-collection", Formula: "os.Getenv('HOME')"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formula")
}

func TestDeleteView(t *testing.T) {
	svc, schemas := newViewService(t)
	require.NoError(t, schemas.Create(validSchema()))

	view := &models.AnalyticsView{Name: "v", SchemaID: "debt-collection"}
	require.NoError(t, svc.Save(view))

	require.NoError(t, svc.Delete(view.ID))
	all, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, all)

	require.ErrorIs(t, svc.Delete(view.ID), apperrors.ErrNotFound)
}
