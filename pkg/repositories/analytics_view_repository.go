package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amantaras/call-center-performance-sub001/pkg/blobstore"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

const analyticsViewsBlob = "analytics_views"

// AnalyticsViewRepository persists saved analytics view definitions.
type AnalyticsViewRepository interface {
	// LoadAll returns every saved view in store order.
	LoadAll() ([]*models.AnalyticsView, error)

	// ListBySchema returns the views referencing the given schema id.
	ListBySchema(schemaID string) ([]*models.AnalyticsView, error)

	// SaveAll atomically replaces the whole collection.
	SaveAll(views []*models.AnalyticsView) error
}

type blobAnalyticsViewRepository struct {
	store blobstore.Store
}

// NewAnalyticsViewRepository creates a repository backed by the given store.
func NewAnalyticsViewRepository(store blobstore.Store) AnalyticsViewRepository {
	return &blobAnalyticsViewRepository{store: store}
}

var _ AnalyticsViewRepository = (*blobAnalyticsViewRepository)(nil)

func (r *blobAnalyticsViewRepository) LoadAll() ([]*models.AnalyticsView, error) {
	data, err := r.store.Load(analyticsViewsBlob)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return []*models.AnalyticsView{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load analytics views: %w", err)
	}

	var views []*models.AnalyticsView
	if err := json.Unmarshal(data, &views); err != nil {
		return nil, fmt.Errorf("decode analytics views: %w", err)
	}
	return views, nil
}

func (r *blobAnalyticsViewRepository) ListBySchema(schemaID string) ([]*models.AnalyticsView, error) {
	views, err := r.LoadAll()
	if err != nil {
		return nil, err
	}
	var out []*models.AnalyticsView
	for _, v := range views {
		if v.SchemaID == schemaID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *blobAnalyticsViewRepository) SaveAll(views []*models.AnalyticsView) error {
	if views == nil {
		views = []*models.AnalyticsView{}
	}
	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analytics views: %w", err)
	}
	if err := r.store.Save(analyticsViewsBlob, data); err != nil {
		return fmt.Errorf("save analytics views: %w", err)
	}
	return nil
}
