package repository

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/plune/chzzk-clip/internal/models"
)

// CatalogRepository caches resolved video catalogs for the lifetime of the
// process so repeated acquisitions of the same link skip the metadata and
// manifest round trips. Keys are hashes of the resolved video number.
type CatalogRepository struct {
	cache *lru.Cache
}

func NewCatalogRepository() (*CatalogRepository, error) {
	cache, err := lru.New(10_000)
	if err != nil {
		return nil, err
	}

	return &CatalogRepository{
		cache: cache,
	}, nil
}

func (r *CatalogRepository) Add(key string, meta *models.VideoMetadata) {
	r.cache.Add(key, meta)
}

func (r *CatalogRepository) Get(key string) (*models.VideoMetadata, bool) {
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}

	meta, ok := v.(*models.VideoMetadata)
	if !ok {
		r.cache.Remove(key)
		return nil, false
	}

	return meta, true
}
