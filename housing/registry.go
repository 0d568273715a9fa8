package housing

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultRegistrySize = 16

// Registry keeps recently uploaded datasets in memory. Evicted uploads are
// gone; the client uploads again.
type Registry struct {
	cache *lru.Cache[string, *Dataset]
}

// NewRegistry keeps at most size datasets, evicting the least recently used.
func NewRegistry(size int) (*Registry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	cache, err := lru.New[string, *Dataset](size)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache}, nil
}

// Add assigns ds a fresh ID and stores it.
func (r *Registry) Add(ds *Dataset) string {
	ds.ID = uuid.NewString()
	r.cache.Add(ds.ID, ds)
	return ds.ID
}

// Get returns the dataset stored under id and marks it recently used.
func (r *Registry) Get(id string) (*Dataset, bool) {
	return r.cache.Get(id)
}

// Remove reports whether id was stored.
func (r *Registry) Remove(id string) bool {
	return r.cache.Remove(id)
}

func (r *Registry) Len() int {
	return r.cache.Len()
}
