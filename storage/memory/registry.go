package memory

import (
	"context"
	"sync"

	"github.com/stagefront/concession_backend/models"
)

// Registry is an in-memory tenant/product registry for tests.
type Registry struct {
	mu       sync.Mutex
	tenants  map[string]string
	products map[string]map[int]string
}

func NewRegistry() *Registry {
	return &Registry{
		tenants:  make(map[string]string),
		products: make(map[string]map[int]string),
	}
}

func (r *Registry) AddTenant(tenantId, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[tenantId] = name
}

func (r *Registry) AddProduct(tenantId string, productId int, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.products[tenantId] == nil {
		r.products[tenantId] = make(map[int]string)
	}
	r.products[tenantId][productId] = name
}

func (r *Registry) TenantExists(ctx context.Context, tenantId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tenants[tenantId]
	return ok, nil
}

func (r *Registry) ProductExists(ctx context.Context, tenantId string, productId int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.products[tenantId][productId]
	return ok, nil
}

func (r *Registry) ProductNames(ctx context.Context, tenantId string, productIds []int) (map[int]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make(map[int]string, len(productIds))
	for _, id := range productIds {
		if name, ok := r.products[tenantId][id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

var _ models.Registry = (*Registry)(nil)
