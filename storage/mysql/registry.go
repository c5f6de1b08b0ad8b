package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/stagefront/concession_backend/models"
)

// Registry is the gorm-backed view of the platform's tenant/product registry.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) TenantExists(ctx context.Context, tenantId string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", tenantId).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("tenant lookup: %w", err)
	}
	return count > 0, nil
}

func (r *Registry) ProductExists(ctx context.Context, tenantId string, productId int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantId, productId).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("product lookup: %w", err)
	}
	return count > 0, nil
}

func (r *Registry) ProductNames(ctx context.Context, tenantId string, productIds []int) (map[int]string, error) {
	if len(productIds) == 0 {
		return map[int]string{}, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantId, productIds).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("product names: %w", err)
	}
	names := make(map[int]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

var _ models.Registry = (*Registry)(nil)
