package models

import (
	"context"
	"time"
)

// Tenant is an isolated theater account. The full tenant registry (plans,
// contacts, RBAC) lives in the platform backend; the ledger only needs
// identity.
type Tenant struct {
	ID        string    `gorm:"size:36;primaryKey" json:"id"` // uuid
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Product is a concession item sold by a tenant (popcorn, soda, ...).
type Product struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	TenantId  string    `gorm:"size:36;index;not null" json:"tenant_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Registry is the lookup surface of the external tenant/product registry.
// The ledger verifies existence before accepting a movement and resolves
// display names for reports; it owns no other tenant/product metadata.
type Registry interface {
	TenantExists(ctx context.Context, tenantId string) (bool, error)
	ProductExists(ctx context.Context, tenantId string, productId int) (bool, error)
	ProductNames(ctx context.Context, tenantId string, productIds []int) (map[int]string, error)
}
