package catalog

import "context"

// ProductRepository reads catalog products and maintains their stock reference
type ProductRepository interface {
	// FindByID loads a product with its bundle constituents
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindByIDs loads products keyed by id
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error)

	// FindBySKUs loads products keyed by sku
	FindBySKUs(ctx context.Context, skus []string) (map[string]*Product, error)

	// ReassignLatestStockLines points every product at the line of the given
	// snapshot matching its sku, or clears the reference when none matches
	ReassignLatestStockLines(ctx context.Context, snapshotID int64) (int64, error)
}

// SupplierRepository reads suppliers
type SupplierRepository interface {
	FindByID(ctx context.Context, id int64) (*Supplier, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*Supplier, error)
}
