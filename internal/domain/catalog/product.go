package catalog

import (
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductKind distinguishes how a product is fulfilled
type ProductKind string

const (
	ProductKindPhysical  ProductKind = "PHYSICAL"
	ProductKindMoney     ProductKind = "MONEY"
	ProductKindBundle    ProductKind = "BUNDLE"
	ProductKindVariation ProductKind = "VARIATION"
)

// IsValid checks if the kind is known
func (k ProductKind) IsValid() bool {
	switch k {
	case ProductKindPhysical, ProductKindMoney, ProductKindBundle, ProductKindVariation:
		return true
	}
	return false
}

// ProductType describes logistics handling of a product
type ProductType string

const (
	ProductTypeRegular        ProductType = "REGULAR"
	ProductTypeLargeProduct   ProductType = "LARGE_PRODUCT"
	ProductTypeSentBySupplier ProductType = "SENT_BY_SUPPLIER"
)

// MaxProviderCodeLength is the longest SKU or manufacturer reference the
// warehouse providers accept
const MaxProviderCodeLength = 22

// BundleItem is one constituent of a bundle product
type BundleItem struct {
	Product  *Product
	Quantity int
}

// Product is the catalog item as seen by procurement and logistics
type Product struct {
	shared.BaseEntity
	SKU               string
	Reference         string
	Name              string
	LocalName         string
	CostPrice         decimal.Decimal
	Kind              ProductKind
	Type              ProductType
	SupplierID        int64
	BundleItems       []BundleItem
	LatestStockLineID *int64
}

// DisplayName returns the local name when present, otherwise the name
func (p *Product) DisplayName() string {
	if p.LocalName != "" {
		return p.LocalName
	}
	return p.Name
}

// IsMoney reports whether the product is a monetary voucher
func (p *Product) IsMoney() bool {
	return p.Kind == ProductKindMoney
}

// IsBundle reports whether the product expands into constituents on shipment
func (p *Product) IsBundle() bool {
	return p.Kind == ProductKindBundle
}

// IsSentBySupplier reports whether the supplier ships the product directly
func (p *Product) IsSentBySupplier() bool {
	return p.Type == ProductTypeSentBySupplier
}

// ShipsFromWarehouse reports whether the product goes through a logistics provider
func (p *Product) ShipsFromWarehouse() bool {
	return !p.IsMoney() && !p.IsSentBySupplier()
}

// ValidateProviderCodes checks the SKU and reference fit provider limits
func (p *Product) ValidateProviderCodes() error {
	if len(p.SKU) > MaxProviderCodeLength {
		return shared.Errorf(shared.ErrInvalidInput,
			"product %d: sku %q is longer than %d characters", p.ID, p.SKU, MaxProviderCodeLength)
	}
	if len(p.Reference) > MaxProviderCodeLength {
		return shared.Errorf(shared.ErrInvalidInput,
			"product %d: reference %q is longer than %d characters", p.ID, p.Reference, MaxProviderCodeLength)
	}
	return nil
}
