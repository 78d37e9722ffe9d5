package models

import (
	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog products.
type ProductModel struct {
	BaseModel
	SKU               string               `gorm:"column:sku;type:varchar(100);not null;index"`
	Reference         string               `gorm:"type:varchar(100)"`
	Name              string               `gorm:"type:varchar(255);not null"`
	LocalName         string               `gorm:"type:varchar(255)"`
	CostPrice         decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Kind              catalog.ProductKind  `gorm:"type:varchar(20);not null;default:'PHYSICAL'"`
	Type              catalog.ProductType  `gorm:"type:varchar(30);not null;default:'REGULAR'"`
	SupplierID        int64                `gorm:"index"`
	LatestStockLineID *int64               `gorm:"index"`
	BundleItems       []ProductBundleModel `gorm:"foreignKey:BundleID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseEntity:        m.BaseModel.ToDomain(),
		SKU:               m.SKU,
		Reference:         m.Reference,
		Name:              m.Name,
		LocalName:         m.LocalName,
		CostPrice:         m.CostPrice,
		Kind:              m.Kind,
		Type:              m.Type,
		SupplierID:        m.SupplierID,
		LatestStockLineID: m.LatestStockLineID,
	}
	for _, item := range m.BundleItems {
		bi := catalog.BundleItem{Quantity: item.Quantity}
		if item.Product != nil {
			bi.Product = item.Product.ToDomain()
		} else {
			bi.Product = &catalog.Product{}
			bi.Product.ID = item.ProductID
		}
		p.BundleItems = append(p.BundleItems, bi)
	}
	return p
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.SKU = p.SKU
	m.Reference = p.Reference
	m.Name = p.Name
	m.LocalName = p.LocalName
	m.CostPrice = p.CostPrice
	m.Kind = p.Kind
	m.Type = p.Type
	m.SupplierID = p.SupplierID
	m.LatestStockLineID = p.LatestStockLineID
	m.BundleItems = nil
	for _, item := range p.BundleItems {
		if item.Product == nil {
			continue
		}
		m.BundleItems = append(m.BundleItems, ProductBundleModel{
			BundleID:  p.ID,
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
		})
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductBundleModel links a bundle product to one of its constituents.
type ProductBundleModel struct {
	ID        int64         `gorm:"primaryKey;autoIncrement"`
	BundleID  int64         `gorm:"not null;index"`
	ProductID int64         `gorm:"not null"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;references:ID"`
	Quantity  int           `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (ProductBundleModel) TableName() string {
	return "product_bundle_items"
}

// SupplierModel is the persistence model for suppliers.
type SupplierModel struct {
	BaseModel
	Name         string `gorm:"type:varchar(255);not null"`
	Street       string `gorm:"type:varchar(255)"`
	StreetNumber string `gorm:"type:varchar(50)"`
	City         string `gorm:"type:varchar(100)"`
	Phone        string `gorm:"type:varchar(50)"`
	Email        string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier.
func (m *SupplierModel) ToDomain() *catalog.Supplier {
	return &catalog.Supplier{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		Street:       m.Street,
		StreetNumber: m.StreetNumber,
		City:         m.City,
		Phone:        m.Phone,
		Email:        m.Email,
	}
}

// SupplierModelFromDomain creates a new persistence model from a domain Supplier
func SupplierModelFromDomain(s *catalog.Supplier) *SupplierModel {
	m := &SupplierModel{
		Name:         s.Name,
		Street:       s.Street,
		StreetNumber: s.StreetNumber,
		City:         s.City,
		Phone:        s.Phone,
		Email:        s.Email,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
