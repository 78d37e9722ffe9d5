package models

import (
	"time"

	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	SupplierID              int64                        `gorm:"not null;index"`
	Supplier                *SupplierModel               `gorm:"foreignKey:SupplierID;references:ID"`
	Notes                   string                       `gorm:"type:text"`
	Status                  procurement.Status           `gorm:"type:varchar(30);not null;default:'PENDING';index"`
	LogisticsProvider       string                       `gorm:"type:varchar(30)"`
	LogisticsCenterID       string                       `gorm:"type:varchar(100)"`
	LogisticsCenterStatus   string                       `gorm:"type:varchar(100)"`
	SentToLogisticsCenterAt *time.Time                   `gorm:"column:sent_to_logistics_center_at"`
	LineItems               []PurchaseOrderLineItemModel `gorm:"foreignKey:PurchaseOrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *procurement.PurchaseOrder {
	po := &procurement.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SupplierID:        m.SupplierID,
		Notes:             m.Notes,
		Status:            m.Status,
		LogisticsProvider: m.LogisticsProvider,
		LogisticsCenterID: m.LogisticsCenterID,
		LogisticsStatus:   m.LogisticsCenterStatus,
		SentToLogisticsAt: m.SentToLogisticsCenterAt,
		LineItems:         make([]procurement.LineItem, len(m.LineItems)),
	}
	if m.Supplier != nil {
		po.Supplier = m.Supplier.ToDomain()
	}
	for i := range m.LineItems {
		po.LineItems[i] = m.LineItems[i].ToDomain()
	}
	return po
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(po *procurement.PurchaseOrder) {
	m.FromDomainAggregateRoot(po.BaseAggregateRoot)
	m.SupplierID = po.SupplierID
	m.Notes = po.Notes
	m.Status = po.Status
	m.LogisticsProvider = po.LogisticsProvider
	m.LogisticsCenterID = po.LogisticsCenterID
	m.LogisticsCenterStatus = po.LogisticsStatus
	m.SentToLogisticsCenterAt = po.SentToLogisticsAt
	m.LineItems = make([]PurchaseOrderLineItemModel, len(po.LineItems))
	for i := range po.LineItems {
		m.LineItems[i].FromDomain(&po.LineItems[i])
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder
func PurchaseOrderModelFromDomain(po *procurement.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(po)
	return m
}

// PurchaseOrderLineItemModel is the persistence model for purchase order lines.
type PurchaseOrderLineItemModel struct {
	ID                            int64            `gorm:"primaryKey;autoIncrement"`
	PurchaseOrderID               int64            `gorm:"not null;index"`
	ProductID                     int64            `gorm:"not null;index"`
	Product                       *ProductModel    `gorm:"foreignKey:ProductID;references:ID"`
	Quantity                      int              `gorm:"not null"`
	VoucherValue                  *decimal.Decimal `gorm:"type:decimal(18,2)"`
	Variations                    string           `gorm:"type:jsonb;not null;default:'{}'"`
	QuantitySentToLogisticsCenter int              `gorm:"column:quantity_sent_to_logistics_center;not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineItemModel) TableName() string {
	return "purchase_order_line_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *PurchaseOrderLineItemModel) ToDomain() procurement.LineItem {
	li := procurement.LineItem{
		ID:                      m.ID,
		PurchaseOrderID:         m.PurchaseOrderID,
		ProductID:               m.ProductID,
		Quantity:                m.Quantity,
		VoucherValue:            m.VoucherValue,
		Variations:              DecodeVariations(m.Variations),
		QuantitySentToLogistics: m.QuantitySentToLogisticsCenter,
	}
	if m.Product != nil {
		li.Product = m.Product.ToDomain()
	}
	return li
}

// FromDomain populates the persistence model from a domain LineItem.
func (m *PurchaseOrderLineItemModel) FromDomain(li *procurement.LineItem) {
	m.ID = li.ID
	m.PurchaseOrderID = li.PurchaseOrderID
	m.ProductID = li.ProductID
	m.Quantity = li.Quantity
	m.VoucherValue = li.VoucherValue
	m.Variations = EncodeVariations(li.Variations)
	m.QuantitySentToLogisticsCenter = li.QuantitySentToLogistics
}
