package models

import (
	"time"

	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// OrganizationModel is the persistence model for campaign organizations.
type OrganizationModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"type:varchar(255);not null"`
	ManagerName  string `gorm:"type:varchar(255)"`
	ManagerPhone string `gorm:"type:varchar(50)"`
	ManagerEmail string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// EmployeeGroupModel is the persistence model for campaign employee groups.
type EmployeeGroupModel struct {
	ID                      int64                     `gorm:"primaryKey;autoIncrement"`
	Name                    string                    `gorm:"type:varchar(255)"`
	DeliveryLocation        ordering.DeliveryLocation `gorm:"type:varchar(20);not null;default:'ToHome'"`
	CampaignEmployeeGroupID int64
	OfficeStreet            string             `gorm:"type:varchar(255)"`
	OfficeStreetNumber      string             `gorm:"type:varchar(50)"`
	OfficeApartment         string             `gorm:"type:varchar(50)"`
	OfficeCity              string             `gorm:"type:varchar(100)"`
	OrganizationID          int64              `gorm:"index"`
	Organization            *OrganizationModel `gorm:"foreignKey:OrganizationID;references:ID"`
}

// TableName returns the table name for GORM
func (EmployeeGroupModel) TableName() string {
	return "employee_groups"
}

// ToDomain converts the persistence model to a domain EmployeeGroup.
func (m *EmployeeGroupModel) ToDomain() ordering.EmployeeGroup {
	g := ordering.EmployeeGroup{
		ID:                      m.ID,
		Name:                    m.Name,
		DeliveryLocation:        m.DeliveryLocation,
		CampaignEmployeeGroupID: m.CampaignEmployeeGroupID,
		OfficeStreet:            m.OfficeStreet,
		OfficeStreetNumber:      m.OfficeStreetNumber,
		OfficeApartment:         m.OfficeApartment,
		OfficeCity:              m.OfficeCity,
	}
	if m.Organization != nil {
		g.Organization = ordering.Organization{
			ID:           m.Organization.ID,
			Name:         m.Organization.Name,
			ManagerName:  m.Organization.ManagerName,
			ManagerPhone: m.Organization.ManagerPhone,
			ManagerEmail: m.Organization.ManagerEmail,
		}
	}
	return g
}

// OrderModel is the persistence model for customer orders. Only the status
// and logistics columns are written by this service.
type OrderModel struct {
	BaseModel
	OrderNumber     string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status          ordering.OrderStatus `gorm:"type:varchar(30);not null;index"`
	CampaignID      int64                `gorm:"index"`
	OrganizationID  int64                `gorm:"index"`
	EmployeeGroupID int64
	EmployeeGroup   *EmployeeGroupModel `gorm:"foreignKey:EmployeeGroupID;references:ID"`
	EmployeeName    string              `gorm:"type:varchar(255)"`
	EmployeePhone   string              `gorm:"type:varchar(50)"`
	EmployeeEmail   string              `gorm:"type:varchar(255)"`

	DeliveryFullName          string `gorm:"type:varchar(255)"`
	DeliveryPhone             string `gorm:"type:varchar(50)"`
	DeliveryAdditionalPhone   string `gorm:"type:varchar(50)"`
	DeliveryCity              string `gorm:"type:varchar(100)"`
	DeliveryStreet            string `gorm:"type:varchar(255)"`
	DeliveryStreetNumber      string `gorm:"type:varchar(50)"`
	DeliveryApartment         string `gorm:"type:varchar(50)"`
	DeliveryAdditionalDetails string `gorm:"type:text"`

	LogisticsProvider              string `gorm:"type:varchar(30)"`
	LogisticsCenterID              string `gorm:"type:varchar(100)"`
	LogisticsCenterStatus          string `gorm:"type:varchar(100)"`
	LogisticsCenterStatusChangedAt *time.Time
	LogisticsCenterShippingNumber  string               `gorm:"type:varchar(100)"`
	LineItems                      []OrderLineItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *ordering.Order {
	o := &ordering.Order{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrderNumber:    m.OrderNumber,
		Status:         m.Status,
		CampaignID:     m.CampaignID,
		OrganizationID: m.OrganizationID,
		EmployeeName:   m.EmployeeName,
		EmployeePhone:  m.EmployeePhone,
		EmployeeEmail:  m.EmployeeEmail,
		Delivery: ordering.DeliveryAddress{
			FullName:          m.DeliveryFullName,
			Phone:             m.DeliveryPhone,
			AdditionalPhone:   m.DeliveryAdditionalPhone,
			City:              m.DeliveryCity,
			Street:            m.DeliveryStreet,
			StreetNumber:      m.DeliveryStreetNumber,
			Apartment:         m.DeliveryApartment,
			AdditionalDetails: m.DeliveryAdditionalDetails,
		},
		LogisticsProvider:        m.LogisticsProvider,
		LogisticsCenterID:        m.LogisticsCenterID,
		LogisticsStatus:          m.LogisticsCenterStatus,
		LogisticsStatusChangedAt: m.LogisticsCenterStatusChangedAt,
		ShippingNumber:           m.LogisticsCenterShippingNumber,
		LineItems:                make([]ordering.OrderLineItem, len(m.LineItems)),
	}
	if m.EmployeeGroup != nil {
		o.EmployeeGroup = m.EmployeeGroup.ToDomain()
	}
	for i := range m.LineItems {
		o.LineItems[i] = m.LineItems[i].ToDomain()
	}
	return o
}

// OrderLineItemModel is the persistence model for order line items.
type OrderLineItemModel struct {
	ID                      int64            `gorm:"primaryKey;autoIncrement"`
	OrderID                 int64            `gorm:"not null;index"`
	ProductID               int64            `gorm:"not null;index"`
	Product                 *ProductModel    `gorm:"foreignKey:ProductID;references:ID"`
	Quantity                int              `gorm:"not null"`
	VoucherValue            *decimal.Decimal `gorm:"type:decimal(18,2)"`
	Variations              string           `gorm:"type:jsonb;not null;default:'{}'"`
	PurchaseOrderLineItemID *int64           `gorm:"index"`
	// Filled by queries joining purchase orders; never stored.
	PurchaseOrderStatus string `gorm:"->;-:migration"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain OrderLineItem.
func (m *OrderLineItemModel) ToDomain() ordering.OrderLineItem {
	li := ordering.OrderLineItem{
		ID:                      m.ID,
		OrderID:                 m.OrderID,
		ProductID:               m.ProductID,
		Quantity:                m.Quantity,
		VoucherValue:            m.VoucherValue,
		Variations:              DecodeVariations(m.Variations),
		PurchaseOrderLineItemID: m.PurchaseOrderLineItemID,
		PurchaseOrderStatus:     m.PurchaseOrderStatus,
	}
	if m.Product != nil {
		li.Product = m.Product.ToDomain()
	}
	return li
}
