package ordering

import (
	"strings"
	"time"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle status of a customer order
type OrderStatus string

const (
	OrderStatusIncomplete            OrderStatus = "INCOMPLETE"
	OrderStatusPending               OrderStatus = "PENDING"
	OrderStatusCancelled             OrderStatus = "CANCELLED"
	OrderStatusSentToLogisticsCenter OrderStatus = "SENT_TO_LOGISTIC_CENTER"
	OrderStatusComplete              OrderStatus = "COMPLETE"
)

// AllocatableStatuses are the order statuses whose line items can be
// attached to purchase order lines
var AllocatableStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusSentToLogisticsCenter,
}

// DeliveryLocation selects where an employee group's orders are shipped
type DeliveryLocation string

const (
	DeliveryToHome   DeliveryLocation = "ToHome"
	DeliveryToOffice DeliveryLocation = "ToOffice"
)

// Organization is the customer company running a campaign
type Organization struct {
	ID           int64
	Name         string
	ManagerName  string
	ManagerPhone string
	ManagerEmail string
}

// EmployeeGroup is a group of campaign employees sharing delivery settings
type EmployeeGroup struct {
	ID                      int64
	Name                    string
	DeliveryLocation        DeliveryLocation
	CampaignEmployeeGroupID int64
	OfficeStreet            string
	OfficeStreetNumber      string
	OfficeApartment         string
	OfficeCity              string
	Organization            Organization
}

// ShipsToOffice reports whether orders of the group go to the office address
func (g *EmployeeGroup) ShipsToOffice() bool {
	return g.DeliveryLocation == DeliveryToOffice
}

// DeliveryAddress is the home delivery contact stored on an order
type DeliveryAddress struct {
	FullName          string
	Phone             string
	AdditionalPhone   string
	City              string
	Street            string
	StreetNumber      string
	Apartment         string
	AdditionalDetails string
}

// OrderLineItem is one requested product of an order.
// PurchaseOrderLineItemID is its allocation to a supply commitment.
type OrderLineItem struct {
	ID                      int64
	OrderID                 int64
	ProductID               int64
	Product                 *catalog.Product
	Quantity                int
	VoucherValue            *decimal.Decimal
	Variations              map[string]string
	PurchaseOrderLineItemID *int64
	// PurchaseOrderStatus is the status of the attached purchase order, if loaded
	PurchaseOrderStatus string
}

// IsAttached reports whether the line item is allocated
func (li *OrderLineItem) IsAttached() bool {
	return li.PurchaseOrderLineItemID != nil
}

// Order is a customer order placed in a campaign
type Order struct {
	shared.BaseEntity
	OrderNumber    string
	Status         OrderStatus
	CampaignID     int64
	OrganizationID int64
	EmployeeGroup  EmployeeGroup
	EmployeeName   string
	EmployeePhone  string
	EmployeeEmail  string
	Delivery       DeliveryAddress
	LineItems      []OrderLineItem

	LogisticsProvider        string
	LogisticsCenterID        string
	LogisticsStatus          string
	LogisticsStatusChangedAt *time.Time
	ShippingNumber           string
}

// CanSendToLogistics reports whether the order may be submitted as an outbound shipment
func (o *Order) CanSendToLogistics() bool {
	return o.Status == OrderStatusPending
}

// MarkSentToLogistics records a successful outbound submission
func (o *Order) MarkSentToLogistics(provider, externalID string) {
	o.Status = OrderStatusSentToLogisticsCenter
	o.LogisticsProvider = provider
	if externalID != "" {
		o.LogisticsCenterID = externalID
	}
	o.UpdatedAt = time.Now()
}

var poStatusLabels = map[string]string{
	"PENDING":          "WAITING",
	"SENT_TO_SUPPLIER": "PO_SENT",
	"APPROVED":         "IN_TRANSIT",
}

// POStatus summarizes the purchase order progress of the order's line items
func (o *Order) POStatus() string {
	seen := make(map[string]struct{})
	labels := make([]string, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		label, ok := poStatusLabels[li.PurchaseOrderStatus]
		if !ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return strings.Join(labels, ",")
}
