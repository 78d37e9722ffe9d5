package logistics

import (
	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/procurement"
)

// Address is a shipping address
type Address struct {
	Street       string
	StreetNumber string
	Apartment    string
	City         string
}

// Contact is a person the provider can reach about a shipment
type Contact struct {
	Name  string
	Phone string
	Email string
}

// ShipmentLine is one SKU and quantity of a shipment
type ShipmentLine struct {
	SKU             string
	Description     string
	ManufacturerSKU string
	Quantity        int
}

// InboundShipment is a purchase order as announced to a warehouse
type InboundShipment struct {
	PurchaseOrderID int64
	Supplier        catalog.Supplier
	Lines           []ShipmentLine
}

// BuildInboundShipment converts a purchase order with loaded supplier and
// products. Lines keep purchase order line order.
func BuildInboundShipment(po *procurement.PurchaseOrder) InboundShipment {
	s := InboundShipment{PurchaseOrderID: po.ID}
	if po.Supplier != nil {
		s.Supplier = *po.Supplier
	}
	for _, li := range po.LineItems {
		line := ShipmentLine{Quantity: li.Quantity}
		if li.Product != nil {
			line.SKU = li.Product.SKU
			line.Description = li.Product.DisplayName()
			line.ManufacturerSKU = li.Product.Reference
		}
		s.Lines = append(s.Lines, line)
	}
	return s
}

// OutboundShipment is a customer order as sent to a warehouse
type OutboundShipment struct {
	OrderID     int64
	OrderNumber string
	ToOffice    bool
	// GroupingID groups office shipments of one campaign employee group.
	// It is zero for home deliveries.
	GroupingID       int64
	CompanyName      string
	Address          Address
	DeliveryComments string
	Contact1         Contact
	Contact2         Contact
	// BundleSKUs holds the sku of every ordered bundle, once per unit
	BundleSKUs []string
	Lines      []ShipmentLine
}

// BuildOutboundShipment converts an order with loaded products and employee
// group. Bundles expand into their constituents. Products shipped by the
// supplier and money vouchers are left out. ok is false when no line remains.
func BuildOutboundShipment(order *ordering.Order) (s OutboundShipment, ok bool) {
	s = OutboundShipment{OrderID: order.ID, OrderNumber: order.OrderNumber}

	group := order.EmployeeGroup
	if group.ShipsToOffice() {
		s.ToOffice = true
		s.GroupingID = group.CampaignEmployeeGroupID
		s.CompanyName = group.Organization.Name
		s.Address = Address{
			Street:       group.OfficeStreet,
			StreetNumber: group.OfficeStreetNumber,
			Apartment:    group.OfficeApartment,
			City:         group.OfficeCity,
		}
		s.Contact1 = Contact{Name: order.EmployeeName, Phone: order.EmployeePhone, Email: order.EmployeeEmail}
		s.Contact2 = Contact{
			Name:  group.Organization.ManagerName,
			Phone: group.Organization.ManagerPhone,
			Email: group.Organization.ManagerEmail,
		}
	} else {
		d := order.Delivery
		s.Address = Address{Street: d.Street, StreetNumber: d.StreetNumber, Apartment: d.Apartment, City: d.City}
		s.DeliveryComments = d.AdditionalDetails
		s.Contact1 = Contact{Name: d.FullName, Phone: d.Phone, Email: order.EmployeeEmail}
		s.Contact2 = Contact{Name: d.FullName, Phone: d.AdditionalPhone}
	}

	for _, li := range order.LineItems {
		if li.Product == nil {
			continue
		}
		if li.Product.IsBundle() {
			for i := 0; i < li.Quantity; i++ {
				s.BundleSKUs = append(s.BundleSKUs, li.Product.SKU)
			}
			for _, item := range li.Product.BundleItems {
				s.appendLine(item.Product, li.Quantity*item.Quantity)
			}
			continue
		}
		s.appendLine(li.Product, li.Quantity)
	}
	return s, len(s.Lines) > 0
}

func (s *OutboundShipment) appendLine(p *catalog.Product, quantity int) {
	if p == nil || !p.ShipsFromWarehouse() {
		return
	}
	s.Lines = append(s.Lines, ShipmentLine{
		SKU:             p.SKU,
		Description:     p.DisplayName(),
		ManufacturerSKU: p.Reference,
		Quantity:        quantity,
	})
}
