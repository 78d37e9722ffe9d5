package logistics

import (
	"testing"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, sku string, kind catalog.ProductKind, typ catalog.ProductType) *catalog.Product {
	p := &catalog.Product{SKU: sku, Reference: "REF-" + sku, Name: "Name " + sku, Kind: kind, Type: typ}
	p.ID = id
	return p
}

func testOrder(location ordering.DeliveryLocation) *ordering.Order {
	mug := product(1, "MUG", catalog.ProductKindPhysical, catalog.ProductTypeRegular)
	pen := product(2, "PEN", catalog.ProductKindPhysical, catalog.ProductTypeRegular)
	direct := product(3, "SOFA", catalog.ProductKindPhysical, catalog.ProductTypeSentBySupplier)
	voucher := product(4, "GIFTCARD", catalog.ProductKindMoney, catalog.ProductTypeRegular)
	bundle := product(5, "BOX", catalog.ProductKindBundle, catalog.ProductTypeRegular)
	bundle.BundleItems = []catalog.BundleItem{{Product: mug, Quantity: 2}, {Product: pen, Quantity: 1}, {Product: voucher, Quantity: 1}}

	order := &ordering.Order{
		OrderNumber:   "ORD-1",
		EmployeeName:  "Dana",
		EmployeePhone: "050-1",
		EmployeeEmail: "dana@example.com",
		Delivery: ordering.DeliveryAddress{
			FullName: "Dana Home", Phone: "050-2", AdditionalPhone: "050-3",
			City: "Haifa", Street: "Herzl", StreetNumber: "5", Apartment: "7", AdditionalDetails: "ring twice",
		},
		EmployeeGroup: ordering.EmployeeGroup{
			DeliveryLocation:        location,
			CampaignEmployeeGroupID: 77,
			OfficeStreet:            "Rothschild",
			OfficeStreetNumber:      "1",
			OfficeCity:              "Tel Aviv",
			Organization: ordering.Organization{
				Name: "Acme", ManagerName: "Noa", ManagerPhone: "03-1", ManagerEmail: "noa@acme.test",
			},
		},
		LineItems: []ordering.OrderLineItem{
			{Product: pen, Quantity: 1},
			{Product: bundle, Quantity: 2},
			{Product: direct, Quantity: 1},
			{Product: voucher, Quantity: 1},
		},
	}
	order.ID = 10
	return order
}

func TestBuildOutboundShipment_Office(t *testing.T) {
	s, ok := BuildOutboundShipment(testOrder(ordering.DeliveryToOffice))
	require.True(t, ok)

	assert.True(t, s.ToOffice)
	assert.Equal(t, int64(77), s.GroupingID)
	assert.Equal(t, "Acme", s.CompanyName)
	assert.Equal(t, Address{Street: "Rothschild", StreetNumber: "1", City: "Tel Aviv"}, s.Address)
	assert.Equal(t, "", s.DeliveryComments)
	assert.Equal(t, Contact{Name: "Dana", Phone: "050-1", Email: "dana@example.com"}, s.Contact1)
	assert.Equal(t, Contact{Name: "Noa", Phone: "03-1", Email: "noa@acme.test"}, s.Contact2)
	assert.Equal(t, []string{"BOX", "BOX"}, s.BundleSKUs)

	require.Len(t, s.Lines, 3)
	assert.Equal(t, ShipmentLine{SKU: "PEN", Description: "Name PEN", ManufacturerSKU: "REF-PEN", Quantity: 1}, s.Lines[0])
	assert.Equal(t, "MUG", s.Lines[1].SKU)
	assert.Equal(t, 4, s.Lines[1].Quantity)
	assert.Equal(t, "PEN", s.Lines[2].SKU)
	assert.Equal(t, 2, s.Lines[2].Quantity)
}

func TestBuildOutboundShipment_Home(t *testing.T) {
	s, ok := BuildOutboundShipment(testOrder(ordering.DeliveryToHome))
	require.True(t, ok)

	assert.False(t, s.ToOffice)
	assert.Zero(t, s.GroupingID)
	assert.Empty(t, s.CompanyName)
	assert.Equal(t, Address{Street: "Herzl", StreetNumber: "5", Apartment: "7", City: "Haifa"}, s.Address)
	assert.Equal(t, "ring twice", s.DeliveryComments)
	assert.Equal(t, Contact{Name: "Dana Home", Phone: "050-2", Email: "dana@example.com"}, s.Contact1)
	assert.Equal(t, Contact{Name: "Dana Home", Phone: "050-3"}, s.Contact2)
}

func TestBuildOutboundShipment_NothingToShip(t *testing.T) {
	order := testOrder(ordering.DeliveryToHome)
	order.LineItems = order.LineItems[2:]

	_, ok := BuildOutboundShipment(order)
	assert.False(t, ok)
}

func TestBuildInboundShipment(t *testing.T) {
	supplier := &catalog.Supplier{Name: "Supplier"}
	supplier.ID = 3
	po := &procurement.PurchaseOrder{
		SupplierID: 3,
		Supplier:   supplier,
		LineItems: []procurement.LineItem{
			{ProductID: 1, Product: product(1, "MUG", catalog.ProductKindPhysical, catalog.ProductTypeRegular), Quantity: 4},
			{ProductID: 2, Product: product(2, "PEN", catalog.ProductKindPhysical, catalog.ProductTypeRegular), Quantity: 9},
		},
	}
	po.ID = 55

	s := BuildInboundShipment(po)
	assert.Equal(t, int64(55), s.PurchaseOrderID)
	assert.Equal(t, "Supplier", s.Supplier.Name)
	require.Len(t, s.Lines, 2)
	assert.Equal(t, ShipmentLine{SKU: "PEN", Description: "Name PEN", ManufacturerSKU: "REF-PEN", Quantity: 9}, s.Lines[1])
}
