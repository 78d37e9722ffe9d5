package pickandpack

import (
	"bytes"
	"encoding/json"

	"github.com/giftcampaign/backend/internal/domain/logistics"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

type request[T any] struct {
	DataCollection dataCollection[T] `json:"DATACOLLECTION"`
}

type dataCollection[T any] struct {
	Data T `json:"DATA"`
}

func wrap[T any](data T) request[T] {
	return request[T]{DataCollection: dataCollection[T]{Data: data}}
}

const (
	companyTypeVendor   = "VENDOR"
	companyTypeCustomer = "CUSTOMER"
	inventoryAvailable  = "AVAILABLE"
	routeCustomer       = "CUSTOMER"
	routeOrian          = "ORIAN"
	dateLayout          = "02-01-2006"
	bundleSeparator     = "|||"
	bundleLimit         = 120
)

type inboundData struct {
	Consignee     string       `json:"CONSIGNEE"`
	OrderID       string       `json:"ORDERID"`
	OrderType     string       `json:"ORDERTYPE"`
	SourceCompany string       `json:"SOURCECOMPANY"`
	CompanyType   string       `json:"COMPANYTYPE"`
	CreateDate    string       `json:"CREATEDATE"`
	Lines         inboundLines `json:"LINES"`
}

type inboundLines struct {
	Line []inboundLine `json:"LINE"`
}

type inboundLine struct {
	OrderLine        int    `json:"ORDERLINE"`
	ReferenceOrdLine int    `json:"REFERENCEORDLINE"`
	SKU              string `json:"SKU"`
	QtyOrdered       int    `json:"QTYORDERED"`
	InventoryStatus  string `json:"INVENTORYSTATUS"`
	SKUDescription   string `json:"SKUDESCRIPTION"`
	ManufacturerSKU  string `json:"MANUFACTURERSKU"`
}

type outboundData struct {
	Consignee      string          `json:"CONSIGNEE"`
	OrderID        string          `json:"ORDERID"`
	OrderType      string          `json:"ORDERTYPE"`
	ReferenceOrd   string          `json:"REFERENCEORD"`
	CompanyName    string          `json:"COMPANYNAME"`
	CompanyType    string          `json:"COMPANYTYPE"`
	RequestedDate  string          `json:"REQUESTEDDATE"`
	CreateDate     string          `json:"CREATEDATE"`
	Route          string          `json:"ROUTE"`
	Notes          string          `json:"NOTES"`
	ShippingDetail shippingDetail  `json:"SHIPPINGDETAIL"`
	Contact        outboundContact `json:"CONTACT"`
	Bundle         string          `json:"BUNDLE"`
	Lines          outboundLines   `json:"LINES"`
}

type shippingDetail struct {
	DeliveryComments string `json:"DELIVERYCOMMENTS"`
}

type outboundContact struct {
	Street1       string `json:"STREET1"`
	Street2       string `json:"STREET2"`
	City          string `json:"CITY"`
	Contact1Name  string `json:"CONTACT1NAME"`
	Contact2Name  string `json:"CONTACT2NAME"`
	Contact1Phone string `json:"CONTACT1PHONE"`
	Contact2Phone string `json:"CONTACT2PHONE"`
	Contact1Email string `json:"CONTACT1EMAIL"`
	Contact2Email string `json:"CONTACT2EMAIL"`
}

type outboundLines struct {
	Line []outboundLine `json:"LINE"`
}

type outboundLine struct {
	OrderLine        int    `json:"ORDERLINE"`
	ReferenceOrdLine int    `json:"REFERENCEORDLINE"`
	SKU              string `json:"SKU"`
	QtyOriginal      int    `json:"QTYORIGINAL"`
	InventoryStatus  string `json:"INVENTORYSTATUS"`
	SKUDescription   string `json:"SKUDESCRIPTION"`
	ManufacturerSKU  string `json:"MANUFACTURERSKU"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

type inboundResponse struct {
	PriorityPOID text `json:"PRIORITYPOID"`
	Status       text `json:"STATUS"`
}

type outboundResponse struct {
	PriorityOrderID text `json:"PRIORITY_ORDER_ID"`
}

// text accepts a JSON string or number; Pick&Pack is not consistent
type text string

// UnmarshalJSON implements json.Unmarshaler
func (t *text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*t = text(n.String())
	return nil
}

// ---------------------------------------------------------------------------
// Webhook messages
// ---------------------------------------------------------------------------

// Webhook message types
const (
	TypeInboundStatusChange       = "inboundStatusChange"
	TypeInboundReceipt            = "inboundReceipt"
	TypeOrderStatusChange         = "orderStatusChange"
	TypeOrderShippingStatusChange = "orderShippingStatusChange"
	TypeSnapshot                  = "snapshot"
)

// webhookEnvelope is the body of every webhook call
type webhookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type inboundStatusMessage struct {
	PriorityPOID text `json:"PRIORITYPOID"`
	OrderID      text `json:"ORDERID"`
	Status       text `json:"STATUS"`
}

type receiptMessage struct {
	PriorityPOID     text         `json:"PRIORITYPOID"`
	Receipt          text         `json:"RECEIPT"`
	StartReceiptDate string       `json:"STARTRECEIPTDATE"`
	Status           text         `json:"STATUS"`
	Lines            receiptLines `json:"LINES"`
}

type receiptLines struct {
	Line logistics.OneOrMany[receiptLine] `json:"LINE"`
}

type receiptLine struct {
	SKU         text               `json:"SKU"`
	QtyReceived logistics.LooseInt `json:"QTYRECEIVED"`
	ReceiptLine logistics.LooseInt `json:"RECEIPTLINE"`
}

type orderStatusMessage struct {
	OrderID text `json:"ORDERID"`
	Status  text `json:"STATUS"`
}

type shipOrderMessage struct {
	OrderID        text `json:"ORDERID"`
	ShippingStatus text `json:"SHIPPING_STATUS"`
	ShipNumber     text `json:"SHIPNU"`
}

type snapshotMessage struct {
	SnapshotDateTime string         `json:"snapshotDateTime"`
	Lines            []snapshotLine `json:"lines"`
}

type snapshotLine struct {
	SKU      text               `json:"sku"`
	Quantity logistics.LooseInt `json:"quantity"`
}
