package orian

import "github.com/giftcampaign/backend/internal/domain/logistics"

// ---------------------------------------------------------------------------
// Request envelopes
// ---------------------------------------------------------------------------

// request wraps every payload sent to Orian
type request[T any] struct {
	DataCollection dataCollection[T] `json:"DATACOLLECTION"`
}

type dataCollection[T any] struct {
	Data T `json:"DATA"`
}

func wrap[T any](data T) request[T] {
	return request[T]{DataCollection: dataCollection[T]{Data: data}}
}

// response is the answer to every call. Orian spells success two ways.
type response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

var successStatuses = map[string]struct{}{
	"SUCCESS":  {},
	"SUCCSESS": {},
}

func (r response) ok() bool {
	_, ok := successStatuses[r.Status]
	return ok
}

const (
	companyTypeVendor   = "VENDOR"
	companyTypeCustomer = "CUSTOMER"
	inventoryAvailable  = "AVAILABLE"
	uomEach             = "EACH"
	routeCustomer       = "CUSTOMER"
	routeOrian          = "ORIAN"
	dateLayout          = "02-01-2006"
)

// ---------------------------------------------------------------------------
// Company
// ---------------------------------------------------------------------------

type companyData struct {
	Consignee   string          `json:"CONSIGNEE"`
	CompanyType string          `json:"COMPANYTYPE"`
	Company     string          `json:"COMPANY"`
	CompanyName string          `json:"COMPANYNAME"`
	Contacts    companyContacts `json:"CONTACTS"`
}

type companyContacts struct {
	Contact []companyContact `json:"CONTACT"`
}

type companyContact struct {
	Street1       string `json:"STREET1"`
	City          string `json:"CITY"`
	Contact1Name  string `json:"CONTACT1NAME"`
	Contact1Phone string `json:"CONTACT1PHONE"`
}

// ---------------------------------------------------------------------------
// SKU
// ---------------------------------------------------------------------------

type skuData struct {
	Consignee       string        `json:"CONSIGNEE"`
	SKU             string        `json:"SKU"`
	SKUDescription  string        `json:"SKUDESCRIPTION"`
	SKUShortDesc    string        `json:"SKUSHORTDESC"`
	ManufacturerSKU string        `json:"MANUFACTURERSKU"`
	VendorSKU       string        `json:"VENDORSKU"`
	OtherSKU        string        `json:"OTHERSKU"`
	InitialStatus   string        `json:"INITIALSTATUS"`
	Notes           string        `json:"NOTES"`
	UOMCollection   uomCollection `json:"UOMCOLLECTION"`
	DefaultUOM      string        `json:"DEFAULTUOM"`
}

type uomCollection struct {
	UOMObj []uomObj `json:"UOMOBJ"`
}

type uomObj struct {
	UOM string `json:"UOM"`
}

// ---------------------------------------------------------------------------
// Inbound
// ---------------------------------------------------------------------------

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
}

// ---------------------------------------------------------------------------
// Outbound
// ---------------------------------------------------------------------------

type outboundData struct {
	Consignee      string          `json:"CONSIGNEE"`
	OrderID        string          `json:"ORDERID"`
	OrderType      string          `json:"ORDERTYPE"`
	ReferenceOrd   string          `json:"REFERENCEORD"`
	TargetCompany  string          `json:"TARGETCOMPANY"`
	CompanyType    string          `json:"COMPANYTYPE"`
	RequestedDate  string          `json:"REQUESTEDDATE"`
	CreateDate     string          `json:"CREATEDATE"`
	Route          string          `json:"ROUTE"`
	Notes          string          `json:"NOTES"`
	ShippingDetail shippingDetail  `json:"SHIPPINGDETAIL"`
	Contact        outboundContact `json:"CONTACT"`
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
}

// ---------------------------------------------------------------------------
// Incoming messages
// ---------------------------------------------------------------------------

type receiptMessage struct {
	Receipt          string       `json:"RECEIPT"`
	Status           string       `json:"STATUS"`
	StartReceiptDate string       `json:"STARTRECEIPTDATE"`
	CloseReceiptDate string       `json:"CLOSERECEIPTDATE"`
	Lines            receiptLines `json:"LINES"`
}

type receiptLines struct {
	Line logistics.OneOrMany[receiptLine] `json:"LINE"`
}

type receiptLine struct {
	OrderID     string             `json:"ORDERID"`
	SKU         string             `json:"SKU"`
	QtyReceived logistics.LooseInt `json:"QTYRECEIVED"`
	ReceiptLine logistics.LooseInt `json:"RECEIPTLINE"`
}

type orderStatusMessage struct {
	OrderID    string `json:"ORDERID"`
	ToStatus   string `json:"TOSTATUS"`
	StatusDate string `json:"STATUSDATE"`
}

type shipOrderMessage struct {
	OrderID     string `json:"ORDERID"`
	Status      string `json:"STATUS"`
	ShippedDate string `json:"SHIPPEDDATE"`
}

// snapshotFile is the XML stock report dropped on the SFTP server
type snapshotFile struct {
	Lines []snapshotFileLine `xml:"DATA"`
}

type snapshotFileLine struct {
	SKU string             `xml:"SKU"`
	Qty logistics.LooseInt `xml:"QTY"`
}
