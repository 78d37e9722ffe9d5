package orian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/textclean"
	"go.uber.org/zap"
)

const (
	// maxResponseSize limits the response body read from Orian
	maxResponseSize = 1 << 20

	skuDescriptionLimit = 255
	skuShortDescLimit   = 150
	apartmentLabel      = "דירה"
)

// Adapter implements logistics.SyncAdapter and logistics.CustomerSyncer for Orian
type Adapter struct {
	config     *Config
	ids        logistics.IDMapper
	httpClient *http.Client
	observer   logistics.CallObserver
	logger     *zap.Logger
}

// Option configures an Adapter
type Option func(*Adapter)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// WithObserver reports every call to o
func WithObserver(o logistics.CallObserver) Option {
	return func(a *Adapter) { a.observer = o }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter creates an Orian adapter
func NewAdapter(cfg *Config, opts ...Option) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Adapter{
		config:     cfg,
		ids:        logistics.NewIDMapper(cfg.IDPrefix),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		observer:   logistics.NopCallObserver{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("orian")
	return a, nil
}

// Provider implements logistics.SyncAdapter
func (a *Adapter) Provider() logistics.Provider {
	return logistics.ProviderOrian
}

// SyncSupplier registers the supplier as a VENDOR company
func (a *Adapter) SyncSupplier(ctx context.Context, supplier *catalog.Supplier) error {
	return a.syncCompany(ctx, "sync_supplier", companyData{
		Consignee:   a.config.Consignee,
		CompanyType: companyTypeVendor,
		Company:     a.ids.ToProvider(supplier.ID),
		CompanyName: supplier.Name,
		Contacts: companyContacts{Contact: []companyContact{{
			Street1:       supplier.Street + " " + supplier.StreetNumber,
			City:          supplier.City,
			Contact1Name:  supplier.Name,
			Contact1Phone: supplier.Phone,
		}}},
	})
}

// SyncCustomer registers the dummy CUSTOMER company outbounds target
func (a *Adapter) SyncCustomer(ctx context.Context) error {
	c := a.config.DummyCustomer
	return a.syncCompany(ctx, "sync_customer", companyData{
		Consignee:   a.config.Consignee,
		CompanyType: companyTypeCustomer,
		Company:     a.ids.ToProvider(c.ID),
		CompanyName: c.Name,
		Contacts: companyContacts{Contact: []companyContact{{
			Street1:       c.Street + " " + c.StreetNumber,
			City:          c.City,
			Contact1Name:  c.Name,
			Contact1Phone: c.Phone,
		}}},
	})
}

func (a *Adapter) syncCompany(ctx context.Context, operation string, data companyData) error {
	_, err := a.post(ctx, operation, "/Company", wrap(data))
	return err
}

// SyncProduct creates or updates the product's SKU
func (a *Adapter) SyncProduct(ctx context.Context, product *catalog.Product) error {
	name := product.LocalName
	if name == "" {
		name = product.Name
	}
	name = textclean.Strip(name, textclean.Quotes)

	_, err := a.post(ctx, "sync_product", "/Sku", wrap(skuData{
		Consignee:       a.config.Consignee,
		SKU:             product.SKU,
		SKUDescription:  textclean.Truncate(name, skuDescriptionLimit),
		SKUShortDesc:    textclean.Truncate(name, skuShortDescLimit),
		ManufacturerSKU: product.Reference,
		InitialStatus:   inventoryAvailable,
		UOMCollection:   uomCollection{UOMObj: []uomObj{{UOM: uomEach}}},
		DefaultUOM:      uomEach,
	}))
	return err
}

// SubmitInbound announces a purchase order. Orian does not return its own
// identifier, so the acknowledgement carries the NKS id that was sent.
func (a *Adapter) SubmitInbound(ctx context.Context, shipment logistics.InboundShipment, at time.Time) (logistics.InboundAck, error) {
	orderID := a.ids.ToProvider(shipment.PurchaseOrderID)
	data := inboundData{
		Consignee:     a.config.Consignee,
		OrderID:       orderID,
		OrderType:     "PO",
		SourceCompany: a.ids.ToProvider(shipment.Supplier.ID),
		CompanyType:   companyTypeVendor,
		CreateDate:    at.In(a.config.location()).Format(dateLayout),
	}
	for i, l := range shipment.Lines {
		data.Lines.Line = append(data.Lines.Line, inboundLine{
			OrderLine:        i,
			ReferenceOrdLine: i,
			SKU:              l.SKU,
			QtyOrdered:       l.Quantity,
			InventoryStatus:  inventoryAvailable,
		})
	}

	if _, err := a.post(ctx, "submit_inbound", "/Inbound", wrap(data)); err != nil {
		return logistics.InboundAck{}, err
	}
	return logistics.InboundAck{LogisticsCenterID: orderID}, nil
}

// SubmitOutbound sends a customer order. Orian tracks it by order number and
// returns no identifier of its own. Office shipments are grouped by
// the campaign employee group and delivered by the customer route; home
// shipments are delivered by Orian.
func (a *Adapter) SubmitOutbound(ctx context.Context, shipment logistics.OutboundShipment, at time.Time) (logistics.OutboundAck, error) {
	date := at.In(a.config.location()).Format(dateLayout)
	data := outboundData{
		Consignee:      a.config.Consignee,
		OrderID:        shipment.OrderNumber,
		OrderType:      companyTypeCustomer,
		TargetCompany:  a.ids.ToProvider(a.config.DummyCustomer.ID),
		CompanyType:    companyTypeCustomer,
		RequestedDate:  date,
		CreateDate:     date,
		Route:          routeOrian,
		ShippingDetail: shippingDetail{DeliveryComments: shipment.DeliveryComments},
		Contact: outboundContact{
			Street1:       shipment.Address.Street + " " + shipment.Address.StreetNumber,
			City:          shipment.Address.City,
			Contact1Name:  shipment.Contact1.Name,
			Contact2Name:  shipment.Contact2.Name,
			Contact1Phone: shipment.Contact1.Phone,
			Contact2Phone: shipment.Contact2.Phone,
			Contact1Email: shipment.Contact1.Email,
			Contact2Email: shipment.Contact2.Email,
		},
	}
	if shipment.ToOffice {
		data.Route = routeCustomer
		data.ReferenceOrd = a.ids.ToProvider(shipment.GroupingID)
	}
	if shipment.Address.Apartment != "" {
		data.Contact.Street2 = apartmentLabel + " " + shipment.Address.Apartment
	}
	for i, l := range shipment.Lines {
		data.Lines.Line = append(data.Lines.Line, outboundLine{
			OrderLine:        i,
			ReferenceOrdLine: i,
			SKU:              l.SKU,
			QtyOriginal:      l.Quantity,
			InventoryStatus:  inventoryAvailable,
		})
	}

	if _, err := a.post(ctx, "submit_outbound", "/Outbound", wrap(data)); err != nil {
		return logistics.OutboundAck{}, err
	}
	return logistics.OutboundAck{}, nil
}

// post sends payload to path and checks the status allow-list
func (a *Adapter) post(ctx context.Context, operation, path string, payload any) (resp response, err error) {
	start := time.Now()
	defer func() {
		a.observer.ProviderCall(ctx, string(logistics.ProviderOrian), operation, time.Since(start), err)
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return resp, fmt.Errorf("orian: failed to marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return resp, fmt.Errorf("orian: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// Orian only accepts the lower-case scheme
	req.Header.Set("Authorization", "bearer "+a.config.Token)

	httpResp, err := a.httpClient.Do(req)
	if err != nil {
		return resp, fmt.Errorf("orian: %s request failed: %w", operation, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return resp, fmt.Errorf("orian: failed to read %s response: %w", operation, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		a.logger.Error("request rejected",
			zap.String("operation", operation),
			zap.Int("http_status", httpResp.StatusCode),
			zap.ByteString("response", raw))
		return resp, fmt.Errorf("%w: orian %s returned HTTP %d", logistics.ErrProviderRejected, operation, httpResp.StatusCode)
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, fmt.Errorf("%w: orian %s returned a non-JSON body", logistics.ErrProviderRejected, operation)
	}
	if !resp.ok() {
		a.logger.Error("request failed",
			zap.String("operation", operation),
			zap.String("status", resp.Status),
			zap.ByteString("request", body))
		return resp, fmt.Errorf("%w: orian %s returned status %q", logistics.ErrProviderRejected, operation, resp.Status)
	}

	a.logger.Debug("request succeeded", zap.String("operation", operation), zap.ByteString("response", raw))
	return resp, nil
}

var (
	_ logistics.SyncAdapter    = (*Adapter)(nil)
	_ logistics.CustomerSyncer = (*Adapter)(nil)
)
