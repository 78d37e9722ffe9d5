package pickandpack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/textclean"
	"go.uber.org/zap"
)

const (
	// maxResponseSize limits the response body read from Pick&Pack
	maxResponseSize = 1 << 20

	apartmentLabel = "דירה"
)

// Adapter implements logistics.SyncAdapter for Pick&Pack. Suppliers and
// products need no registration; inbound and outbound payloads carry
// descriptions inline.
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

// NewAdapter creates a Pick&Pack adapter
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
	a.logger = a.logger.Named("pickandpack")
	return a, nil
}

// Provider implements logistics.SyncAdapter
func (a *Adapter) Provider() logistics.Provider {
	return logistics.ProviderPickAndPack
}

// SyncSupplier is a no-op
func (a *Adapter) SyncSupplier(context.Context, *catalog.Supplier) error { return nil }

// SyncProduct is a no-op
func (a *Adapter) SyncProduct(context.Context, *catalog.Product) error { return nil }

// SubmitInbound announces a purchase order and returns the Pick&Pack
// purchase order id
func (a *Adapter) SubmitInbound(ctx context.Context, shipment logistics.InboundShipment, at time.Time) (logistics.InboundAck, error) {
	data := inboundData{
		Consignee:     a.config.Consignee,
		OrderID:       a.ids.ToProvider(shipment.PurchaseOrderID),
		OrderType:     "PO",
		SourceCompany: clean(shipment.Supplier.Name),
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
			SKUDescription:   clean(l.Description),
			ManufacturerSKU:  clean(l.ManufacturerSKU),
		})
	}

	var resp inboundResponse
	if err := a.post(ctx, "submit_inbound", a.config.InboundURL, wrap(data), &resp); err != nil {
		return logistics.InboundAck{}, err
	}
	return logistics.InboundAck{
		LogisticsCenterID: string(resp.PriorityPOID),
		Status:            string(resp.Status),
	}, nil
}

// SubmitOutbound sends a customer order and returns the Pick&Pack order id
func (a *Adapter) SubmitOutbound(ctx context.Context, shipment logistics.OutboundShipment, at time.Time) (logistics.OutboundAck, error) {
	date := at.In(a.config.location()).Format(dateLayout)
	data := outboundData{
		Consignee:      a.config.Consignee,
		OrderID:        shipment.OrderNumber,
		OrderType:      companyTypeCustomer,
		CompanyType:    companyTypeCustomer,
		RequestedDate:  date,
		CreateDate:     date,
		Route:          routeOrian,
		ShippingDetail: shippingDetail{DeliveryComments: clean(shipment.DeliveryComments)},
		Contact: outboundContact{
			Street1:       clean(shipment.Address.Street + " " + shipment.Address.StreetNumber),
			City:          clean(shipment.Address.City),
			Contact1Name:  clean(shipment.Contact1.Name),
			Contact2Name:  clean(shipment.Contact2.Name),
			Contact1Phone: clean(shipment.Contact1.Phone),
			Contact2Phone: clean(shipment.Contact2.Phone),
			Contact1Email: clean(shipment.Contact1.Email),
			Contact2Email: clean(shipment.Contact2.Email),
		},
	}
	if shipment.ToOffice {
		data.Route = routeCustomer
		data.CompanyName = clean(shipment.CompanyName)
		data.ReferenceOrd = a.ids.ToProvider(shipment.GroupingID)
	}
	if shipment.Address.Apartment != "" {
		data.Contact.Street2 = clean(apartmentLabel + " " + shipment.Address.Apartment)
	}
	if len(shipment.BundleSKUs) > 0 {
		bundle := strings.Join(shipment.BundleSKUs, bundleSeparator)
		data.Bundle = textclean.Truncate(bundle, bundleLimit)
		if data.Bundle != bundle {
			a.logger.Warn("bundle list truncated",
				zap.String("order_number", shipment.OrderNumber),
				zap.Int("bundles", len(shipment.BundleSKUs)))
		}
	}
	for i, l := range shipment.Lines {
		data.Lines.Line = append(data.Lines.Line, outboundLine{
			OrderLine:        i,
			ReferenceOrdLine: i,
			SKU:              l.SKU,
			QtyOriginal:      l.Quantity,
			InventoryStatus:  inventoryAvailable,
			SKUDescription:   clean(l.Description),
			ManufacturerSKU:  clean(l.ManufacturerSKU),
		})
	}

	var resp outboundResponse
	if err := a.post(ctx, "submit_outbound", a.config.OutboundURL, wrap(data), &resp); err != nil {
		return logistics.OutboundAck{}, err
	}
	return logistics.OutboundAck{LogisticsCenterID: string(resp.PriorityOrderID)}, nil
}

// clean removes characters Pick&Pack cannot store
func clean(s string) string {
	return textclean.Strip(s, textclean.DoubleQuote)
}

// post sends payload to url and decodes the JSON answer into out
func (a *Adapter) post(ctx context.Context, operation, url string, payload, out any) (err error) {
	start := time.Now()
	defer func() {
		a.observer.ProviderCall(ctx, string(logistics.ProviderPickAndPack), operation, time.Since(start), err)
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pickandpack: failed to marshal %s request: %w", operation, err)
	}
	if a.config.Verbose {
		a.logger.Info("sending request", zap.String("operation", operation), zap.ByteString("payload", body))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pickandpack: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.Token)
	}

	httpResp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pickandpack: %s request failed: %w", operation, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("pickandpack: failed to read %s response: %w", operation, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		a.logger.Error("request rejected",
			zap.String("operation", operation),
			zap.Int("http_status", httpResp.StatusCode),
			zap.ByteString("response", raw),
			zap.ByteString("request", body))
		return fmt.Errorf("%w: pickandpack %s returned HTTP %d", logistics.ErrProviderRejected, operation, httpResp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		a.logger.Error("response is not JSON", zap.String("operation", operation), zap.ByteString("response", raw))
		return fmt.Errorf("%w: pickandpack %s returned a non-JSON body", logistics.ErrProviderRejected, operation)
	}

	a.logger.Debug("request succeeded", zap.String("operation", operation), zap.ByteString("response", raw))
	return nil
}

var _ logistics.SyncAdapter = (*Adapter)(nil)
