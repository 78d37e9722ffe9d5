package logistics

import (
	"context"
	"time"

	"github.com/giftcampaign/backend/internal/domain/catalog"
)

// InboundAck is the provider acknowledgement of an inbound shipment
type InboundAck struct {
	LogisticsCenterID string
	Status            string
}

// OutboundAck is the provider acknowledgement of an outbound shipment
type OutboundAck struct {
	LogisticsCenterID string
}

// SyncAdapter pushes local master data and shipments to a provider.
// Implementations do not retry; a non-nil error means the call failed.
type SyncAdapter interface {
	Provider() Provider
	SyncSupplier(ctx context.Context, supplier *catalog.Supplier) error
	SyncProduct(ctx context.Context, product *catalog.Product) error
	SubmitInbound(ctx context.Context, shipment InboundShipment, at time.Time) (InboundAck, error)
	SubmitOutbound(ctx context.Context, shipment OutboundShipment, at time.Time) (OutboundAck, error)
}

// CustomerSyncer is implemented by providers that need the shipping customer
// company registered before each outbound
type CustomerSyncer interface {
	SyncCustomer(ctx context.Context) error
}

// CallObserver is notified after every provider call
type CallObserver interface {
	ProviderCall(ctx context.Context, provider, operation string, duration time.Duration, err error)
}

// NopCallObserver ignores provider calls
type NopCallObserver struct{}

// ProviderCall implements CallObserver
func (NopCallObserver) ProviderCall(context.Context, string, string, time.Duration, error) {}
