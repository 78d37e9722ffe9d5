// Package logistics runs the warehouse integration: ingestion and processing
// of provider events, the status ledger, stock snapshots and outbound orders.
package logistics

import (
	"fmt"

	"github.com/giftcampaign/backend/internal/domain/logistics"
)

// Task names handled by this package
const (
	TaskProcessEvent  = "logistics.process_event"
	TaskSendOrder     = "logistics.send_order"
	TaskSyncSnapshots = "logistics.sync_snapshots"
)

// ProcessEventArgs are the arguments of TaskProcessEvent
type ProcessEventArgs struct {
	EventID int64 `json:"event_id"`
}

// SendOrderArgs are the arguments of TaskSendOrder
type SendOrderArgs struct {
	OrderID int64 `json:"order_id"`
}

// Providers holds the configured adapters and decoders and the provider new
// shipments are sent to
type Providers struct {
	active   logistics.Provider
	adapters map[logistics.Provider]logistics.SyncAdapter
	decoders map[logistics.Provider]logistics.MessageDecoder
}

// NewProviders creates an empty set sending shipments to active
func NewProviders(active logistics.Provider) *Providers {
	return &Providers{
		active:   active,
		adapters: make(map[logistics.Provider]logistics.SyncAdapter),
		decoders: make(map[logistics.Provider]logistics.MessageDecoder),
	}
}

// AddAdapter registers an adapter under its provider
func (p *Providers) AddAdapter(a logistics.SyncAdapter) *Providers {
	p.adapters[a.Provider()] = a
	return p
}

// AddDecoder registers a decoder under its provider
func (p *Providers) AddDecoder(d logistics.MessageDecoder) *Providers {
	p.decoders[d.Provider()] = d
	return p
}

// Active returns the adapter of the active provider
func (p *Providers) Active() (logistics.SyncAdapter, error) {
	a, ok := p.adapters[p.active]
	if !ok {
		return nil, fmt.Errorf("%w: %s", logistics.ErrProviderNotConfigured, p.active)
	}
	return a, nil
}

// Decoder returns the decoder of provider
func (p *Providers) Decoder(provider logistics.Provider) (logistics.MessageDecoder, error) {
	d, ok := p.decoders[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", logistics.ErrProviderNotConfigured, provider)
	}
	return d, nil
}
