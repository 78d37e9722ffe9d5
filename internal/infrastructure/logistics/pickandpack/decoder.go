package pickandpack

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/giftcampaign/backend/internal/domain/logistics"
)

const (
	receiptTimeLayout  = "01/02/2006 15:04:05 -0700"
	snapshotTimeLayout = "01/02/2006 15:04:05"
)

var wireTypes = map[string]logistics.MessageType{
	TypeInboundStatusChange:       logistics.MessageTypeInboundStatusChange,
	TypeInboundReceipt:            logistics.MessageTypeInboundReceipt,
	TypeOrderStatusChange:         logistics.MessageTypeOrderStatusChange,
	TypeOrderShippingStatusChange: logistics.MessageTypeShipOrder,
	TypeSnapshot:                  logistics.MessageTypeSnapshot,
}

// Decoder implements logistics.MessageDecoder for Pick&Pack webhook calls
type Decoder struct {
	ids      logistics.IDMapper
	location *time.Location
}

// NewDecoder creates a decoder. Snapshot times are read in loc.
func NewDecoder(idPrefix string, loc *time.Location) *Decoder {
	if loc == nil {
		loc = time.UTC
	}
	return &Decoder{ids: logistics.NewIDMapper(idPrefix), location: loc}
}

// Provider implements logistics.MessageDecoder
func (d *Decoder) Provider() logistics.Provider {
	return logistics.ProviderPickAndPack
}

// Classify accepts the webhook type names and canonical message type names
func (d *Decoder) Classify(wireType string) (logistics.MessageType, bool) {
	if t, ok := wireTypes[wireType]; ok {
		return t, true
	}
	t := logistics.MessageType(strings.ToUpper(wireType))
	return t, t.IsValid()
}

// Decode parses a stored Pick&Pack event. Status messages carry no time of
// their own and take the time the event was received.
func (d *Decoder) Decode(event *logistics.LogisticsEvent) (logistics.Message, error) {
	switch event.MessageType {
	case logistics.MessageTypeInboundStatusChange:
		return d.decodeInboundStatus(event.Body, event.EffectiveTime())
	case logistics.MessageTypeInboundReceipt:
		return d.decodeReceipt(event.Body)
	case logistics.MessageTypeOrderStatusChange:
		return d.decodeOrderStatus(event.Body, event.EffectiveTime())
	case logistics.MessageTypeShipOrder:
		return d.decodeShipOrder(event.Body, event.EffectiveTime())
	case logistics.MessageTypeSnapshot:
		return d.decodeSnapshot(event.Body)
	}
	return nil, fmt.Errorf("%w: pickandpack %s", logistics.ErrUnknownMessageType, event.MessageType)
}

func (d *Decoder) decodeInboundStatus(body []byte, at time.Time) (logistics.Message, error) {
	var msg inboundStatusMessage
	if err := decodeData(body, &msg); err != nil {
		return nil, err
	}
	if msg.Status == "" {
		return nil, malformed("STATUS is missing")
	}
	poID, ok := d.ids.FromProvider(string(msg.OrderID))
	if !ok {
		return nil, malformed(fmt.Sprintf("unknown ORDERID %q", msg.OrderID))
	}
	return logistics.InboundStatusChange{
		PurchaseOrderID:   poID,
		LogisticsCenterID: string(msg.PriorityPOID),
		Status:            string(msg.Status),
		At:                at,
	}, nil
}

func (d *Decoder) decodeReceipt(body []byte) (logistics.Message, error) {
	var msg receiptMessage
	if err := decodeData(body, &msg); err != nil {
		return nil, err
	}
	if msg.Receipt == "" || msg.PriorityPOID == "" {
		return nil, malformed("RECEIPT and PRIORITYPOID are required")
	}
	started, err := time.Parse(receiptTimeLayout, strings.TrimSpace(msg.StartReceiptDate))
	if err != nil {
		return nil, malformed(fmt.Sprintf("STARTRECEIPTDATE %q is not a valid date", msg.StartReceiptDate))
	}
	receipt := logistics.InboundReceipt{
		Code:              string(msg.Receipt),
		LogisticsCenterID: string(msg.PriorityPOID),
		Status:            string(msg.Status),
		StartedAt:         started,
	}
	for _, l := range msg.Lines.Line {
		receipt.Lines = append(receipt.Lines, logistics.InboundReceiptLine{
			LineNumber: l.ReceiptLine.Int(),
			SKU:        strings.TrimSpace(string(l.SKU)),
			Quantity:   l.QtyReceived.Int(),
		})
	}
	return receipt, nil
}

func (d *Decoder) decodeOrderStatus(body []byte, at time.Time) (logistics.Message, error) {
	var msg orderStatusMessage
	if err := decodeData(body, &msg); err != nil {
		return nil, err
	}
	if msg.OrderID == "" || msg.Status == "" {
		return nil, malformed("ORDERID and STATUS are required")
	}
	return logistics.OrderStatusChange{
		Order:  logistics.OrderRef{OrderNumber: string(msg.OrderID)},
		Status: string(msg.Status),
		At:     at,
	}, nil
}

func (d *Decoder) decodeShipOrder(body []byte, at time.Time) (logistics.Message, error) {
	var msg shipOrderMessage
	if err := decodeData(body, &msg); err != nil {
		return nil, err
	}
	if msg.OrderID == "" || msg.ShipNumber == "" {
		return nil, malformed("ORDERID and SHIPNU are required")
	}
	return logistics.ShipNotice{
		Order:          logistics.OrderRef{OrderNumber: string(msg.OrderID)},
		Status:         string(msg.ShippingStatus),
		At:             at,
		ShippingNumber: string(msg.ShipNumber),
	}, nil
}

func (d *Decoder) decodeSnapshot(body []byte) (logistics.Message, error) {
	var msg snapshotMessage
	if err := decodeData(body, &msg); err != nil {
		return nil, err
	}
	takenAt, err := time.ParseInLocation(snapshotTimeLayout, strings.TrimSpace(msg.SnapshotDateTime), d.location)
	if err != nil {
		return nil, malformed(fmt.Sprintf("snapshotDateTime %q is not a valid date", msg.SnapshotDateTime))
	}
	lines := make([]logistics.SnapshotLine, 0, len(msg.Lines))
	for _, l := range msg.Lines {
		lines = append(lines, logistics.SnapshotLine{SKU: strings.TrimSpace(string(l.SKU)), Quantity: l.Quantity.Int()})
	}
	return logistics.StockSnapshot{TakenAt: takenAt, Lines: lines}, nil
}

// decodeData reads the "data" member of the webhook envelope into v. A body
// without the envelope is read as the data itself.
func decodeData(body []byte, v any) error {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return malformed("body is not a JSON object")
	}
	data := json.RawMessage(body)
	if len(env.Data) > 0 {
		data = env.Data
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: pickandpack: %v", logistics.ErrMalformedMessage, err)
	}
	return nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: pickandpack: %s", logistics.ErrMalformedMessage, reason)
}

var _ logistics.MessageDecoder = (*Decoder)(nil)
