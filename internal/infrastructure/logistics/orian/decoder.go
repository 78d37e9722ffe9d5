package orian

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/giftcampaign/backend/internal/domain/logistics"
)

// Queue names Orian publishes to
const (
	QueueReceipt           = "CloseeReceipt_NKS"
	QueueOrderStatusChange = "OrderStatusChange_NKS"
	QueueShipOrder         = "ShipOrder_NKS"
)

// messageTimeLayout is the layout of dates in Orian messages
const messageTimeLayout = "01/02/2006 03:04:05 PM"

var wireTypes = map[string]logistics.MessageType{
	QueueReceipt:           logistics.MessageTypeInboundReceipt,
	QueueOrderStatusChange: logistics.MessageTypeOrderStatusChange,
	QueueShipOrder:         logistics.MessageTypeShipOrder,
}

// QueueMessageType returns the message type published to an Orian queue
func QueueMessageType(queue string) (logistics.MessageType, bool) {
	t, ok := wireTypes[queue]
	return t, ok
}

// Decoder implements logistics.MessageDecoder for Orian
type Decoder struct {
	ids      logistics.IDMapper
	location *time.Location
}

// NewDecoder creates a decoder. Message dates are read in loc.
func NewDecoder(idPrefix string, loc *time.Location) *Decoder {
	if loc == nil {
		loc = time.UTC
	}
	return &Decoder{ids: logistics.NewIDMapper(idPrefix), location: loc}
}

// Provider implements logistics.MessageDecoder
func (d *Decoder) Provider() logistics.Provider {
	return logistics.ProviderOrian
}

// Classify accepts queue names and canonical message type names
func (d *Decoder) Classify(wireType string) (logistics.MessageType, bool) {
	if t, ok := wireTypes[wireType]; ok {
		return t, true
	}
	t := logistics.MessageType(strings.ToUpper(wireType))
	return t, t.IsValid() && t != logistics.MessageTypeInboundStatusChange
}

// Decode parses a stored Orian event
func (d *Decoder) Decode(event *logistics.LogisticsEvent) (logistics.Message, error) {
	switch event.MessageType {
	case logistics.MessageTypeInboundReceipt:
		return d.decodeReceipt(event.Body)
	case logistics.MessageTypeOrderStatusChange:
		return d.decodeOrderStatus(event.Body)
	case logistics.MessageTypeShipOrder:
		return d.decodeShipOrder(event.Body)
	case logistics.MessageTypeSnapshot:
		return d.decodeSnapshot(event.Body, event.EffectiveTime())
	}
	return nil, fmt.Errorf("%w: orian %s", logistics.ErrUnknownMessageType, event.MessageType)
}

// ValidateEnvelope checks the fields a queue's messages must carry before
// they are stored
func ValidateEnvelope(messageType logistics.MessageType, body []byte) error {
	data, err := unwrap(body)
	if err != nil {
		return err
	}
	var fields struct {
		Receipt string `json:"RECEIPT"`
		OrderID string `json:"ORDERID"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return malformed("payload is not an object")
	}
	switch messageType {
	case logistics.MessageTypeInboundReceipt:
		if fields.Receipt == "" {
			return malformed("RECEIPT is missing")
		}
	case logistics.MessageTypeOrderStatusChange, logistics.MessageTypeShipOrder:
		if fields.OrderID == "" {
			return malformed("ORDERID is missing")
		}
	}
	return nil
}

func (d *Decoder) decodeReceipt(body []byte) (logistics.Message, error) {
	var msg receiptMessage
	if err := decodeData(body, &msg); err != nil {
		return nil, err
	}
	if msg.Receipt == "" {
		return nil, malformed("RECEIPT is missing")
	}
	started, err := d.parseTime("STARTRECEIPTDATE", msg.StartReceiptDate)
	if err != nil {
		return nil, err
	}
	receipt := logistics.InboundReceipt{
		Code:      msg.Receipt,
		Status:    msg.Status,
		StartedAt: started,
	}
	if msg.CloseReceiptDate != "" {
		closed, err := d.parseTime("CLOSERECEIPTDATE", msg.CloseReceiptDate)
		if err != nil {
			return nil, err
		}
		receipt.ClosedAt = &closed
	}
	for _, l := range msg.Lines.Line {
		poID, ok := d.ids.FromProvider(l.OrderID)
		if !ok {
			return nil, malformed(fmt.Sprintf("receipt line %d has unknown ORDERID %q", l.ReceiptLine, l.OrderID))
		}
		receipt.Lines = append(receipt.Lines, logistics.InboundReceiptLine{
			LineNumber:      l.ReceiptLine.Int(),
			PurchaseOrderID: poID,
			SKU:             l.SKU,
			Quantity:        l.QtyReceived.Int(),
		})
	}
	return receipt, nil
}

func (d *Decoder) decodeOrderStatus(body []byte) (logistics.Message, error) {
	var msg orderStatusMessage
	if err := decodeData(body, &msg); err != nil {
		return nil, err
	}
	if msg.OrderID == "" || msg.ToStatus == "" {
		return nil, malformed("ORDERID and TOSTATUS are required")
	}
	at, err := d.parseTime("STATUSDATE", msg.StatusDate)
	if err != nil {
		return nil, err
	}
	return logistics.OrderStatusChange{Order: d.orderRef(msg.OrderID), Status: msg.ToStatus, At: at}, nil
}

func (d *Decoder) decodeShipOrder(body []byte) (logistics.Message, error) {
	var msg shipOrderMessage
	if err := decodeData(body, &msg); err != nil {
		return nil, err
	}
	if msg.OrderID == "" || msg.Status == "" {
		return nil, malformed("ORDERID and STATUS are required")
	}
	at, err := d.parseTime("SHIPPEDDATE", msg.ShippedDate)
	if err != nil {
		return nil, err
	}
	return logistics.ShipNotice{Order: d.orderRef(msg.OrderID), Status: msg.Status, At: at}, nil
}

func (d *Decoder) decodeSnapshot(body []byte, takenAt time.Time) (logistics.Message, error) {
	var file snapshotFile
	if err := xml.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("%w: orian snapshot: %v", logistics.ErrMalformedMessage, err)
	}
	lines := make([]logistics.SnapshotLine, 0, len(file.Lines))
	for _, l := range file.Lines {
		lines = append(lines, logistics.SnapshotLine{SKU: strings.TrimSpace(l.SKU), Quantity: l.Qty.Int()})
	}
	return logistics.StockSnapshot{TakenAt: takenAt, Lines: lines}, nil
}

// orderRef keeps the order number and also the numeric id older outbounds
// were sent with
func (d *Decoder) orderRef(orderID string) logistics.OrderRef {
	ref := logistics.OrderRef{OrderNumber: orderID}
	if id, ok := d.ids.FromProvider(orderID); ok {
		ref.LegacyID = id
	}
	return ref
}

func (d *Decoder) parseTime(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(messageTimeLayout, strings.TrimSpace(value), d.location)
	if err != nil {
		return time.Time{}, malformed(fmt.Sprintf("%s %q is not a valid date", field, value))
	}
	return t, nil
}

// envelope locates the DATA object. Messages from the queues carry
// DATACOLLECTION at the top level; the webhook wraps the same document, or
// only its DATA object, under "data".
type envelope struct {
	DataCollection *struct {
		Data json.RawMessage `json:"DATA"`
	} `json:"DATACOLLECTION"`
	Data json.RawMessage `json:"data"`
}

func (e envelope) collection() (json.RawMessage, bool) {
	if e.DataCollection == nil || len(e.DataCollection.Data) == 0 {
		return nil, false
	}
	return e.DataCollection.Data, true
}

func unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed("body is not a JSON object")
	}
	if data, ok := env.collection(); ok {
		return data, nil
	}
	if len(env.Data) > 0 {
		var inner envelope
		if err := json.Unmarshal(env.Data, &inner); err == nil {
			if data, ok := inner.collection(); ok {
				return data, nil
			}
		}
		return env.Data, nil
	}
	return nil, malformed("DATACOLLECTION.DATA is missing")
}

func decodeData(body []byte, v any) error {
	data, err := unwrap(body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: orian: %v", logistics.ErrMalformedMessage, err)
	}
	return nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: orian: %s", logistics.ErrMalformedMessage, reason)
}

var _ logistics.MessageDecoder = (*Decoder)(nil)
