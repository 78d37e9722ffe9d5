package pickandpack

import (
	"testing"
	"time"

	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	return NewDecoder("P", loc)
}

func event(messageType logistics.MessageType, body string, receivedAt time.Time) *logistics.LogisticsEvent {
	e := logistics.NewLogisticsEvent(logistics.ProviderPickAndPack, messageType, []byte(body), "")
	e.ReceivedAt = receivedAt
	return e
}

func TestDecoder_Classify(t *testing.T) {
	d := newTestDecoder(t)
	tests := []struct {
		wire string
		want logistics.MessageType
		ok   bool
	}{
		{"inboundStatusChange", logistics.MessageTypeInboundStatusChange, true},
		{"inboundReceipt", logistics.MessageTypeInboundReceipt, true},
		{"orderStatusChange", logistics.MessageTypeOrderStatusChange, true},
		{"orderShippingStatusChange", logistics.MessageTypeShipOrder, true},
		{"snapshot", logistics.MessageTypeSnapshot, true},
		{"SHIP_ORDER", logistics.MessageTypeShipOrder, true},
		{"somethingElse", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			got, ok := d.Classify(tt.wire)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecoder_InboundStatusChange(t *testing.T) {
	d := newTestDecoder(t)
	received := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	body := `{"type":"inboundStatusChange","data":{"PRIORITYPOID":"PO24001","ORDERID":"NKSP42","STATUS":"Received"}}`

	msg, err := d.Decode(event(logistics.MessageTypeInboundStatusChange, body, received))
	require.NoError(t, err)
	change := msg.(logistics.InboundStatusChange)
	assert.Equal(t, int64(42), change.PurchaseOrderID)
	assert.Equal(t, "PO24001", change.LogisticsCenterID)
	assert.Equal(t, "Received", change.Status)
	assert.True(t, change.At.Equal(received))
}

func TestDecoder_InboundStatusChange_UnknownOrderID(t *testing.T) {
	d := newTestDecoder(t)
	body := `{"type":"inboundStatusChange","data":{"PRIORITYPOID":"PO1","ORDERID":"NKSO42","STATUS":"Received"}}`

	_, err := d.Decode(event(logistics.MessageTypeInboundStatusChange, body, time.Now()))
	assert.ErrorIs(t, err, logistics.ErrMalformedMessage)
}

func TestDecoder_InboundReceipt(t *testing.T) {
	d := newTestDecoder(t)
	body := `{"type":"inboundReceipt","data":{
		"PRIORITYPOID":"PO24001","RECEIPT":"RC-7","STATUS":"Closed",
		"STARTRECEIPTDATE":"06/02/2024 14:30:00 +0300",
		"LINES":{"LINE":[{"SKU":"MUG-1","QTYRECEIVED":"10","RECEIPTLINE":1},{"SKU":"PEN-1","QTYRECEIVED":3,"RECEIPTLINE":2}]}}}`

	msg, err := d.Decode(event(logistics.MessageTypeInboundReceipt, body, time.Now()))
	require.NoError(t, err)
	receipt := msg.(logistics.InboundReceipt)
	assert.Equal(t, "RC-7", receipt.Code)
	assert.Equal(t, "PO24001", receipt.LogisticsCenterID)
	assert.Equal(t, "Closed", receipt.Status)
	assert.True(t, receipt.StartedAt.Equal(time.Date(2024, 6, 2, 11, 30, 0, 0, time.UTC)))
	assert.Nil(t, receipt.ClosedAt)
	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, logistics.InboundReceiptLine{LineNumber: 1, SKU: "MUG-1", Quantity: 10}, receipt.Lines[0])
	assert.Equal(t, 3, receipt.Lines[1].Quantity)
}

func TestDecoder_InboundReceipt_SingleLine(t *testing.T) {
	d := newTestDecoder(t)
	body := `{"type":"inboundReceipt","data":{"PRIORITYPOID":"PO1","RECEIPT":"RC-1","STATUS":"Open",
		"STARTRECEIPTDATE":"06/02/2024 14:30:00 +0300","LINES":{"LINE":{"SKU":"MUG-1","QTYRECEIVED":5,"RECEIPTLINE":1}}}}`

	msg, err := d.Decode(event(logistics.MessageTypeInboundReceipt, body, time.Now()))
	require.NoError(t, err)
	assert.Len(t, msg.(logistics.InboundReceipt).Lines, 1)
}

func TestDecoder_Malformed(t *testing.T) {
	d := newTestDecoder(t)
	tests := []struct {
		name        string
		messageType logistics.MessageType
		body        string
	}{
		{"not json", logistics.MessageTypeOrderStatusChange, `nope`},
		{"receipt without code", logistics.MessageTypeInboundReceipt, `{"data":{"PRIORITYPOID":"PO1","STARTRECEIPTDATE":"06/02/2024 14:30:00 +0300"}}`},
		{"receipt bad date", logistics.MessageTypeInboundReceipt, `{"data":{"PRIORITYPOID":"PO1","RECEIPT":"R","STARTRECEIPTDATE":"yesterday"}}`},
		{"order status without status", logistics.MessageTypeOrderStatusChange, `{"data":{"ORDERID":"ORD-1"}}`},
		{"ship without number", logistics.MessageTypeShipOrder, `{"data":{"ORDERID":"ORD-1","SHIPPING_STATUS":"Shipped"}}`},
		{"snapshot bad date", logistics.MessageTypeSnapshot, `{"data":{"snapshotDateTime":"2024-06-01","lines":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode(event(tt.messageType, tt.body, time.Now()))
			assert.ErrorIs(t, err, logistics.ErrMalformedMessage)
		})
	}
}

func TestDecoder_OrderStatusChange(t *testing.T) {
	d := newTestDecoder(t)
	received := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	msg, err := d.Decode(event(logistics.MessageTypeOrderStatusChange,
		`{"type":"orderStatusChange","data":{"ORDERID":"ORD-7","STATUS":"Picked"}}`, received))
	require.NoError(t, err)
	change := msg.(logistics.OrderStatusChange)
	assert.Equal(t, logistics.OrderRef{OrderNumber: "ORD-7"}, change.Order)
	assert.Equal(t, "Picked", change.Status)
	assert.True(t, change.At.Equal(received))
}

func TestDecoder_ShipOrder(t *testing.T) {
	d := newTestDecoder(t)

	msg, err := d.Decode(event(logistics.MessageTypeShipOrder,
		`{"type":"orderShippingStatusChange","data":{"ORDERID":"ORD-7","SHIPNU":"TRK-1"}}`, time.Now()))
	require.NoError(t, err)
	notice := msg.(logistics.ShipNotice)
	assert.Equal(t, "ORD-7", notice.Order.OrderNumber)
	assert.Equal(t, "TRK-1", notice.ShippingNumber)
	assert.Empty(t, notice.Status)
}

func TestDecoder_Snapshot(t *testing.T) {
	d := newTestDecoder(t)
	body := `{"type":"snapshot","data":{"snapshotDateTime":"06/01/2024 09:00:00",
		"lines":[{"sku":"MUG-1","quantity":10},{"sku":"MUG-1","quantity":"2"},{"sku":" PEN-1 ","quantity":0}]}}`

	msg, err := d.Decode(event(logistics.MessageTypeSnapshot, body, time.Now()))
	require.NoError(t, err)
	snapshot := msg.(logistics.StockSnapshot)
	// Jerusalem is UTC+3 in June
	assert.True(t, snapshot.TakenAt.Equal(time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)))
	require.Len(t, snapshot.Lines, 3)
	assert.Equal(t, "PEN-1", snapshot.Lines[2].SKU)
}

func TestDecoder_BodyWithoutEnvelope(t *testing.T) {
	d := newTestDecoder(t)

	msg, err := d.Decode(event(logistics.MessageTypeOrderStatusChange, `{"ORDERID":"ORD-1","STATUS":"New"}`, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "New", msg.(logistics.OrderStatusChange).Status)
}

func TestDecoder_UnknownType(t *testing.T) {
	d := newTestDecoder(t)
	_, err := d.Decode(event("BOGUS", `{}`, time.Now()))
	assert.ErrorIs(t, err, logistics.ErrUnknownMessageType)
}
