package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder_POStatus(t *testing.T) {
	order := &Order{LineItems: []OrderLineItem{
		{ID: 1, PurchaseOrderStatus: "SENT_TO_SUPPLIER"},
		{ID: 2},
		{ID: 3, PurchaseOrderStatus: "PENDING"},
		{ID: 4, PurchaseOrderStatus: "SENT_TO_SUPPLIER"},
		{ID: 5, PurchaseOrderStatus: "CANCELLED"},
		{ID: 6, PurchaseOrderStatus: "APPROVED"},
	}}

	assert.Equal(t, "PO_SENT,WAITING,IN_TRANSIT", order.POStatus())
	assert.Equal(t, "", (&Order{}).POStatus())
}

func TestOrder_MarkSentToLogistics(t *testing.T) {
	order := &Order{Status: OrderStatusPending, LogisticsCenterID: "old"}
	assert.True(t, order.CanSendToLogistics())

	order.MarkSentToLogistics("PICK_AND_PACK", "PP-1")
	assert.Equal(t, OrderStatusSentToLogisticsCenter, order.Status)
	assert.Equal(t, "PICK_AND_PACK", order.LogisticsProvider)
	assert.Equal(t, "PP-1", order.LogisticsCenterID)
	assert.False(t, order.CanSendToLogistics())

	order.MarkSentToLogistics("ORIAN", "")
	assert.Equal(t, "PP-1", order.LogisticsCenterID)
}
