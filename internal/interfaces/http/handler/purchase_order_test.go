package handler

import (
	"fmt"
	"net/http"
	"testing"

	procurementapp "github.com/giftcampaign/backend/internal/application/procurement"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"github.com/giftcampaign/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createPO(t *testing.T, supplierID, productID int64, quantity int) procurementapp.PurchaseOrderResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/purchase-orders", procurementapp.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Lines:      []procurementapp.CreatePurchaseOrderLineInput{{ProductID: productID, Quantity: quantity}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var po procurementapp.PurchaseOrderResponse
	decode(t, w, &po)
	return po
}

func TestPurchaseOrderHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	supplier := env.fx.Supplier("Gifts Ltd")
	mug := env.fx.Product(supplier.ID, "MUG-1")
	env.demand(mug.ID, 2, 3)

	po := env.createPO(t, supplier.ID, mug.ID, 5)
	assert.Equal(t, string(procurement.StatusPending), po.Status)
	assert.Equal(t, "Gifts Ltd", po.SupplierName)
	require.Len(t, po.Lines, 1)
	assert.Equal(t, "MUG-1", po.Lines[0].SKU)
	assert.Equal(t, 5, po.Lines[0].Quantity)
}

func TestPurchaseOrderHandler_CreateErrors(t *testing.T) {
	env := newTestEnv(t)
	supplier := env.fx.Supplier("Gifts Ltd")
	mug := env.fx.Product(supplier.ID, "MUG-1")
	env.demand(mug.ID, 2, 3)

	t.Run("binding failure", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/purchase-orders", map[string]any{"supplier_id": supplier.ID, "lines": []any{}})
		requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("quantity that splits an order line", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/purchase-orders", procurementapp.CreatePurchaseOrderRequest{
			SupplierID: supplier.ID,
			Lines:      []procurementapp.CreatePurchaseOrderLineInput{{ProductID: mug.ID, Quantity: 4}},
		})
		requireError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeAllocationFailed)

		var count int64
		require.NoError(t, env.db.Model(&models.PurchaseOrderModel{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("unknown product", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/purchase-orders", procurementapp.CreatePurchaseOrderRequest{
			SupplierID: supplier.ID,
			Lines:      []procurementapp.CreatePurchaseOrderLineInput{{ProductID: 9999, Quantity: 1}},
		})
		requireError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestPurchaseOrderHandler_GetByID(t *testing.T) {
	env := newTestEnv(t)
	supplier := env.fx.Supplier("Gifts Ltd")
	mug := env.fx.Product(supplier.ID, "MUG-1")
	env.demand(mug.ID, 2)
	po := env.createPO(t, supplier.ID, mug.ID, 2)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/purchase-orders/%d", po.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got procurementapp.PurchaseOrderResponse
	decode(t, w, &got)
	assert.Equal(t, po.ID, got.ID)

	requireError(t, env.do(t, http.MethodGet, "/api/v1/purchase-orders/4242", nil), http.StatusNotFound, dto.ErrCodeNotFound)
	requireError(t, env.do(t, http.MethodGet, "/api/v1/purchase-orders/abc", nil), http.StatusBadRequest, dto.ErrCodeInvalidInput)
	requireError(t, env.do(t, http.MethodGet, "/api/v1/purchase-orders/0", nil), http.StatusBadRequest, dto.ErrCodeInvalidInput)
}

func TestPurchaseOrderHandler_UpdateLine(t *testing.T) {
	env := newTestEnv(t)
	supplier := env.fx.Supplier("Gifts Ltd")
	mug := env.fx.Product(supplier.ID, "MUG-1")
	env.demand(mug.ID, 2, 3)
	po := env.createPO(t, supplier.ID, mug.ID, 2)
	lineID := po.Lines[0].ID

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/purchase-orders/%d/lines/%d", po.ID, lineID),
		procurementapp.UpdatePurchaseOrderLineRequest{Quantity: 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated procurementapp.PurchaseOrderResponse
	decode(t, w, &updated)
	assert.Equal(t, 5, updated.Lines[0].Quantity)
	assert.Greater(t, updated.Version, po.Version)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/purchase-orders/%d/lines/%d", po.ID, lineID),
		map[string]int{"quantity": 0})
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/purchase-orders/%d/lines/x", po.ID),
		procurementapp.UpdatePurchaseOrderLineRequest{Quantity: 5})
	requireError(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
}

func TestPurchaseOrderHandler_ListWithRanges(t *testing.T) {
	env := newTestEnv(t)
	supplier := env.fx.Supplier("Gifts Ltd")
	mug := env.fx.Product(supplier.ID, "MUG-1")
	env.demand(mug.ID, 1, 1, 1)
	ids := make([]int64, 0, 3)
	for range 3 {
		ids = append(ids, env.createPO(t, supplier.ID, mug.ID, 1).ID)
	}

	w := env.do(t, http.MethodGet, "/api/v1/purchase-orders?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list procurementapp.PurchaseOrderListResponse
	resp := decode(t, w, &list)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, []string{fmt.Sprintf("%d-%d", ids[0], ids[2])}, list.Ranges)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/purchase-orders?po_range=%d-%d", ids[1], ids[2]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Equal(t, int64(2), list.Total)

	requireError(t, env.do(t, http.MethodGet, "/api/v1/purchase-orders?po_range=9-1", nil), http.StatusBadRequest, dto.ErrCodeInvalidInput)
	requireError(t, env.do(t, http.MethodGet, "/api/v1/purchase-orders?status=LOST", nil), http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestPurchaseOrderHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	supplier := env.fx.Supplier("Gifts Ltd")
	mug := env.fx.Product(supplier.ID, "MUG-1")
	env.demand(mug.ID, 2, 2)
	first := env.createPO(t, supplier.ID, mug.ID, 2)
	second := env.createPO(t, supplier.ID, mug.ID, 2)
	path := func(id int64, action string) string {
		return fmt.Sprintf("/api/v1/purchase-orders/%d/%s", id, action)
	}

	// approve needs the order to have been sent
	requireError(t, env.do(t, http.MethodPost, path(first.ID, "approve"), nil), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState)

	w := env.do(t, http.MethodPost, path(first.ID, "send-to-supplier"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sent procurementapp.PurchaseOrderResponse
	decode(t, w, &sent)
	assert.Equal(t, string(procurement.StatusSentToSupplier), sent.Status)

	requireError(t, env.do(t, http.MethodPost, path(first.ID, "send-to-supplier"), nil), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path(first.ID, "send-again"), nil).Code)
	assert.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, path(first.ID, "approve"), nil).Code)
	assert.Equal(t, http.StatusAccepted, env.do(t, http.MethodPost, path(second.ID, "quick-approve"), nil).Code)

	names := map[string]int{}
	for _, task := range env.pendingTasks(t) {
		names[task.Name]++
	}
	assert.Equal(t, 2, names[procurementapp.TaskNotifySupplier])
	assert.Equal(t, 2, names[procurementapp.TaskApprove])

	w = env.do(t, http.MethodPost, path(second.ID, "cancel"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled procurementapp.PurchaseOrderResponse
	decode(t, w, &cancelled)
	assert.Equal(t, string(procurement.StatusCancelled), cancelled.Status)

	requireError(t, env.do(t, http.MethodPost, path(second.ID, "send-again"), nil), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState)
	requireError(t, env.do(t, http.MethodPost, path(4242, "cancel"), nil), http.StatusNotFound, dto.ErrCodeNotFound)
}
