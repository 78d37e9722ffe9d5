package handler

import (
	"context"

	procurementapp "github.com/giftcampaign/backend/internal/application/procurement"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/gin-gonic/gin"
)

// PurchaseOrderHandler handles purchase order administration endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *procurementapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *procurementapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// Create godoc
// @Summary      Create a purchase order
// @Description  Creates the order and allocates pending order line items to each line
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        request body procurementapp.CreatePurchaseOrderRequest true "Purchase order"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req procurementapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// UpdateLine godoc
// @Summary      Change the quantity of a purchase order line
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path int true "Purchase order ID"
// @Param        lineId path int true "Line ID"
// @Param        request body procurementapp.UpdatePurchaseOrderLineRequest true "Quantity"
// @Success      200 {object} dto.Response
// @Router       /purchase-orders/{id}/lines/{lineId} [put]
func (h *PurchaseOrderHandler) UpdateLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(c, "lineId")
	if !ok {
		return
	}
	var req procurementapp.UpdatePurchaseOrderLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	order, err := h.orderService.UpdateLine(c.Request.Context(), id, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetByID godoc
// @Summary      Get a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path int true "Purchase order ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List godoc
// @Summary      List purchase orders
// @Description  Filters by status, supplier and id range. The response offers the id range buckets.
// @Tags         purchase-orders
// @Produce      json
// @Param        status query string false "Status"
// @Param        supplier_id query int false "Supplier ID"
// @Param        po_range query string false "Id range, min-max"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response
// @Router       /purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter procurementapp.PurchaseOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	if filter.Range != "" {
		if _, err := procurement.ParseIDRange(filter.Range); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	ctx, err := h.withRanges(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	list, err := h.orderService.List(ctx, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, list, list.Total, page, pageSize)
}

// withRanges computes the id buckets for this request
func (h *PurchaseOrderHandler) withRanges(ctx context.Context) (context.Context, error) {
	ranges, err := h.orderService.Ranges(ctx)
	if err != nil {
		return ctx, err
	}
	return procurement.WithPORanges(ctx, ranges), nil
}

// SendToSupplier godoc
// @Summary      Send a pending purchase order to its supplier
// @Tags         purchase-orders
// @Produce      json
// @Param        id path int true "Purchase order ID"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /purchase-orders/{id}/send-to-supplier [post]
func (h *PurchaseOrderHandler) SendToSupplier(c *gin.Context) {
	h.transition(c, h.orderService.SendToSupplier, false)
}

// Approve godoc
// @Summary      Approve a purchase order sent to its supplier
// @Description  Validates the order and queues its submission to the logistics provider
// @Tags         purchase-orders
// @Produce      json
// @Param        id path int true "Purchase order ID"
// @Success      202 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /purchase-orders/{id}/approve [post]
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	h.transition(c, h.orderService.RequestApproval, true)
}

// QuickApprove godoc
// @Summary      Approve a pending or sent purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path int true "Purchase order ID"
// @Success      202 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /purchase-orders/{id}/quick-approve [post]
func (h *PurchaseOrderHandler) QuickApprove(c *gin.Context) {
	h.transition(c, h.orderService.QuickApprove, true)
}

// Cancel godoc
// @Summary      Cancel a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path int true "Purchase order ID"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.orderService.Cancel, false)
}

// SendAgain godoc
// @Summary      Send a purchase order to its supplier again
// @Tags         purchase-orders
// @Produce      json
// @Param        id path int true "Purchase order ID"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /purchase-orders/{id}/send-again [post]
func (h *PurchaseOrderHandler) SendAgain(c *gin.Context) {
	h.transition(c, h.orderService.SendAgain, false)
}

func (h *PurchaseOrderHandler) transition(
	c *gin.Context,
	action func(ctx context.Context, id int64) (*procurementapp.PurchaseOrderResponse, error),
	queued bool,
) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := action(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if queued {
		h.Accepted(c, order)
		return
	}
	h.Success(c, order)
}
