package handler

import (
	"net/http"
	"strconv"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	procurementapp "github.com/giftcampaign/backend/internal/application/procurement"
	"github.com/giftcampaign/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// OrderHandler handles the customer order endpoints this service owns
type OrderHandler struct {
	BaseHandler
	outbound *applogistics.OutboundService
	summary  *procurementapp.OrderSummaryService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(outbound *applogistics.OutboundService, summary *procurementapp.OrderSummaryService) *OrderHandler {
	return &OrderHandler{outbound: outbound, summary: summary}
}

// SendToLogisticsResponse identifies the queued send
type SendToLogisticsResponse struct {
	OrderID int64  `json:"order_id"`
	TaskID  string `json:"task_id"`
}

// SendToLogistics godoc
// @Summary      Send an order to the logistics center
// @Description  Queues the outbound shipment of a pending order
// @Tags         orders
// @Produce      json
// @Param        id path int true "Order ID"
// @Success      202 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /orders/{id}/send-to-logistics [post]
func (h *OrderHandler) SendToLogistics(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.outbound.RequestSend(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, SendToLogisticsResponse{OrderID: id, TaskID: task.ID.String()})
}

// Summary godoc
// @Summary      Procurement summary of open orders
// @Description  Rows per supplier and sku with one column per variation key
// @Tags         orders
// @Produce      json
// @Param        campaign_id query int true "Campaign ID"
// @Success      200 {object} dto.Response
// @Router       /orders/summary [get]
func (h *OrderHandler) Summary(c *gin.Context) {
	campaignID, err := strconv.ParseInt(c.Query("campaign_id"), 10, 64)
	if err != nil || campaignID <= 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "campaign_id must be a positive integer")
		return
	}
	summary, err := h.summary.Summary(c.Request.Context(), campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, procurementapp.ToOrderSummaryResponse(summary))
}
