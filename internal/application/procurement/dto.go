package procurement

import (
	"time"

	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
)

// ==================== Purchase Order DTOs ====================

// CreatePurchaseOrderRequest represents a request to create a purchase order.
// CampaignID and OrganizationID narrow the order line items allocated.
type CreatePurchaseOrderRequest struct {
	SupplierID     int64                          `json:"supplier_id" binding:"required,min=1"`
	Notes          string                         `json:"notes" binding:"max=2000"`
	CampaignID     int64                          `json:"campaign_id" binding:"min=0"`
	OrganizationID int64                          `json:"organization_id" binding:"min=0"`
	Lines          []CreatePurchaseOrderLineInput `json:"lines" binding:"required,min=1,dive"`
}

// CreatePurchaseOrderLineInput represents a line of the create request
type CreatePurchaseOrderLineInput struct {
	ProductID    int64             `json:"product_id" binding:"required,min=1"`
	Quantity     int               `json:"quantity" binding:"required,min=1"`
	VoucherValue *decimal.Decimal  `json:"voucher_value"`
	Variations   map[string]string `json:"variations"`
}

// UpdatePurchaseOrderLineRequest changes the ordered quantity of a line
type UpdatePurchaseOrderLineRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// PurchaseOrderListFilter represents list query parameters
type PurchaseOrderListFilter struct {
	Status     string `form:"status" binding:"omitempty,oneof=PENDING SENT_TO_SUPPLIER APPROVED CANCELLED"`
	SupplierID int64  `form:"supplier_id" binding:"min=0"`
	Range      string `form:"po_range"`
	Page       int    `form:"page" binding:"min=0"`
	PageSize   int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                int64                       `json:"id"`
	SupplierID        int64                       `json:"supplier_id"`
	SupplierName      string                      `json:"supplier_name"`
	Notes             string                      `json:"notes"`
	Status            string                      `json:"status"`
	Lines             []PurchaseOrderLineResponse `json:"lines"`
	TotalCost         decimal.Decimal             `json:"total_cost"`
	LogisticsProvider string                      `json:"logistics_provider,omitempty"`
	LogisticsCenterID string                      `json:"logistics_center_id,omitempty"`
	LogisticsStatus   string                      `json:"logistics_center_status,omitempty"`
	SentToLogisticsAt *time.Time                  `json:"sent_to_logistics_center_at,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
	Version           int                         `json:"version"`
}

// PurchaseOrderLineResponse represents a purchase order line
type PurchaseOrderLineResponse struct {
	ID                      int64             `json:"id"`
	ProductID               int64             `json:"product_id"`
	SKU                     string            `json:"sku,omitempty"`
	ProductName             string            `json:"product_name,omitempty"`
	Quantity                int               `json:"quantity"`
	VoucherValue            *decimal.Decimal  `json:"voucher_value,omitempty"`
	Variations              map[string]string `json:"variations,omitempty"`
	QuantitySentToLogistics int               `json:"quantity_sent_to_logistics_center"`
}

// PurchaseOrderListResponse is a page of purchase orders with the id range
// buckets offered as filter values
type PurchaseOrderListResponse struct {
	Items  []PurchaseOrderResponse `json:"items"`
	Total  int64                   `json:"total"`
	Ranges []string                `json:"po_ranges"`
}

// ToPurchaseOrderResponse converts a domain purchase order to its response DTO
func ToPurchaseOrderResponse(po *procurement.PurchaseOrder) PurchaseOrderResponse {
	lines := make([]PurchaseOrderLineResponse, len(po.LineItems))
	for i := range po.LineItems {
		lines[i] = ToPurchaseOrderLineResponse(&po.LineItems[i])
	}
	resp := PurchaseOrderResponse{
		ID:                po.ID,
		SupplierID:        po.SupplierID,
		Notes:             po.Notes,
		Status:            string(po.Status),
		Lines:             lines,
		TotalCost:         po.TotalCost(),
		LogisticsProvider: po.LogisticsProvider,
		LogisticsCenterID: po.LogisticsCenterID,
		LogisticsStatus:   po.LogisticsStatus,
		SentToLogisticsAt: po.SentToLogisticsAt,
		CreatedAt:         po.CreatedAt,
		UpdatedAt:         po.UpdatedAt,
		Version:           po.Version,
	}
	if po.Supplier != nil {
		resp.SupplierName = po.Supplier.Name
	}
	return resp
}

// ToPurchaseOrderLineResponse converts a domain line to its response DTO
func ToPurchaseOrderLineResponse(li *procurement.LineItem) PurchaseOrderLineResponse {
	resp := PurchaseOrderLineResponse{
		ID:                      li.ID,
		ProductID:               li.ProductID,
		Quantity:                li.Quantity,
		VoucherValue:            li.VoucherValue,
		Variations:              li.Variations,
		QuantitySentToLogistics: li.QuantitySentToLogistics,
	}
	if li.Product != nil {
		resp.SKU = li.Product.SKU
		resp.ProductName = li.Product.DisplayName()
	}
	return resp
}

// ==================== Order Summary DTOs ====================

// SummaryColumnResponse describes one column of the order summary
type SummaryColumnResponse struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// OrderSummaryResponse is the order summary rendered as rows of column values
type OrderSummaryResponse struct {
	Columns []SummaryColumnResponse `json:"columns"`
	Rows    []map[string]string     `json:"rows"`
}

// ToOrderSummaryResponse renders rows through the columns built for them
func ToOrderSummaryResponse(s *OrderSummary) OrderSummaryResponse {
	resp := OrderSummaryResponse{
		Columns: make([]SummaryColumnResponse, len(s.Columns)),
		Rows:    make([]map[string]string, len(s.Rows)),
	}
	for i, c := range s.Columns {
		resp.Columns[i] = SummaryColumnResponse{Key: c.Key, Header: c.Header}
	}
	for i, row := range s.Rows {
		values := make(map[string]string, len(s.Columns))
		for _, c := range s.Columns {
			values[c.Key] = c.Value(row)
		}
		resp.Rows[i] = values
	}
	return resp
}
