// Package procurement holds the purchase order use cases: creation with
// allocation, administration actions, provider approval and the planning
// summary.
package procurement

// Task names handled by this package
const (
	TaskApprove        = "procurement.approve"
	TaskNotifySupplier = "procurement.notify_supplier"
)

// ApproveArgs are the arguments of TaskApprove
type ApproveArgs struct {
	PurchaseOrderID int64 `json:"purchase_order_id"`
}

// NotifySupplierArgs are the arguments of TaskNotifySupplier
type NotifySupplierArgs struct {
	PurchaseOrderID int64 `json:"purchase_order_id"`
}
