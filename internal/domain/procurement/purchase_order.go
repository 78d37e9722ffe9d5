package procurement

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the status of a purchase order
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusSentToSupplier Status = "SENT_TO_SUPPLIER"
	StatusApproved       Status = "APPROVED"
	StatusCancelled      Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSentToSupplier, StatusApproved, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusSentToSupplier || target == StatusApproved || target == StatusCancelled
	case StatusSentToSupplier:
		return target == StatusApproved || target == StatusCancelled
	case StatusApproved, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// ApprovableStatuses are the statuses the approval update accepts
var ApprovableStatuses = []Status{StatusPending, StatusSentToSupplier}

// LineItem is a commitment to procure Quantity units of one product
type LineItem struct {
	ID                      int64
	PurchaseOrderID         int64
	ProductID               int64
	Product                 *catalog.Product
	Quantity                int
	VoucherValue            *decimal.Decimal
	Variations              map[string]string
	QuantitySentToLogistics int
}

// NewLineItem creates a purchase order line for a product
func NewLineItem(product *catalog.Product, quantity int, voucherValue *decimal.Decimal, variations map[string]string) (*LineItem, error) {
	if product == nil || product.ID == 0 {
		return nil, shared.Errorf(shared.ErrInvalidInput, "Product is required")
	}
	if quantity <= 0 {
		return nil, shared.Errorf(shared.ErrInvalidInput, "Quantity must be positive")
	}
	if voucherValue != nil && !product.IsMoney() {
		return nil, shared.Errorf(shared.ErrInvalidInput, "Voucher value is only allowed for money products, got product %s", product.SKU)
	}
	if voucherValue == nil && product.IsMoney() {
		return nil, shared.Errorf(shared.ErrInvalidInput, "Voucher value is required for money product %s", product.SKU)
	}
	return &LineItem{
		ProductID:    product.ID,
		Product:      product,
		Quantity:     quantity,
		VoucherValue: voucherValue,
		Variations:   variations,
	}, nil
}

// CandidateQuery returns the unattached-pool key this line allocates from
func (li *LineItem) CandidateQuery(campaignID, organizationID int64) ordering.CandidateQuery {
	return ordering.CandidateQuery{
		ProductID:      li.ProductID,
		VoucherValue:   li.VoucherValue,
		CampaignID:     campaignID,
		OrganizationID: organizationID,
		Variations:     li.Variations,
	}
}

// Label names the product and voucher value for error messages
func (li *LineItem) Label() string {
	name := fmt.Sprintf("#%d", li.ProductID)
	if li.Product != nil {
		name = li.Product.DisplayName()
	}
	if li.VoucherValue != nil {
		return fmt.Sprintf("%s (voucher value %s)", name, li.VoucherValue.String())
	}
	return name
}

// AllocationError reports that no exact allocation exists for the line
func (li *LineItem) AllocationError() error {
	return shared.Errorf(shared.ErrAllocationFailed, "Cannot allocate %d units of %s to order line items", li.Quantity, li.Label())
}

// PurchaseOrder is the procurement order sent to one supplier
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	SupplierID        int64
	Supplier          *catalog.Supplier
	Notes             string
	Status            Status
	LineItems         []LineItem
	LogisticsProvider string
	LogisticsCenterID string
	LogisticsStatus   string
	SentToLogisticsAt *time.Time
}

// NewPurchaseOrder creates a pending purchase order
func NewPurchaseOrder(supplierID int64, notes string, lines []LineItem) (*PurchaseOrder, error) {
	if supplierID == 0 {
		return nil, shared.Errorf(shared.ErrInvalidInput, "Supplier is required")
	}
	if len(lines) == 0 {
		return nil, shared.Errorf(shared.ErrInvalidInput, "Purchase order must have at least one line")
	}

	po := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierID:        supplierID,
		Notes:             notes,
		Status:            StatusPending,
		LineItems:         lines,
	}
	po.AddDomainEvent(NewCreatedEvent(po))
	return po, nil
}

// Line returns the line item with the given id
func (po *PurchaseOrder) Line(lineID int64) (*LineItem, error) {
	for i := range po.LineItems {
		if po.LineItems[i].ID == lineID {
			return &po.LineItems[i], nil
		}
	}
	return nil, shared.Errorf(shared.ErrNotFound, "Line %d not found in purchase order %d", lineID, po.ID)
}

// UpdateLineQuantity changes the ordered quantity of a line
func (po *PurchaseOrder) UpdateLineQuantity(lineID int64, quantity int) (*LineItem, error) {
	if po.Status.IsTerminal() {
		return nil, shared.Errorf(shared.ErrInvalidState, "Purchase order %d is %s and cannot be modified", po.ID, po.Status)
	}
	if quantity <= 0 {
		return nil, shared.Errorf(shared.ErrInvalidInput, "Quantity must be positive")
	}
	line, err := po.Line(lineID)
	if err != nil {
		return nil, err
	}
	line.Quantity = quantity
	po.UpdatedAt = time.Now()
	return line, nil
}

// SendToSupplier marks the order as sent to its supplier
func (po *PurchaseOrder) SendToSupplier() error {
	if !po.Status.CanTransitionTo(StatusSentToSupplier) {
		return shared.Errorf(shared.ErrInvalidState, "Cannot send purchase order %d in status %s", po.ID, po.Status)
	}
	po.Status = StatusSentToSupplier
	po.UpdatedAt = time.Now()
	po.AddDomainEvent(NewSentToSupplierEvent(po))
	return nil
}

// Cancel cancels a non-terminal order
func (po *PurchaseOrder) Cancel() error {
	if !po.Status.CanTransitionTo(StatusCancelled) {
		return shared.Errorf(shared.ErrInvalidState, "Cannot cancel purchase order %d in status %s", po.ID, po.Status)
	}
	po.Status = StatusCancelled
	po.UpdatedAt = time.Now()
	po.AddDomainEvent(NewCancelledEvent(po))
	return nil
}

// ValidateForApproval checks the order can be approved and that every
// product code fits the provider limits. It does not change state.
func (po *PurchaseOrder) ValidateForApproval() error {
	if po.Status == StatusApproved {
		return shared.Errorf(shared.ErrInvalidState, "Purchase order %d is already approved", po.ID)
	}
	if !po.Status.CanTransitionTo(StatusApproved) {
		return shared.Errorf(shared.ErrInvalidState, "Cannot approve purchase order %d in status %s", po.ID, po.Status)
	}

	var problems []string
	for _, li := range po.LineItems {
		if li.Product == nil {
			continue
		}
		if utf8.RuneCountInString(li.Product.SKU) > catalog.MaxProviderCodeLength {
			problems = append(problems, fmt.Sprintf("Product %s has a sku value which is too long", li.Product.Name))
		}
		if utf8.RuneCountInString(li.Product.Reference) > catalog.MaxProviderCodeLength {
			problems = append(problems, fmt.Sprintf("Product %s has a reference value which is too long", li.Product.Name))
		}
	}
	if len(problems) > 0 {
		return shared.Errorf(shared.ErrInvalidInput, "%s", strings.Join(problems, ", "))
	}
	return nil
}

// DistinctProducts returns the products referenced by the lines in line order
func (po *PurchaseOrder) DistinctProducts() []*catalog.Product {
	seen := make(map[int64]struct{}, len(po.LineItems))
	products := make([]*catalog.Product, 0, len(po.LineItems))
	for _, li := range po.LineItems {
		if li.Product == nil {
			continue
		}
		if _, ok := seen[li.ProductID]; ok {
			continue
		}
		seen[li.ProductID] = struct{}{}
		products = append(products, li.Product)
	}
	return products
}

// Approval carries the provider acknowledgement applied on approval
type Approval struct {
	Provider          string
	LogisticsCenterID string
	LogisticsStatus   string
	SentAt            time.Time
}

// MarkApproved applies a successful provider submission. The persisted
// transition must be conditional on the version read before the provider calls.
func (po *PurchaseOrder) MarkApproved(a Approval) error {
	if !po.Status.CanTransitionTo(StatusApproved) {
		return shared.Errorf(shared.ErrInvalidState, "Cannot approve purchase order %d in status %s", po.ID, po.Status)
	}
	sentAt := a.SentAt
	po.Status = StatusApproved
	po.LogisticsProvider = a.Provider
	po.LogisticsCenterID = a.LogisticsCenterID
	po.LogisticsStatus = a.LogisticsStatus
	po.SentToLogisticsAt = &sentAt
	for i := range po.LineItems {
		po.LineItems[i].QuantitySentToLogistics = po.LineItems[i].Quantity
	}
	po.UpdatedAt = time.Now()
	po.AddDomainEvent(NewApprovedEvent(po))
	return nil
}

// TotalCost sums cost price times ordered quantity
func (po *PurchaseOrder) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, li := range po.LineItems {
		if li.Product == nil {
			continue
		}
		total = total.Add(li.Product.CostPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return total
}
