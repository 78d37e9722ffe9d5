package procurement

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
)

// OrderSummaryRow is the open demand and supply of one supplier product
type OrderSummaryRow struct {
	SupplierID   int64
	SupplierName string
	ProductID    int64
	SKU          string
	Reference    string
	Name         string
	Kind         catalog.ProductKind
	CostPrice    decimal.Decimal

	TotalOrdered      int
	SentToApprove     int
	SentToDC          int
	DCStock           int
	InTransit         int
	DifferenceToOrder int
	SnapshotStock     *int
	SnapshotAt        *time.Time

	// Variations maps each variation key to the distinct values ordered
	Variations map[string]string
}

// SummaryColumn renders one value of a row
type SummaryColumn struct {
	Key    string
	Header string
	Value  func(OrderSummaryRow) string
}

// OrderSummary holds the rows and the columns built for them
type OrderSummary struct {
	Rows    []OrderSummaryRow
	Columns []SummaryColumn
}

// OrderSummaryService builds the procurement planning view of open orders
type OrderSummaryService struct {
	summary   procurement.SummaryRepository
	suppliers catalog.SupplierRepository
	snapshots logistics.SnapshotRepository
}

// NewOrderSummaryService creates the service
func NewOrderSummaryService(summary procurement.SummaryRepository, suppliers catalog.SupplierRepository, snapshots logistics.SnapshotRepository) *OrderSummaryService {
	return &OrderSummaryService{summary: summary, suppliers: suppliers, snapshots: snapshots}
}

type summaryKey struct {
	supplierID int64
	sku        string
}

type summaryAccumulator struct {
	row        *OrderSummaryRow
	variations map[string][]string
}

func (a *summaryAccumulator) addVariations(v map[string]string) {
	for key, value := range v {
		if value == "" {
			continue
		}
		seen := false
		for _, existing := range a.variations[key] {
			if existing == value {
				seen = true
				break
			}
		}
		if !seen {
			a.variations[key] = append(a.variations[key], value)
		}
	}
}

// Summary groups open demand by supplier and SKU, expanding bundles into
// their constituents. A zero campaignID covers every campaign.
func (s *OrderSummaryService) Summary(ctx context.Context, campaignID int64) (*OrderSummary, error) {
	demand, err := s.summary.OpenDemand(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	groups := make(map[summaryKey]*summaryAccumulator)
	var order []summaryKey
	add := func(li ordering.OrderLineItem, p *catalog.Product, quantity int) {
		key := summaryKey{supplierID: p.SupplierID, sku: p.SKU}
		acc, ok := groups[key]
		if !ok {
			acc = &summaryAccumulator{
				row: &OrderSummaryRow{
					SupplierID: p.SupplierID,
					ProductID:  p.ID,
					SKU:        p.SKU,
					Reference:  p.Reference,
					Name:       p.DisplayName(),
					Kind:       p.Kind,
					CostPrice:  p.CostPrice,
				},
				variations: make(map[string][]string),
			}
			groups[key] = acc
			order = append(order, key)
		}
		acc.row.TotalOrdered += quantity
		acc.addVariations(li.Variations)
	}
	for _, li := range demand {
		if li.Product == nil {
			continue
		}
		if li.Product.IsBundle() && len(li.Product.BundleItems) > 0 {
			for _, item := range li.Product.BundleItems {
				if item.Product != nil {
					add(li, item.Product, li.Quantity*item.Quantity)
				}
			}
			continue
		}
		add(li, li.Product, li.Quantity)
	}

	productIDs := make([]int64, 0, len(order))
	supplierIDs := make([]int64, 0, len(order))
	for _, key := range order {
		productIDs = append(productIDs, groups[key].row.ProductID)
		supplierIDs = append(supplierIDs, key.supplierID)
	}
	supply, err := s.summary.SupplyByProduct(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.suppliers.FindByIDs(ctx, supplierIDs)
	if err != nil {
		return nil, err
	}
	stock, takenAt, err := s.snapshots.LatestQuantities(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]OrderSummaryRow, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		row := acc.row
		if sup, ok := suppliers[key.supplierID]; ok {
			row.SupplierName = sup.Name
		}
		ps := supply[row.ProductID]
		row.SentToApprove = ps.SentToSupplier
		row.SentToDC = ps.SentToLogistics
		row.DCStock = ps.Received
		row.InTransit = row.SentToDC - row.DCStock
		row.DifferenceToOrder = row.TotalOrdered - row.SentToDC - row.SentToApprove
		if line, ok := stock[row.SKU]; ok {
			qty, at := line.Quantity, takenAt
			row.SnapshotStock = &qty
			row.SnapshotAt = &at
		}
		if len(acc.variations) > 0 {
			row.Variations = make(map[string]string, len(acc.variations))
			for k, values := range acc.variations {
				row.Variations[k] = strings.Join(values, ", ")
			}
		}
		rows = append(rows, *row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SupplierName != rows[j].SupplierName {
			return rows[i].SupplierName < rows[j].SupplierName
		}
		return rows[i].SKU < rows[j].SKU
	})

	return &OrderSummary{Rows: rows, Columns: BuildSummaryColumns(rows)}, nil
}

// BuildSummaryColumns returns the fixed columns with one column per variation
// key present in rows inserted after the product kind
func BuildSummaryColumns(rows []OrderSummaryRow) []SummaryColumn {
	columns := []SummaryColumn{
		{Key: "product_supplier", Header: "Supplier", Value: func(r OrderSummaryRow) string { return r.SupplierName }},
		{Key: "product_sku", Header: "SKU", Value: func(r OrderSummaryRow) string { return r.SKU }},
		{Key: "product_kind", Header: "Kind", Value: func(r OrderSummaryRow) string { return string(r.Kind) }},
	}

	keys := make(map[string]struct{})
	for _, r := range rows {
		for k := range r.Variations {
			keys[k] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	for _, k := range sorted {
		variation := k
		columns = append(columns, SummaryColumn{
			Key:    strings.ReplaceAll(variation, " ", "_"),
			Header: variation,
			Value:  func(r OrderSummaryRow) string { return r.Variations[variation] },
		})
	}

	return append(columns,
		SummaryColumn{Key: "product_name", Header: "Name", Value: func(r OrderSummaryRow) string { return r.Name }},
		SummaryColumn{Key: "product_reference", Header: "Reference", Value: func(r OrderSummaryRow) string { return r.Reference }},
		SummaryColumn{Key: "total_ordered", Header: "Total ordered", Value: func(r OrderSummaryRow) string { return strconv.Itoa(r.TotalOrdered) }},
		SummaryColumn{Key: "product_cost_price", Header: "Cost price", Value: func(r OrderSummaryRow) string { return r.CostPrice.StringFixed(2) }},
		SummaryColumn{Key: "sent_to_approve", Header: "Sent to approve", Value: func(r OrderSummaryRow) string { return strconv.Itoa(r.SentToApprove) }},
		SummaryColumn{Key: "sent_to_dc", Header: "Sent to DC", Value: func(r OrderSummaryRow) string { return strconv.Itoa(r.SentToDC) }},
		SummaryColumn{Key: "in_transit_stock", Header: "In transit", Value: func(r OrderSummaryRow) string { return strconv.Itoa(r.InTransit) }},
		SummaryColumn{Key: "dc_stock", Header: "DC stock", Value: func(r OrderSummaryRow) string { return strconv.Itoa(r.DCStock) }},
		SummaryColumn{Key: "product_snapshot_stock", Header: "Snapshot stock", Value: func(r OrderSummaryRow) string {
			if r.SnapshotStock == nil {
				return ""
			}
			return strconv.Itoa(*r.SnapshotStock)
		}},
		SummaryColumn{Key: "difference_to_order", Header: "Difference to order", Value: func(r OrderSummaryRow) string { return strconv.Itoa(r.DifferenceToOrder) }},
		SummaryColumn{Key: "product_snapshot_stock_date_time", Header: "Snapshot time", Value: func(r OrderSummaryRow) string {
			if r.SnapshotAt == nil {
				return ""
			}
			return r.SnapshotAt.UTC().Format(time.RFC3339)
		}},
	)
}
