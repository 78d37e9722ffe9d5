// Package testutil provides database fixtures and helpers shared by package
// tests. SQLite in-memory databases stand in for Postgres.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory database. The pool is limited to one
// connection because every :memory: connection is a separate database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// MockDB wraps a GORM database with sqlmock for Postgres specific SQL.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a Postgres-dialect GORM database backed by sqlmock.
func NewMockDB(t testing.TB) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t testing.TB) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet())
}

// Fixtures inserts collaborator rows (catalog, organizations, orders) that
// this service only reads.
type Fixtures struct {
	t   testing.TB
	db  *gorm.DB
	seq int
}

// NewFixtures returns a fixture builder writing to db.
func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

// Supplier inserts a supplier.
func (f *Fixtures) Supplier(name string) *models.SupplierModel {
	f.t.Helper()
	s := &models.SupplierModel{Name: name, Street: "Herzl", StreetNumber: "10", City: "Tel Aviv", Phone: "050-0000000"}
	require.NoError(f.t, f.db.Create(s).Error)
	return s
}

// Product inserts a regular physical product of the supplier.
func (f *Fixtures) Product(supplierID int64, sku string) *models.ProductModel {
	f.t.Helper()
	return f.ProductWith(models.ProductModel{SupplierID: supplierID, SKU: sku, Name: sku, Reference: "REF-" + sku})
}

// ProductWith inserts p, defaulting kind, type and cost.
func (f *Fixtures) ProductWith(p models.ProductModel) *models.ProductModel {
	f.t.Helper()
	if p.Kind == "" {
		p.Kind = "PHYSICAL"
	}
	if p.Type == "" {
		p.Type = "REGULAR"
	}
	if p.CostPrice.IsZero() {
		p.CostPrice = decimal.NewFromInt(10)
	}
	if p.Name == "" {
		p.Name = p.SKU
	}
	require.NoError(f.t, f.db.Omit("BundleItems").Create(&p).Error)
	return &p
}

// Bundle links constituents to a bundle product.
func (f *Fixtures) Bundle(bundleID int64, constituents map[int64]int) {
	f.t.Helper()
	for productID, qty := range constituents {
		require.NoError(f.t, f.db.Create(&models.ProductBundleModel{
			BundleID: bundleID, ProductID: productID, Quantity: qty,
		}).Error)
	}
}

// EmployeeGroup inserts an organization and one of its employee groups.
func (f *Fixtures) EmployeeGroup(location ordering.DeliveryLocation) *models.EmployeeGroupModel {
	f.t.Helper()
	org := &models.OrganizationModel{Name: "Acme", ManagerName: "Dana", ManagerPhone: "052-1111111", ManagerEmail: "dana@acme.test"}
	require.NoError(f.t, f.db.Create(org).Error)
	g := &models.EmployeeGroupModel{
		Name:                    "HQ",
		DeliveryLocation:        location,
		CampaignEmployeeGroupID: 77,
		OfficeStreet:            "Rothschild",
		OfficeStreetNumber:      "1",
		OfficeCity:              "Tel Aviv",
		OrganizationID:          org.ID,
	}
	require.NoError(f.t, f.db.Create(g).Error)
	g.Organization = org
	return g
}

// LineSpec describes an order line item to insert.
type LineSpec struct {
	ProductID    int64
	Quantity     int
	VoucherValue *decimal.Decimal
	Variations   map[string]string
}

// OrderSpec describes an order to insert. Zero fields get defaults; orders
// without a number are numbered FX-000001, FX-000002 and so on.
type OrderSpec struct {
	Number          string
	Status          ordering.OrderStatus
	CampaignID      int64
	OrganizationID  int64
	EmployeeGroupID int64
	CreatedAt       time.Time
	Lines           []LineSpec
}

// Order inserts an order and its line items.
func (f *Fixtures) Order(in OrderSpec) *models.OrderModel {
	f.t.Helper()
	if in.Status == "" {
		in.Status = ordering.OrderStatusPending
	}
	if in.CampaignID == 0 {
		in.CampaignID = 1
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	if in.Number == "" {
		f.seq++
		in.Number = fmt.Sprintf("FX-%06d", f.seq)
	}
	o := &models.OrderModel{
		OrderNumber:      in.Number,
		Status:           in.Status,
		CampaignID:       in.CampaignID,
		OrganizationID:   in.OrganizationID,
		EmployeeGroupID:  in.EmployeeGroupID,
		EmployeeName:     "Noa Levi",
		EmployeePhone:    "054-2222222",
		EmployeeEmail:    "noa@acme.test",
		DeliveryFullName: "Noa Levi",
		DeliveryPhone:    "054-2222222",
		DeliveryCity:     "Haifa",
		DeliveryStreet:   "Hanamal",
	}
	o.CreatedAt = in.CreatedAt
	o.UpdatedAt = in.CreatedAt
	require.NoError(f.t, f.db.Omit("LineItems", "EmployeeGroup").Create(o).Error)

	for _, l := range in.Lines {
		li := models.OrderLineItemModel{
			OrderID:      o.ID,
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			VoucherValue: l.VoucherValue,
			Variations:   models.EncodeVariations(l.Variations),
		}
		require.NoError(f.t, f.db.Omit("Product").Create(&li).Error)
		o.LineItems = append(o.LineItems, li)
	}
	return o
}

// WaitForCondition polls condition until it holds or timeout passes.
func WaitForCondition(t testing.TB, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}

// ContextWithTimeout returns a context cancelled when the test ends.
func ContextWithTimeout(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
