package procurement

import (
	"context"
	"testing"
	"time"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"github.com/giftcampaign/backend/internal/infrastructure/taskqueue"
	"github.com/giftcampaign/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// ---------------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------------

type testEnv struct {
	db    *gorm.DB
	scope *persistence.GormTransactionScope
	fx    *testutil.Fixtures
	group *models.EmployeeGroupModel
	clock time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	queue := taskqueue.NewQueue(db, shared.DefaultTaskMaxRetries, zaptest.NewLogger(t))
	fx := testutil.NewFixtures(t, db)
	return &testEnv{
		db:    db,
		scope: persistence.NewGormTransactionScope(db, queue.ForTx),
		fx:    fx,
		group: fx.EmployeeGroup(ordering.DeliveryToHome),
		clock: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

// demand inserts one pending order per quantity, oldest first
func (e *testEnv) demand(t *testing.T, productID int64, quantities ...int) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(quantities))
	for _, q := range quantities {
		e.clock = e.clock.Add(time.Minute)
		o := e.fx.Order(testutil.OrderSpec{
			EmployeeGroupID: e.group.ID,
			OrganizationID:  e.group.OrganizationID,
			CreatedAt:       e.clock,
			Lines:           []testutil.LineSpec{{ProductID: productID, Quantity: q}},
		})
		ids = append(ids, o.LineItems[0].ID)
	}
	return ids
}

func (e *testEnv) service() *PurchaseOrderService {
	return NewPurchaseOrderService(e.scope)
}

func (e *testEnv) attachedQuantities(t *testing.T, lineID int64) []int {
	t.Helper()
	items, err := persistence.NewGormLineItemRepository(e.db).FindAttached(context.Background(), lineID)
	require.NoError(t, err)
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Quantity
	}
	return out
}

func (e *testEnv) loadPurchaseOrder(t *testing.T, id int64) *procurement.PurchaseOrder {
	t.Helper()
	po, err := persistence.NewGormPurchaseOrderRepository(e.db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return po
}

func (e *testEnv) pendingTaskNames(t *testing.T) []string {
	t.Helper()
	tasks, err := taskqueue.NewGormTaskRepository(e.db).FindPending(context.Background(), 100)
	require.NoError(t, err)
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name
	}
	return names
}

func (e *testEnv) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

// pendingPO creates a purchase order for quantity units of product, with
// matching demand so allocation succeeds
func (e *testEnv) pendingPO(t *testing.T, supplierID int64, product *models.ProductModel, quantity int) *PurchaseOrderResponse {
	t.Helper()
	e.demand(t, product.ID, quantity)
	resp, err := e.service().Create(context.Background(), CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Lines:      []CreatePurchaseOrderLineInput{{ProductID: product.ID, Quantity: quantity}},
	})
	require.NoError(t, err)
	return resp
}

// ---------------------------------------------------------------------------
// Recording adapter
// ---------------------------------------------------------------------------

type recordingAdapter struct {
	calls       []string
	supplierErr error
	productErr  error
	inboundErr  error
	inboundAck  logistics.InboundAck
	inbounds    []logistics.InboundShipment
}

func (a *recordingAdapter) Provider() logistics.Provider { return logistics.ProviderPickAndPack }

func (a *recordingAdapter) SyncSupplier(_ context.Context, s *catalog.Supplier) error {
	a.calls = append(a.calls, "supplier:"+s.Name)
	return a.supplierErr
}

func (a *recordingAdapter) SyncProduct(_ context.Context, p *catalog.Product) error {
	a.calls = append(a.calls, "product:"+p.SKU)
	return a.productErr
}

func (a *recordingAdapter) SubmitInbound(_ context.Context, s logistics.InboundShipment, _ time.Time) (logistics.InboundAck, error) {
	a.calls = append(a.calls, "inbound")
	a.inbounds = append(a.inbounds, s)
	return a.inboundAck, a.inboundErr
}

func (a *recordingAdapter) SubmitOutbound(context.Context, logistics.OutboundShipment, time.Time) (logistics.OutboundAck, error) {
	return logistics.OutboundAck{}, nil
}

func (e *testEnv) approvals(adapter logistics.SyncAdapter) *ApprovalExecutor {
	providers := applogistics.NewProviders(adapter.Provider()).AddAdapter(adapter)
	return NewApprovalExecutor(e.scope, providers, applogistics.NewStatusLedger(e.scope))
}
