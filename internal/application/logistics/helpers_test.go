package logistics

import (
	"context"
	"testing"
	"time"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/orian"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/pickandpack"
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
	db        *gorm.DB
	queue     *taskqueue.Queue
	scope     *persistence.GormTransactionScope
	providers *Providers
	fx        *testutil.Fixtures
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	queue := taskqueue.NewQueue(db, shared.DefaultTaskMaxRetries, zaptest.NewLogger(t))
	providers := NewProviders(logistics.ProviderOrian).
		AddDecoder(orian.NewDecoder("T", time.UTC)).
		AddDecoder(pickandpack.NewDecoder("P", time.UTC))
	return &testEnv{
		db:        db,
		queue:     queue,
		scope:     persistence.NewGormTransactionScope(db, queue.ForTx),
		providers: providers,
		fx:        testutil.NewFixtures(t, db),
	}
}

func (e *testEnv) order(t *testing.T, number string, lines ...testutil.LineSpec) *models.OrderModel {
	t.Helper()
	group := e.fx.EmployeeGroup(ordering.DeliveryToHome)
	return e.fx.Order(testutil.OrderSpec{
		Number:          number,
		EmployeeGroupID: group.ID,
		OrganizationID:  group.OrganizationID,
		Lines:           lines,
	})
}

func (e *testEnv) loadOrder(t *testing.T, id int64) *ordering.Order {
	t.Helper()
	o, err := persistence.NewGormOrderRepository(e.db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (e *testEnv) purchaseOrder(t *testing.T, supplierID int64, products ...*models.ProductModel) *procurement.PurchaseOrder {
	t.Helper()
	lines := make([]procurement.LineItem, 0, len(products))
	for _, p := range products {
		li, err := procurement.NewLineItem(p.ToDomain(), 10, nil, nil)
		require.NoError(t, err)
		lines = append(lines, *li)
	}
	po, err := procurement.NewPurchaseOrder(supplierID, "", lines)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormPurchaseOrderRepository(e.db).Create(context.Background(), po))
	return po
}

func (e *testEnv) loadPurchaseOrder(t *testing.T, id int64) *procurement.PurchaseOrder {
	t.Helper()
	po, err := persistence.NewGormPurchaseOrderRepository(e.db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return po
}

func (e *testEnv) loadEvent(t *testing.T, id int64) *logistics.LogisticsEvent {
	t.Helper()
	event, err := persistence.NewGormLogisticsEventRepository(e.db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return event
}

func (e *testEnv) pendingTasks(t *testing.T) []*shared.Task {
	t.Helper()
	tasks, err := taskqueue.NewGormTaskRepository(e.db).FindPending(context.Background(), 100)
	require.NoError(t, err)
	return tasks
}

func (e *testEnv) ingestion() *IngestionService {
	return NewIngestionService(e.scope, e.providers, nil, shared.IdempotencyConfig{}, nil)
}

func (e *testEnv) processor() *EventProcessor {
	return NewEventProcessor(e.scope, e.providers,
		NewStatusLedger(e.scope), NewReceiptRecorder(e.scope), NewSnapshotProcessor(e.scope))
}

// ---------------------------------------------------------------------------
// Fake adapter
// ---------------------------------------------------------------------------

type fakeAdapter struct {
	provider        logistics.Provider
	customerSynced  int
	outbounds       []logistics.OutboundShipment
	outboundAck     logistics.OutboundAck
	outboundErr     error
	customerSyncErr error
}

func (f *fakeAdapter) Provider() logistics.Provider { return f.provider }

func (f *fakeAdapter) SyncSupplier(context.Context, *catalog.Supplier) error { return nil }

func (f *fakeAdapter) SyncProduct(context.Context, *catalog.Product) error { return nil }

func (f *fakeAdapter) SubmitInbound(context.Context, logistics.InboundShipment, time.Time) (logistics.InboundAck, error) {
	return logistics.InboundAck{}, nil
}

func (f *fakeAdapter) SubmitOutbound(_ context.Context, s logistics.OutboundShipment, _ time.Time) (logistics.OutboundAck, error) {
	f.outbounds = append(f.outbounds, s)
	return f.outboundAck, f.outboundErr
}

type fakeCustomerAdapter struct {
	fakeAdapter
}

func (f *fakeCustomerAdapter) SyncCustomer(context.Context) error {
	f.customerSynced++
	return f.customerSyncErr
}
