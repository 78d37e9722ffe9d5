package persistence

import (
	"context"
	"errors"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// TaskQueueFactory binds a task queue to a transaction
type TaskQueueFactory func(tx *gorm.DB) shared.TaskQueue

// GormTransactionScope implements txn.TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db    *gorm.DB
	tasks TaskQueueFactory
}

// NewGormTransactionScope creates a new GormTransactionScope. tasks may be nil
// when no caller enqueues work inside transactions.
func NewGormTransactionScope(db *gorm.DB, tasks TaskQueueFactory) *GormTransactionScope {
	return &GormTransactionScope{db: db, tasks: tasks}
}

// Execute runs fn within a database transaction. The transaction is rolled
// back when fn returns an error and committed otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txn.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, tasks: s.tasks})
	})
}

type gormTransactionalRepositories struct {
	tx    *gorm.DB
	tasks TaskQueueFactory
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Orders() ordering.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) LineItems() ordering.LineItemRepository {
	return NewGormLineItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseOrders() procurement.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Events() logistics.EventRepository {
	return NewGormLogisticsEventRepository(r.tx)
}

func (r *gormTransactionalRepositories) Statuses() logistics.StatusRepository {
	return NewGormStatusRepository(r.tx)
}

func (r *gormTransactionalRepositories) Snapshots() logistics.SnapshotRepository {
	return NewGormSnapshotRepository(r.tx)
}

func (r *gormTransactionalRepositories) Receipts() logistics.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

func (r *gormTransactionalRepositories) Tasks() shared.TaskQueue {
	if r.tasks == nil {
		return noTaskQueue{}
	}
	return r.tasks(r.tx)
}

type noTaskQueue struct{}

func (noTaskQueue) Enqueue(context.Context, string, any) (*shared.Task, error) {
	return nil, errors.New("transaction scope has no task queue")
}

var (
	_ txn.TransactionScope = (*GormTransactionScope)(nil)
	_ txn.Repositories     = (*gormTransactionalRepositories)(nil)
)
