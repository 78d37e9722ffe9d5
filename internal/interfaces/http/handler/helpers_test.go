package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	procurementapp "github.com/giftcampaign/backend/internal/application/procurement"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/orian"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/pickandpack"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"github.com/giftcampaign/backend/internal/infrastructure/taskqueue"
	"github.com/giftcampaign/backend/internal/interfaces/http/dto"
	"github.com/giftcampaign/backend/internal/interfaces/http/middleware"
	"github.com/giftcampaign/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const (
	pickAndPackKey = "pp-key"
	orianKey       = "orian-key"
)

// testEnv wires the handlers to services over an in-memory database
type testEnv struct {
	db     *gorm.DB
	queue  *taskqueue.Queue
	fx     *testutil.Fixtures
	group  *models.EmployeeGroupModel
	router *gin.Engine
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)
	db := testutil.NewSQLiteDB(t)
	queue := taskqueue.NewQueue(db, shared.DefaultTaskMaxRetries, log)
	scope := persistence.NewGormTransactionScope(db, queue.ForTx)
	providers := applogistics.NewProviders(logistics.ProviderPickAndPack).
		AddDecoder(orian.NewDecoder("T", time.UTC)).
		AddDecoder(pickandpack.NewDecoder("P", time.UTC))

	ingestion := applogistics.NewIngestionService(scope, providers, nil, shared.IdempotencyConfig{}, log)
	summary := procurementapp.NewOrderSummaryService(
		persistence.NewGormSummaryRepository(db),
		persistence.NewGormSupplierRepository(db),
		persistence.NewGormSnapshotRepository(db),
	)
	poHandler := NewPurchaseOrderHandler(procurementapp.NewPurchaseOrderService(scope))
	orderHandler := NewOrderHandler(applogistics.NewOutboundService(scope, providers, log), summary)
	taskHandler := NewTaskHandler(queue)
	webhookHandler := NewWebhookHandler(ingestion)

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	api.POST("/logistics/:provider/webhook", middleware.APIKeyAuth(middleware.APIKeyConfig{
		Keys: map[string]string{pickAndPackKey: "PICK_AND_PACK", orianKey: "ORIAN"},
	}), webhookHandler.Receive)
	api.POST("/purchase-orders", poHandler.Create)
	api.GET("/purchase-orders", poHandler.List)
	api.GET("/purchase-orders/:id", poHandler.GetByID)
	api.PUT("/purchase-orders/:id/lines/:lineId", poHandler.UpdateLine)
	api.POST("/purchase-orders/:id/send-to-supplier", poHandler.SendToSupplier)
	api.POST("/purchase-orders/:id/approve", poHandler.Approve)
	api.POST("/purchase-orders/:id/quick-approve", poHandler.QuickApprove)
	api.POST("/purchase-orders/:id/cancel", poHandler.Cancel)
	api.POST("/purchase-orders/:id/send-again", poHandler.SendAgain)
	api.POST("/orders/:id/send-to-logistics", orderHandler.SendToLogistics)
	api.GET("/orders/summary", orderHandler.Summary)
	api.GET("/tasks/dead", taskHandler.ListDead)
	api.POST("/tasks/:id/retry", taskHandler.Retry)

	fx := testutil.NewFixtures(t, db)
	return &testEnv{
		db:     db,
		queue:  queue,
		fx:     fx,
		group:  fx.EmployeeGroup(ordering.DeliveryToHome),
		router: r,
		clock:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

// demand inserts one pending order per quantity, oldest first
func (e *testEnv) demand(productID int64, quantities ...int) []*models.OrderModel {
	orders := make([]*models.OrderModel, 0, len(quantities))
	for _, q := range quantities {
		e.clock = e.clock.Add(time.Minute)
		orders = append(orders, e.fx.Order(testutil.OrderSpec{
			EmployeeGroupID: e.group.ID,
			OrganizationID:  e.group.OrganizationID,
			CreatedAt:       e.clock,
			Lines:           []testutil.LineSpec{{ProductID: productID, Quantity: q}},
		}))
	}
	return orders
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) pendingTasks(t *testing.T) []*shared.Task {
	t.Helper()
	tasks, err := taskqueue.NewGormTaskRepository(e.db).FindPending(context.Background(), 100)
	require.NoError(t, err)
	return tasks
}

// envelope is a decoded response whose data is left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := decode(t, w, nil)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
}
