package logistics

import (
	"context"
	"testing"
	"time"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderStatusBody = `{"type":"orderStatusChange","data":{"ORDERID":"ORD-1","STATUS":"Picked"}}`

type countingObserver struct{ events []string }

func (o *countingObserver) EventIngested(_ context.Context, provider, eventType string) {
	o.events = append(o.events, provider+"/"+eventType)
}

func TestIngestionService_StoresEventAndEnqueuesProcessing(t *testing.T) {
	env := newTestEnv(t)
	observer := &countingObserver{}
	svc := env.ingestion().WithObserver(observer)

	result, err := svc.Ingest(context.Background(), IngestRequest{
		Provider: logistics.ProviderPickAndPack,
		WireType: "orderStatusChange",
		Body:     []byte(orderStatusBody),
	})
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.NotZero(t, result.EventID)
	assert.Equal(t, logistics.MessageTypeOrderStatusChange, result.MessageType)

	tasks := env.pendingTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskProcessEvent, tasks[0].Name)
	var args ProcessEventArgs
	require.NoError(t, tasks[0].DecodeArgs(&args))
	assert.Equal(t, result.EventID, args.EventID)
	assert.Equal(t, []string{"PICK_AND_PACK/ORDER_STATUS_CHANGE"}, observer.events)
}

func TestIngestionService_DeliveryIDStoredOnce(t *testing.T) {
	env := newTestEnv(t)
	svc := env.ingestion()
	req := IngestRequest{
		Provider:   logistics.ProviderPickAndPack,
		WireType:   "orderStatusChange",
		Body:       []byte(orderStatusBody),
		DeliveryID: "delivery-1",
	}

	first, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Zero(t, second.EventID)
	assert.Len(t, env.pendingTasks(t), 1)
}

func TestIngestionService_RepeatedPayloadWithoutDeliveryID(t *testing.T) {
	env := newTestEnv(t)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	svc := NewIngestionService(env.scope, env.providers, store, shared.DefaultIdempotencyConfig(), nil)
	req := IngestRequest{Provider: logistics.ProviderPickAndPack, WireType: "orderStatusChange", Body: []byte(orderStatusBody)}

	first, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, second.Duplicate)
	assert.NotEqual(t, first.EventID, second.EventID)
	assert.Len(t, env.pendingTasks(t), 2)
}

func TestIngestionService_IdempotencyStoreShortCircuits(t *testing.T) {
	env := newTestEnv(t)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	svc := NewIngestionService(env.scope, env.providers, store, shared.DefaultIdempotencyConfig(), nil)

	req := IngestRequest{
		Provider:   logistics.ProviderOrian,
		WireType:   "OrderStatusChange_NKS",
		Body:       []byte(`{"DATACOLLECTION":{"DATA":{"ORDERID":"ORD-1","TOSTATUS":"X","STATUSDATE":"06/01/2024 10:00:00 AM"}}}`),
		DeliveryID: "amqp-1",
	}
	_, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	processed, err := store.IsProcessed(context.Background(), "logistics:ORIAN:amqp-1")
	require.NoError(t, err)
	assert.True(t, processed)

	again, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Len(t, env.pendingTasks(t), 1)
}

func TestIngestionService_KeepsTransportTime(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)

	result, err := env.ingestion().Ingest(context.Background(), IngestRequest{
		Provider:   logistics.ProviderOrian,
		WireType:   "SNAPSHOT",
		Body:       []byte(`<DATACOLLECTION></DATACOLLECTION>`),
		SourceRef:  "STOCK_NKS_010720240900.xml",
		OccurredAt: &at,
	})
	require.NoError(t, err)

	var stored *logistics.LogisticsEvent
	require.NoError(t, env.scope.Execute(context.Background(), func(repos txn.Repositories) error {
		stored, err = repos.Events().FindByID(context.Background(), result.EventID)
		return err
	}))
	require.NotNil(t, stored.OccurredAt)
	assert.True(t, stored.OccurredAt.Equal(at))
	assert.Equal(t, "STOCK_NKS_010720240900.xml", stored.SourceRef)
}

func TestIngestionService_Rejections(t *testing.T) {
	env := newTestEnv(t)
	svc := env.ingestion()

	_, err := svc.Ingest(context.Background(), IngestRequest{Provider: logistics.ProviderPickAndPack, WireType: "bogus", Body: []byte(`{}`)})
	assert.ErrorIs(t, err, logistics.ErrUnknownMessageType)

	// Orian never reports inbound status changes
	_, err = svc.Ingest(context.Background(), IngestRequest{Provider: logistics.ProviderOrian, WireType: "INBOUND_STATUS_CHANGE", Body: []byte(`{}`)})
	assert.ErrorIs(t, err, logistics.ErrUnknownMessageType)

	_, err = NewIngestionService(env.scope, NewProviders(logistics.ProviderOrian), nil, shared.IdempotencyConfig{}, nil).
		Ingest(context.Background(), IngestRequest{Provider: logistics.ProviderOrian, WireType: "SHIP_ORDER"})
	assert.ErrorIs(t, err, logistics.ErrProviderNotConfigured)

	assert.Empty(t, env.pendingTasks(t))
}
