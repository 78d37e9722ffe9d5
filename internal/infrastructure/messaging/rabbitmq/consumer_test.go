package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/orian"
	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type settlement struct {
	acked    bool
	rejected bool
	nacked   bool
	requeue  bool
}

func (s *settlement) Ack(uint64, bool) error { s.acked = true; return nil }

func (s *settlement) Nack(_ uint64, _ bool, requeue bool) error {
	s.nacked, s.requeue = true, requeue
	return nil
}

func (s *settlement) Reject(_ uint64, requeue bool) error {
	s.rejected, s.requeue = true, requeue
	return nil
}

type fakeIngester struct {
	requests []applogistics.IngestRequest
	err      error
}

func (f *fakeIngester) Ingest(_ context.Context, req applogistics.IngestRequest) (*applogistics.IngestResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &applogistics.IngestResult{EventID: int64(len(f.requests))}, nil
}

func delivery(body string, ack *settlement) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  7,
		MessageId:    "msg-1",
		Timestamp:    time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Body:         []byte(body),
	}
}

func TestConsumer_Handle(t *testing.T) {
	tests := []struct {
		name        string
		queue       string
		body        string
		ingestErr   error
		wantIngest  bool
		wantAck     bool
		wantReject  bool
		wantRequeue bool
	}{
		{
			name:       "order status stored and acked",
			queue:      orian.QueueOrderStatusChange,
			body:       `{"DATACOLLECTION":{"DATA":{"ORDERID":"ORD-1","TOSTATUS":"PICKED"}}}`,
			wantIngest: true,
			wantAck:    true,
		},
		{
			name:       "receipt without RECEIPT rejected",
			queue:      orian.QueueReceipt,
			body:       `{"DATACOLLECTION":{"DATA":{"CONSIGNEE":"NKS"}}}`,
			wantReject: true,
		},
		{
			name:       "ship order without ORDERID rejected",
			queue:      orian.QueueShipOrder,
			body:       `{"DATACOLLECTION":{"DATA":{"STATUS":"SHIPPED"}}}`,
			wantReject: true,
		},
		{
			name:       "not json rejected",
			queue:      orian.QueueShipOrder,
			body:       `<xml/>`,
			wantReject: true,
		},
		{
			name:       "unknown queue rejected",
			queue:      "Other_NKS",
			body:       `{}`,
			wantReject: true,
		},
		{
			name:        "storage failure requeued",
			queue:       orian.QueueShipOrder,
			body:        `{"DATACOLLECTION":{"DATA":{"ORDERID":"ORD-1","STATUS":"SHIPPED"}}}`,
			ingestErr:   errors.New("database is closed"),
			wantIngest:  true,
			wantRequeue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingester := &fakeIngester{err: tt.ingestErr}
			consumer := NewConsumer(nil, ingester, OrianQueues, zaptest.NewLogger(t))
			ack := &settlement{}

			consumer.Handle(context.Background(), tt.queue, delivery(tt.body, ack))

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantReject, ack.rejected)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
			if tt.wantRequeue {
				assert.True(t, ack.nacked)
			}
			if !tt.wantIngest {
				assert.Empty(t, ingester.requests)
			}
		})
	}
}

func TestConsumer_IngestRequest(t *testing.T) {
	ingester := &fakeIngester{}
	consumer := NewConsumer(nil, ingester, OrianQueues, nil)
	body := `{"DATACOLLECTION":{"DATA":{"ORDERID":"ORD-1","TOSTATUS":"PICKED"}}}`

	consumer.Handle(context.Background(), orian.QueueOrderStatusChange, delivery(body, &settlement{}))

	require.Len(t, ingester.requests, 1)
	req := ingester.requests[0]
	assert.Equal(t, logistics.ProviderOrian, req.Provider)
	assert.Equal(t, orian.QueueOrderStatusChange, req.WireType)
	assert.Equal(t, "msg-1", req.DeliveryID)
	assert.JSONEq(t, body, string(req.Body))
	require.NotNil(t, req.OccurredAt)
	assert.True(t, req.OccurredAt.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)))
}

func TestConsumer_MalformedFromIngestion(t *testing.T) {
	ingester := &fakeIngester{err: logistics.ErrMalformedMessage}
	ack := &settlement{}
	NewConsumer(nil, ingester, OrianQueues, nil).
		Handle(context.Background(), orian.QueueOrderStatusChange,
			delivery(`{"DATACOLLECTION":{"DATA":{"ORDERID":"ORD-1"}}}`, ack))
	assert.True(t, ack.rejected)
	assert.False(t, ack.requeue)
}
