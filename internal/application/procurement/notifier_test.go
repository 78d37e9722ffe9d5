package procurement

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	routingKey string
	body       []byte
}

type recordingPublisher struct {
	messages []published
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{routingKey: routingKey, body: body})
	return nil
}

func TestSupplierNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	supplier := env.fx.Supplier("Gifts Ltd")
	created := env.pendingPO(t, supplier.ID, env.fx.Product(supplier.ID, "MUG-1"), 3)

	publisher := &recordingPublisher{}
	notifier := NewSupplierNotifier(env.scope, publisher)
	sentAt := time.Date(2024, 5, 3, 9, 30, 0, 0, time.UTC)
	notifier.now = func() time.Time { return sentAt }

	require.NoError(t, notifier.Notify(ctx, created.ID))
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, RoutingKeySentToSupplier, publisher.messages[0].routingKey)

	var msg SupplierOrderMessage
	require.NoError(t, json.Unmarshal(publisher.messages[0].body, &msg))
	assert.Equal(t, created.ID, msg.PurchaseOrderID)
	assert.Equal(t, "Gifts Ltd", msg.SupplierName)
	assert.True(t, msg.SentAt.Equal(sentAt))
	require.Len(t, msg.Lines, 1)
	assert.Equal(t, "MUG-1", msg.Lines[0].SKU)
	assert.Equal(t, 3, msg.Lines[0].Quantity)
	assert.Equal(t, "30", msg.TotalCost.String())
}

func TestSupplierNotifier_CancelledAndFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	supplier := env.fx.Supplier("Gifts Ltd")
	created := env.pendingPO(t, supplier.ID, env.fx.Product(supplier.ID, "MUG-1"), 1)

	failing := &recordingPublisher{err: errors.New("channel closed")}
	err := NewSupplierNotifier(env.scope, failing).Notify(ctx, created.ID)
	assert.ErrorContains(t, err, "channel closed")

	_, err = env.service().Cancel(ctx, created.ID)
	require.NoError(t, err)
	publisher := &recordingPublisher{}
	require.NoError(t, NewSupplierNotifier(env.scope, publisher).Notify(ctx, created.ID))
	assert.Empty(t, publisher.messages)

	// without a broker messages are dropped
	require.NoError(t, NewSupplierNotifier(env.scope, nil).Notify(ctx, created.ID))
}
